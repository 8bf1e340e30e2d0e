package main

import (
	"fmt"
	"strings"

	"escabot/pkg/escalator"
	"escabot/pkg/protocol"

	"github.com/spf13/cobra"
)

// newReportCmd creates the "escabot report" subcommand.
func newReportCmd() *cobra.Command {
	var reporter string

	cmd := &cobra.Command{
		Use:   "report <escalators> <status>",
		Short: "Report escalator statuses",
		Long: "Reports a status for one escalator (\"4-2\"), a pair (\"4/2\"), or all of\n" +
			"them (\"all\"). Status is OPEN, DOWN, or BLOCKED.",
		Example: "  escabot report 4-2 down\n  escabot report 7/9 blocked --as ana\n  escabot report all open",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Check syntax locally so typos do not need a running daemon.
			if _, err := escalator.ParseInput(args[0], escalator.Default()); err != nil {
				return err
			}
			if _, err := escalator.ParseStatus(args[1]); err != nil {
				return err
			}

			resp, err := sendRequest(cmd.Context(), protocol.Request{
				Type:   protocol.ReqReport,
				Report: &protocol.ReportPayload{Reporter: reporter, Escalators: args[0], Status: args[1]},
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			p := newPalette(w)
			fmt.Fprintln(w, resp.Text)
			fmt.Fprintf(w, "%s %s\n", p.dim("kind:"), resp.Kind)
			if len(resp.Affected) > 0 {
				fmt.Fprintf(w, "%s %s\n", p.dim("affected:"), strings.Join(resp.Affected, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reporter, "as", "", "user the report is attributed to")

	return cmd
}

// newInteractCmd creates the "escabot interact" subcommand.
func newInteractCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "interact <component> [value]",
		Short: "Send one step of the report menu",
		Long: "Feeds a report-menu interaction to the daemon, as a gateway bridge would.\n" +
			"Components: " + strings.Join([]string{protocol.ComponentEscalator, protocol.ComponentStatus, protocol.ComponentCancel}, ", "),
		Example: "  escabot interact report:escalator 4-2 --user ana\n  escabot interact report:status DOWN --user ana",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" {
				return fmt.Errorf("--user is required")
			}
			payload := &protocol.InteractionPayload{User: user, Component: args[0]}
			if len(args) == 2 {
				payload.Value = args[1]
			}
			resp, err := sendRequest(cmd.Context(), protocol.Request{Type: protocol.ReqInteract, Interaction: payload})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "delivered to %d listener(s)\n", resp.Delivered)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "user interacting with the menu")

	return cmd
}

// newGistCmd creates the "escabot gist" subcommand.
func newGistCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gist",
		Short: "Summarise current statuses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := sendRequest(cmd.Context(), protocol.Request{Type: protocol.ReqGist})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			title, rest, _ := strings.Cut(resp.Text, "\n\n")
			fmt.Fprintln(w, newPalette(w).bold(title))
			if rest != "" {
				fmt.Fprintln(w, rest)
			}
			return nil
		},
	}
}

// newMenuCmd creates the "escabot menu" subcommand.
func newMenuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Show the status of every escalator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := sendRequest(cmd.Context(), protocol.Request{Type: protocol.ReqMenu})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Text)
			return nil
		},
	}
}

// newSweepCmd creates the "escabot sweep" subcommand.
func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire outdated statuses now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := sendRequest(cmd.Context(), protocol.Request{Type: protocol.ReqSweep})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(resp.Affected) == 0 {
				fmt.Fprintln(w, "no outdated statuses")
				return nil
			}
			fmt.Fprintf(w, "expired %d: %s\n", len(resp.Affected), strings.Join(resp.Affected, ", "))
			return nil
		},
	}
}
