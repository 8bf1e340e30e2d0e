package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// newAlertsCmd creates the "escabot alerts" command group.
func newAlertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Manage who gets direct messages about which escalators",
	}
	cmd.AddCommand(newAlertsAddCmd(), newAlertsRemoveCmd(), newAlertsListCmd(), newAlertsClearCmd())
	return cmd
}

func newAlertsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "add <user> <escalators>...",
		Short:   "Watch escalators",
		Example: "  escabot alerts add ana 4-2 7/9",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			floors, err := parseTargets(args[1:])
			if err != nil {
				return err
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			n, err := st.Watchlists.Add(cmd.Context(), args[0], floors...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now watches %d more escalator(s)\n", args[0], n)
			return nil
		},
	}
}

func newAlertsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <user> <escalators>...",
		Short: "Stop watching escalators",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			floors, err := parseTargets(args[1:])
			if err != nil {
				return err
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			n, err := st.Watchlists.Remove(cmd.Context(), args[0], floors...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d escalator(s) from %s's alerts\n", n, args[0])
			return nil
		},
	}
}

func newAlertsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <user>",
		Short: "Show watched escalators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			floors, err := st.Watchlists.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(floors) == 0 {
				fmt.Fprintf(w, "%s has no alerts\n", args[0])
				return nil
			}
			fmt.Fprintln(w, strings.Join(floorNames(floors), " "))
			return nil
		},
	}
}

func newAlertsClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <user>",
		Short: "Remove every alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			n, err := st.Watchlists.Clear(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d alert(s) for %s\n", n, args[0])
			return nil
		},
	}
}
