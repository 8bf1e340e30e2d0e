package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newAnnounceCmd creates the "escabot announce" command group.
func newAnnounceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "announce",
		Short: "Manage announcement channels",
		Long:  "Each guild has at most one channel that receives batched status announcements.",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <guild> <channel>",
			Short: "Send a guild's announcements to a channel",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := openStore()
				if err != nil {
					return err
				}
				defer func() { _ = st.Close() }()
				if err := st.Announcements.Set(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "announcements for %s go to %s\n", args[0], args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <guild>",
			Short: "Stop announcing to a guild",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := openStore()
				if err != nil {
					return err
				}
				defer func() { _ = st.Close() }()
				removed, err := st.Announcements.Remove(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(cmd.OutOrStdout(), "%s has no announcement channel\n", args[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed announcement channel for %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List announcement channels",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := openStore()
				if err != nil {
					return err
				}
				defer func() { _ = st.Close() }()
				channels, err := st.Announcements.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(channels) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no announcement channels")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "GUILD\tCHANNEL")
				for _, c := range channels {
					fmt.Fprintf(tw, "%s\t%s\n", c.Guild, c.Channel)
				}
				return tw.Flush()
			},
		},
	)
	return cmd
}
