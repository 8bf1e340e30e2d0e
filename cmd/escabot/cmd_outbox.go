package main

import (
	"encoding/json"
	"fmt"

	"escabot/pkg/chat"

	"github.com/spf13/cobra"
)

// newOutboxCmd creates the "escabot outbox" command group used by gateway
// bridges to drain queued chat messages.
func newOutboxCmd() *cobra.Command {
	var limit int

	list := &cobra.Command{
		Use:   "list",
		Short: "Print pending messages as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			pending, err := chat.NewOutbox(st.DB).Pending(cmd.Context(), limit)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, e := range pending {
				if err := enc.Encode(e); err != nil {
					return fmt.Errorf("encode %s: %w", e.ID, err)
				}
			}
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "maximum number of messages (0 = all)")

	ack := &cobra.Command{
		Use:   "ack <id>...",
		Short: "Mark messages as delivered",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			outbox := chat.NewOutbox(st.DB)
			for _, id := range args {
				if err := outbox.MarkSent(cmd.Context(), id); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "acknowledged %d message(s)\n", len(args))
			return nil
		},
	}

	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Drain chat messages queued for a gateway bridge",
	}
	cmd.AddCommand(list, ack)
	return cmd
}
