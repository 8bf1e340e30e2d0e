package main

import (
	"fmt"

	"escabot/pkg/protocol"

	"github.com/spf13/cobra"
)

// newMenuMessageCmd creates the "escabot menu-message" command group.
func newMenuMessageCmd() *cobra.Command {
	var guild string

	initCmd := &cobra.Command{
		Use:   "init <channel>",
		Short: "Post a status menu that stays in sync",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := sendRequest(cmd.Context(), protocol.Request{
				Type: protocol.ReqMenuInit,
				Menu: &protocol.MenuPayload{Guild: guild, Channel: args[0]},
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "posted menu %s in %s\n", resp.MessageID, args[0])
			return nil
		},
	}
	initCmd.Flags().StringVar(&guild, "guild", "", "guild the channel belongs to")

	clearCmd := &cobra.Command{
		Use:   "clear <channel>",
		Short: "Stop syncing a channel's status menus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := sendRequest(cmd.Context(), protocol.Request{
				Type: protocol.ReqMenuClear,
				Menu: &protocol.MenuPayload{Channel: args[0]},
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stopped syncing %d menu(s) in %s\n", resp.Removed, args[0])
			return nil
		},
	}

	cmd := &cobra.Command{
		Use:   "menu-message",
		Short: "Manage posted status menus",
	}
	cmd.AddCommand(initCmd, clearCmd)
	return cmd
}
