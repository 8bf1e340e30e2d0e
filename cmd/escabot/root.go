package main

import (
	"fmt"

	"escabot/internal/version"

	"github.com/spf13/cobra"
)

// newRootCmd creates the root escabot command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "escabot",
		Short:         "Escalator status bot",
		Long:          "escabot tracks crowd-sourced escalator statuses and keeps chat\nchannels, status menus, and watchers up to date.",
		Version:       fmt.Sprintf("escabot %s", version.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.AddCommand(
		newInitCmd(),
		newServeCmd(),
		newStopCmd(),
		newStatusCmd(),
		newReportCmd(),
		newInteractCmd(),
		newGistCmd(),
		newMenuCmd(),
		newSweepCmd(),
		newAlertsCmd(),
		newAnnounceCmd(),
		newMenuMessageCmd(),
		newLogsCmd(),
		newMigrateCmd(),
		newOutboxCmd(),
		newDashCmd(),
	)

	return cmd
}
