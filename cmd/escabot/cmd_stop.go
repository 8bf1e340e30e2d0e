package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// newStopCmd creates the "escabot stop" subcommand.
func newStopCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		Long:  "Sends SIGTERM to the daemon and waits until it has saved statuses and exited.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}

			pid := pidFile(paths.PIDPath)
			status, n, err := pid.status()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch status {
			case StatusStopped:
				fmt.Fprintln(w, "escabot is not running")
			case StatusStale:
				fmt.Fprintln(w, "removing stale PID file (process already dead)")
				return pid.remove()
			case StatusRunning:
				fmt.Fprintf(w, "stopping escabot (PID %d)\n", n)
				ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
				defer cancel()
				if err := stopDaemon(ctx, n, 100*time.Millisecond); err != nil {
					return err
				}
				fmt.Fprintln(w, "stopped")
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "how long to wait for the daemon to exit")

	return cmd
}
