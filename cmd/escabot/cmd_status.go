package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"escabot/pkg/eventlog"
	"escabot/pkg/protocol"
	"escabot/pkg/server"

	"github.com/spf13/cobra"
)

// newStatusCmd creates the "escabot status" subcommand.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon state and saved statuses",
		Long:  "Displays whether the daemon is running and answering, the last saved\nstatus of every escalator, and how many chat messages await delivery.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}
			return printStatus(cmd.Context(), paths, cmd.OutOrStdout())
		},
	}
}

func printStatus(ctx context.Context, paths *Paths, w io.Writer) error {
	p := newPalette(w)

	status, pid, err := pidFile(paths.PIDPath).status()
	if err != nil {
		return err
	}
	switch status {
	case StatusRunning:
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, pingErr := server.Send(pingCtx, paths.SocketPath, protocol.Request{Type: protocol.ReqPing})
		cancel()
		if pingErr != nil {
			fmt.Fprintf(w, "daemon:  running (PID %d), socket not answering: %v\n", pid, pingErr)
		} else {
			fmt.Fprintf(w, "daemon:  running (PID %d)\n", pid)
		}
	case StatusStale:
		fmt.Fprintf(w, "daemon:  stale PID file (PID %d is gone)\n", pid)
	default:
		fmt.Fprintln(w, "daemon:  stopped")
	}

	reader, err := eventlog.NewReader(paths.DBPath)
	if err != nil {
		fmt.Fprintln(w, "no state database yet (run `escabot init`)")
		return nil //nolint:nilerr // a missing database is a valid state
	}
	defer func() { _ = reader.Close() }()

	rows, err := reader.Statuses(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "statuses: none saved yet")
	} else {
		fmt.Fprintln(w, "statuses:")
		for _, row := range rows {
			age := "never"
			if !row.LastUpdate.IsZero() && row.LastUpdate.Unix() > 0 {
				age = time.Since(row.LastUpdate).Round(time.Minute).String() + " ago"
			}
			fmt.Fprintf(w, "  %-4s %s %s\n", row.Floors.String(), p.status(row.Status), p.dim(age))
		}
	}

	if pending, err := reader.PendingOutbox(ctx); err == nil {
		fmt.Fprintf(w, "outbox:  %d pending\n", pending)
	}
	return nil
}
