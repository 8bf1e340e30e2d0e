package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"escabot/pkg/eventlog"
	"escabot/pkg/protocol"

	"github.com/spf13/cobra"
)

// logsConfig holds configuration for the logs command.
type logsConfig struct {
	tail      int
	eventType string
	source    string
	escalator string
	follow    bool
}

// newLogsCmd creates the "escabot logs" subcommand.
func newLogsCmd() *cobra.Command {
	var cfg logsConfig

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the update history",
		Long:  "Displays reports and expirations recorded by the daemon, oldest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}
			reader, err := eventlog.NewReader(paths.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = reader.Close() }()

			w := cmd.OutOrStdout()
			if cfg.follow {
				return followLogs(cmd.Context(), reader, w, cfg)
			}
			return printLogs(cmd.Context(), reader, w, cfg)
		},
	}

	cmd.Flags().IntVar(&cfg.tail, "tail", 20, "number of recent events to show")
	cmd.Flags().StringVar(&cfg.eventType, "type", "", "only show events of this type (report, outdated)")
	cmd.Flags().StringVar(&cfg.source, "source", "", "only show events from this reporter")
	cmd.Flags().StringVar(&cfg.escalator, "escalator", "", "only show events touching this escalator, e.g. 4-2")
	cmd.Flags().BoolVarP(&cfg.follow, "follow", "f", false, "poll for new events every 1s")

	return cmd
}

func (c logsConfig) opts(limit int, after *time.Time) eventlog.QueryOpts {
	return eventlog.QueryOpts{
		EventType: c.eventType,
		Source:    c.source,
		Escalator: c.escalator,
		After:     after,
		Limit:     limit,
	}
}

// printLogs displays the last N matching events, oldest first.
func printLogs(ctx context.Context, reader *eventlog.Reader, w io.Writer, cfg logsConfig) error {
	events, err := reader.Query(ctx, cfg.opts(cfg.tail, nil))
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(w, "no events found")
		return nil
	}
	p := newPalette(w)
	for i := len(events) - 1; i >= 0; i-- {
		formatEvent(w, p, &events[i])
	}
	return nil
}

// followLogs prints the tail, then polls for newer events until ctx ends.
func followLogs(ctx context.Context, reader *eventlog.Reader, w io.Writer, cfg logsConfig) error {
	events, err := reader.Query(ctx, cfg.opts(cfg.tail, nil))
	if err != nil {
		return err
	}
	p := newPalette(w)
	var lastID int64
	var last time.Time
	for i := len(events) - 1; i >= 0; i-- {
		formatEvent(w, p, &events[i])
		lastID, last = events[i].ID, events[i].CreatedAt
	}

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			after := last
			newer, err := reader.Query(ctx, cfg.opts(100, &after))
			if err != nil {
				return err
			}
			for i := len(newer) - 1; i >= 0; i-- {
				if newer[i].ID <= lastID {
					continue
				}
				formatEvent(w, p, &newer[i])
				lastID, last = newer[i].ID, newer[i].CreatedAt
			}
		}
	}
}

// formatEvent prints one event as a single line.
func formatEvent(w io.Writer, p palette, evt *eventlog.Event) {
	var detail string
	switch evt.Type {
	case protocol.EventReport:
		detail = fmt.Sprintf("%s %s", evt.Status, p.dim("("+evt.Kind+")"))
	case protocol.EventOutdated:
		detail = "expired"
	}
	fmt.Fprintf(w, "%s  %-8s  %-12s  %-16s  %s\n",
		p.dim(evt.CreatedAt.UTC().Format(protocol.TimeLayout)),
		p.eventType(evt.Type),
		evt.Source,
		strings.Join(evt.Escalators, ","),
		detail)
}
