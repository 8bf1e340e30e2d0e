package tasks

import (
	"context"
	"log/slog"

	"escabot/pkg/bus"
	"escabot/pkg/tracker"
)

// History appends every update to the event log.
type History struct {
	Updates *bus.Receiver[tracker.Update]
	Events  UpdateAppender
	Logger  *slog.Logger
}

// Name implements Task.
func (h *History) Name() string { return "history" }

// Run implements Task.
func (h *History) Run(ctx context.Context) error {
	return consume(ctx, orDiscard(h.Logger), h.Name(), h.Updates, h.Events.Append, nil)
}
