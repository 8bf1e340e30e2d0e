package tasks

import (
	"context"
	"log/slog"
	"time"

	"escabot/pkg/tracker"
)

// Loop defaults.
const (
	DefaultOutdatedCheckInterval = 10 * time.Minute
	DefaultAutosaveInterval      = time.Minute
	finalSaveTimeout             = 5 * time.Second
)

// Outdated periodically expires stale statuses.
type Outdated struct {
	Engine   *tracker.Engine
	Interval time.Duration
	Logger   *slog.Logger
}

// Name implements Task.
func (o *Outdated) Name() string { return "outdated" }

// Run implements Task.
func (o *Outdated) Run(ctx context.Context) error {
	logger := orDiscard(o.Logger)
	interval := o.Interval
	if interval <= 0 {
		interval = DefaultOutdatedCheckInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if expired := o.Engine.HandleOutdated(); len(expired) > 0 {
				logger.Info("expired outdated statuses", "count", len(expired))
			}
		}
	}
}

// Autosave periodically persists the engine when it has unsaved changes,
// and once more on shutdown.
type Autosave struct {
	Engine    *tracker.Engine
	Persister tracker.Persister
	Interval  time.Duration
	Logger    *slog.Logger
}

// Name implements Task.
func (a *Autosave) Name() string { return "autosave" }

// Run implements Task.
func (a *Autosave) Run(ctx context.Context) error {
	logger := orDiscard(a.Logger)
	interval := a.Interval
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalSaveTimeout)
			defer cancel()
			if _, err := a.Engine.Save(saveCtx, a.Persister); err != nil {
				logger.Error("final save", "error", err)
				return err
			}
			return ctx.Err()
		case <-ticker.C:
			saved, err := a.Engine.Save(ctx, a.Persister)
			if err != nil {
				logger.Error("autosave", "error", err)
				continue
			}
			if saved {
				logger.Debug("statuses saved")
			}
		}
	}
}
