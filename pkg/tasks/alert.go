package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"escabot/pkg/bus"
	"escabot/pkg/chat"
	"escabot/pkg/render"
	"escabot/pkg/tracker"
)

// Alert direct-messages the watchers of every escalator a report touched.
type Alert struct {
	Updates   *bus.Receiver[tracker.Update]
	Watchers  WatcherLookup
	Messenger chat.Messenger
	Logger    *slog.Logger
}

// Name implements Task.
func (a *Alert) Name() string { return "alert" }

// Run implements Task.
func (a *Alert) Run(ctx context.Context) error {
	logger := orDiscard(a.Logger)
	return consume(ctx, logger, a.Name(), a.Updates, func(ctx context.Context, u tracker.Update) error {
		return a.handle(ctx, logger, u)
	}, nil)
}

func (a *Alert) handle(ctx context.Context, logger *slog.Logger, u tracker.Update) error {
	if u.Kind != tracker.UpdateReport || u.Report == nil || len(u.Report.Affected) == 0 {
		return nil
	}
	users, err := a.Watchers.Watchers(ctx, u.Report.Affected)
	if err != nil {
		return fmt.Errorf("look up watchers: %w", err)
	}
	if len(users) == 0 {
		logger.Debug("no users watching affected escalators", "report", u.Report.ID.String())
		return nil
	}

	msg := chat.Message{Content: render.Alert(*u.Report)}
	sent := 0
	for _, user := range users {
		if err := a.Messenger.Direct(ctx, user, msg); err != nil {
			logger.Warn("send alert", "user", user, "error", err)
			continue
		}
		sent++
	}
	logger.Info("alerts sent", "report", u.Report.ID.String(), "sent", sent, "watchers", len(users))
	return nil
}
