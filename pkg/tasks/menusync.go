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

// MenuSource provides the rows of the status menu.
type MenuSource interface {
	MenuRows() []tracker.MenuRow
}

// MenuSync re-renders the status menu after every update and edits each
// posted menu to match.
type MenuSync struct {
	Updates   *bus.Receiver[tracker.Update]
	Menus     MenuLister
	Engine    MenuSource
	Messenger chat.Messenger
	Logger    *slog.Logger
}

// Name implements Task.
func (m *MenuSync) Name() string { return "menu-sync" }

// Run implements Task.
func (m *MenuSync) Run(ctx context.Context) error {
	logger := orDiscard(m.Logger)
	return consume(ctx, logger, m.Name(), m.Updates,
		func(ctx context.Context, _ tracker.Update) error {
			return m.Sync(ctx)
		},
		func(ctx context.Context) {
			if err := m.Sync(ctx); err != nil {
				logger.Warn("sync menus after lag", "error", err)
			}
		})
}

// Sync edits every posted menu to the current statuses.
func (m *MenuSync) Sync(ctx context.Context) error {
	menus, err := m.Menus.List(ctx)
	if err != nil {
		return fmt.Errorf("list menus: %w", err)
	}
	if len(menus) == 0 {
		return nil
	}
	msg := chat.Message{Content: render.Menu(m.Engine.MenuRows())}
	for _, menu := range menus {
		if err := m.Messenger.Edit(ctx, menu.Channel, menu.MessageID, msg); err != nil {
			orDiscard(m.Logger).Warn("edit menu", "channel", menu.Channel, "message", menu.MessageID, "error", err)
		}
	}
	return nil
}
