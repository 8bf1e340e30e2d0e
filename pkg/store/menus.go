package store

import (
	"context"
	"database/sql"
	"fmt"
)

// MenuMessage is a posted status menu kept in sync with every update.
type MenuMessage struct {
	Guild     string
	Channel   string
	MessageID string
}

// Menus stores posted status menus.
type Menus struct {
	db *sql.DB
}

// Add registers a posted menu.
func (m *Menus) Add(ctx context.Context, msg MenuMessage) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO menu_messages (channel_id, message_id, guild_id) VALUES (?, ?, ?)`,
		msg.Channel, msg.MessageID, msg.Guild)
	if err != nil {
		return fmt.Errorf("add menu %s/%s: %w", msg.Channel, msg.MessageID, err)
	}
	return nil
}

// RemoveChannel forgets every menu in the channel and returns how many there
// were.
func (m *Menus) RemoveChannel(ctx context.Context, channel string) (int, error) {
	res, err := m.db.ExecContext(ctx, `DELETE FROM menu_messages WHERE channel_id = ?`, channel)
	if err != nil {
		return 0, fmt.Errorf("remove menus in %s: %w", channel, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// List returns every registered menu, oldest first.
func (m *Menus) List(ctx context.Context) ([]MenuMessage, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT guild_id, channel_id, message_id FROM menu_messages ORDER BY created_at, channel_id, message_id`)
	if err != nil {
		return nil, fmt.Errorf("list menus: %w", err)
	}
	defer rows.Close()

	var out []MenuMessage
	for rows.Next() {
		var msg MenuMessage
		if err := rows.Scan(&msg.Guild, &msg.Channel, &msg.MessageID); err != nil {
			return nil, fmt.Errorf("scan menu: %w", err)
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}
