package store

import (
	"context"
	"database/sql"
	"fmt"
)

// AnnouncementChannel is where one guild receives batched announcements.
type AnnouncementChannel struct {
	Guild   string
	Channel string
}

// Announcements stores one announcement channel per guild.
type Announcements struct {
	db *sql.DB
}

// Set assigns the guild's announcement channel, replacing any previous one.
func (a *Announcements) Set(ctx context.Context, guild, channel string) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO announcement_channels (guild_id, channel_id) VALUES (?, ?)
		 ON CONFLICT (guild_id) DO UPDATE SET channel_id = excluded.channel_id`,
		guild, channel)
	if err != nil {
		return fmt.Errorf("set announcement channel for %s: %w", guild, err)
	}
	return nil
}

// Remove stops announcements for the guild. It reports whether a channel
// was registered.
func (a *Announcements) Remove(ctx context.Context, guild string) (bool, error) {
	res, err := a.db.ExecContext(ctx, `DELETE FROM announcement_channels WHERE guild_id = ?`, guild)
	if err != nil {
		return false, fmt.Errorf("remove announcement channel for %s: %w", guild, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// List returns every announcement channel ordered by guild.
func (a *Announcements) List(ctx context.Context) ([]AnnouncementChannel, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT guild_id, channel_id FROM announcement_channels ORDER BY guild_id`)
	if err != nil {
		return nil, fmt.Errorf("list announcement channels: %w", err)
	}
	defer rows.Close()

	var out []AnnouncementChannel
	for rows.Next() {
		var c AnnouncementChannel
		if err := rows.Scan(&c.Guild, &c.Channel); err != nil {
			return nil, fmt.Errorf("scan announcement channel: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
