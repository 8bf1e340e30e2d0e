package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Outbox actions.
const (
	ActionPost   = "post"
	ActionEdit   = "edit"
	ActionDirect = "direct"
)

// OutboxEntry is one queued action.
type OutboxEntry struct {
	ID        string  `json:"id"`
	Action    string  `json:"action"`
	Target    string  `json:"target"`               // channel or user
	MessageID string  `json:"message_id,omitempty"` // edits only
	Message   Message `json:"message"`
}

// Outbox queues messages in the outbox table for a gateway bridge. Post
// returns the queued row's ID; the bridge maps it to the real message when it
// delivers, so later edits can name it.
type Outbox struct {
	db *sql.DB
}

var _ Messenger = (*Outbox)(nil)

// NewOutbox wraps a database with the schema applied.
func NewOutbox(db *sql.DB) *Outbox {
	return &Outbox{db: db}
}

func (o *Outbox) enqueue(ctx context.Context, action, target, messageID string, msg Message) (string, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}
	id := uuid.NewString()
	var ref sql.NullString
	if messageID != "" {
		ref = sql.NullString{String: messageID, Valid: true}
	}
	_, err = o.db.ExecContext(ctx,
		`INSERT INTO outbox (id, action, target, message_id, payload) VALUES (?, ?, ?, ?, ?)`,
		id, action, target, ref, string(payload))
	if err != nil {
		return "", fmt.Errorf("queue %s to %s: %w", action, target, err)
	}
	return id, nil
}

// Post queues a channel message.
func (o *Outbox) Post(ctx context.Context, channel string, msg Message) (string, error) {
	return o.enqueue(ctx, ActionPost, channel, "", msg)
}

// Edit queues an edit of an earlier message.
func (o *Outbox) Edit(ctx context.Context, channel, messageID string, msg Message) error {
	_, err := o.enqueue(ctx, ActionEdit, channel, messageID, msg)
	return err
}

// Direct queues a direct message.
func (o *Outbox) Direct(ctx context.Context, user string, msg Message) error {
	_, err := o.enqueue(ctx, ActionDirect, user, "", msg)
	return err
}

// Pending returns up to limit undelivered entries, oldest first. A limit of
// zero or less means no limit.
func (o *Outbox) Pending(ctx context.Context, limit int) ([]OutboxEntry, error) {
	query := `SELECT id, action, target, COALESCE(message_id, ''), payload
		FROM outbox WHERE status = 'pending' ORDER BY created_at, rowid`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := o.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var out []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		var payload string
		if err := rows.Scan(&e.ID, &e.Action, &e.Target, &e.MessageID, &payload); err != nil {
			return nil, fmt.Errorf("scan outbox: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &e.Message); err != nil {
			return nil, fmt.Errorf("decode outbox %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkSent records that the bridge delivered an entry.
func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	res, err := o.db.ExecContext(ctx, `UPDATE outbox SET status = 'sent' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark %s sent: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark %s sent: %w", id, sql.ErrNoRows)
	}
	return nil
}
