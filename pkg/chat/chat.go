// Package chat delivers rendered messages to the chat platform.
//
// The bot never talks to a gateway directly. A Messenger posts to channels,
// edits previously posted messages, and sends direct messages; Outbox queues
// those actions in SQLite for a bridge process, and Webhook delivers channel
// posts straight to Discord webhooks.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNoRoute is returned when a message has nowhere to go.
var ErrNoRoute = errors.New("no route for message")

// Messenger sends messages to the chat platform.
type Messenger interface {
	// Post sends msg to channel and returns the new message's ID.
	Post(ctx context.Context, channel string, msg Message) (string, error)
	// Edit replaces the contents of a message posted earlier.
	Edit(ctx context.Context, channel, messageID string, msg Message) error
	// Direct sends msg privately to user.
	Direct(ctx context.Context, user string, msg Message) error
}

// Field is a titled block below an embed's description.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Message is a chat message: plain content, an embed, or both.
type Message struct {
	Content     string    `json:"content,omitempty"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Color       int       `json:"color,omitempty"`
	Fields      []Field   `json:"fields,omitempty"`
	Timestamp   time.Time `json:"timestamp,omitzero"`
}

// RGB packs a colour the way embeds expect it.
func RGB(r, g, b uint8) int {
	return int(r)<<16 | int(g)<<8 | int(b)
}

// HasEmbed reports whether any embed part is set.
func (m Message) HasEmbed() bool {
	return m.Title != "" || m.Description != "" || len(m.Fields) > 0
}

// Text flattens the message for terminals and logs.
func (m Message) Text() string {
	var parts []string
	if m.Content != "" {
		parts = append(parts, m.Content)
	}
	if m.Title != "" {
		parts = append(parts, m.Title)
	}
	if m.Description != "" {
		parts = append(parts, m.Description)
	}
	for _, f := range m.Fields {
		parts = append(parts, f.Name+"\n"+f.Value)
	}
	return strings.Join(parts, "\n\n")
}
