package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxErrorBody caps how much of a failed response is kept in an APIError.
const maxErrorBody = 512

// APIError is a non-2xx reply from the webhook endpoint.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("webhook: HTTP %d: %s", e.Status, e.Body)
}

// Webhook posts channel messages through Discord webhooks. Channels without a
// configured webhook, and all direct messages, go to Fallback.
type Webhook struct {
	URLs     map[string]string // channel ID -> webhook URL
	Client   *http.Client
	Fallback Messenger
}

var _ Messenger = (*Webhook)(nil)

type embed struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Color       int     `json:"color,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

type webhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []embed `json:"embeds,omitempty"`
}

func payloadFor(msg Message) webhookPayload {
	p := webhookPayload{Content: msg.Content}
	if msg.HasEmbed() {
		e := embed{
			Title:       msg.Title,
			Description: msg.Description,
			Color:       msg.Color,
			Fields:      msg.Fields,
		}
		if !msg.Timestamp.IsZero() {
			e.Timestamp = msg.Timestamp.UTC().Format(time.RFC3339)
		}
		p.Embeds = []embed{e}
	}
	return p
}

func (w *Webhook) client() *http.Client {
	if w.Client != nil {
		return w.Client
	}
	return http.DefaultClient
}

// Post executes the channel's webhook and returns the created message's ID.
func (w *Webhook) Post(ctx context.Context, channel string, msg Message) (string, error) {
	url, ok := w.URLs[channel]
	if !ok {
		if w.Fallback == nil {
			return "", fmt.Errorf("post to %s: %w", channel, ErrNoRoute)
		}
		return w.Fallback.Post(ctx, channel, msg)
	}

	body, err := w.do(ctx, http.MethodPost, withWait(url), payloadFor(msg))
	if err != nil {
		return "", fmt.Errorf("post to %s: %w", channel, err)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("post to %s: decode reply: %w", channel, err)
	}
	return created.ID, nil
}

// Edit patches a message the channel's webhook created.
func (w *Webhook) Edit(ctx context.Context, channel, messageID string, msg Message) error {
	url, ok := w.URLs[channel]
	if !ok {
		if w.Fallback == nil {
			return fmt.Errorf("edit %s in %s: %w", messageID, channel, ErrNoRoute)
		}
		return w.Fallback.Edit(ctx, channel, messageID, msg)
	}
	if _, err := w.do(ctx, http.MethodPatch, strings.TrimRight(url, "/")+"/messages/"+messageID, payloadFor(msg)); err != nil {
		return fmt.Errorf("edit %s in %s: %w", messageID, channel, err)
	}
	return nil
}

// Direct always goes to the fallback; webhooks cannot reach users.
func (w *Webhook) Direct(ctx context.Context, user string, msg Message) error {
	if w.Fallback == nil {
		return fmt.Errorf("direct to %s: %w", user, ErrNoRoute)
	}
	return w.Fallback.Direct(ctx, user, msg)
}

func (w *Webhook) do(ctx context.Context, method, url string, payload webhookPayload) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func withWait(url string) string {
	if strings.Contains(url, "?") {
		return url + "&wait=true"
	}
	return url + "?wait=true"
}
