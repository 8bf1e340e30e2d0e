package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"escabot/pkg/protocol"

	_ "modernc.org/sqlite"
)

func setupOutbox(t *testing.T) *Outbox {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Exec(protocol.SchemaDDL); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return NewOutbox(db)
}

func TestRGB(t *testing.T) {
	if got := RGB(240, 60, 60); got != 0xF03C3C {
		t.Errorf("RGB = %#x", got)
	}
}

func TestMessageText(t *testing.T) {
	msg := Message{
		Title:       "Here's the gist...",
		Description: "all good",
		Fields:      []Field{{Name: "Recent reports", Value: "one"}},
	}
	want := "Here's the gist...\n\nall good\n\nRecent reports\none"
	if got := msg.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
	if (Message{Content: "hi"}).HasEmbed() {
		t.Error("plain content reported as embed")
	}
}

func TestOutbox(t *testing.T) {
	ctx := context.Background()
	o := setupOutbox(t)

	id, err := o.Post(ctx, "c1", Message{Title: "menu"})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if id == "" {
		t.Fatal("Post returned empty id")
	}
	if err := o.Edit(ctx, "c1", id, Message{Title: "menu v2"}); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if err := o.Direct(ctx, "u1", Message{Content: "alert"}); err != nil {
		t.Fatalf("Direct: %v", err)
	}

	pending, err := o.Pending(ctx, 0)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("got %d pending, want 3", len(pending))
	}
	if pending[0].Action != ActionPost || pending[1].Action != ActionEdit || pending[2].Action != ActionDirect {
		t.Errorf("actions out of order: %+v", pending)
	}
	if pending[1].MessageID != id || pending[1].Message.Title != "menu v2" {
		t.Errorf("edit entry = %+v", pending[1])
	}

	if err := o.MarkSent(ctx, pending[0].ID); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if err := o.MarkSent(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("MarkSent(missing) = %v", err)
	}
	rest, err := o.Pending(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 1 || rest[0].Action != ActionEdit {
		t.Errorf("after MarkSent got %+v", rest)
	}
}

type recorded struct {
	method string
	path   string
	query  string
	body   webhookPayload
}

func newWebhookServer(t *testing.T, status int) (*httptest.Server, *[]recorded, *sync.Mutex) {
	t.Helper()
	var mu sync.Mutex
	var got []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var p webhookPayload
		_ = json.Unmarshal(data, &p)
		mu.Lock()
		got = append(got, recorded{r.Method, r.URL.Path, r.URL.RawQuery, p})
		mu.Unlock()
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = io.WriteString(w, `{"id":"m-42"}`)
		} else {
			_, _ = io.WriteString(w, `{"message":"Unknown Webhook"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &got, &mu
}

type fallback struct {
	posts   []string
	directs []string
}

func (f *fallback) Post(_ context.Context, channel string, _ Message) (string, error) {
	f.posts = append(f.posts, channel)
	return "fb-1", nil
}

func (f *fallback) Edit(_ context.Context, channel, _ string, _ Message) error {
	f.posts = append(f.posts, channel)
	return nil
}

func (f *fallback) Direct(_ context.Context, user string, _ Message) error {
	f.directs = append(f.directs, user)
	return nil
}

func TestWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("post and edit", func(t *testing.T) {
		srv, got, mu := newWebhookServer(t, http.StatusOK)
		w := &Webhook{URLs: map[string]string{"c1": srv.URL + "/api/webhooks/1/tok"}, Client: srv.Client()}

		at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		id, err := w.Post(ctx, "c1", Message{Title: "gist", Color: 7, Timestamp: at})
		if err != nil {
			t.Fatalf("Post: %v", err)
		}
		if id != "m-42" {
			t.Errorf("id = %q", id)
		}
		if err := w.Edit(ctx, "c1", id, Message{Content: "menu"}); err != nil {
			t.Fatalf("Edit: %v", err)
		}

		mu.Lock()
		defer mu.Unlock()
		if len(*got) != 2 {
			t.Fatalf("got %d requests", len(*got))
		}
		post, edit := (*got)[0], (*got)[1]
		if post.method != http.MethodPost || post.query != "wait=true" {
			t.Errorf("post = %+v", post)
		}
		if len(post.body.Embeds) != 1 || post.body.Embeds[0].Timestamp != "2024-03-01T12:00:00Z" {
			t.Errorf("post embeds = %+v", post.body.Embeds)
		}
		if edit.method != http.MethodPatch || !strings.HasSuffix(edit.path, "/messages/m-42") {
			t.Errorf("edit = %+v", edit)
		}
		if edit.body.Content != "menu" || len(edit.body.Embeds) != 0 {
			t.Errorf("edit body = %+v", edit.body)
		}
	})

	t.Run("api error", func(t *testing.T) {
		srv, _, _ := newWebhookServer(t, http.StatusNotFound)
		w := &Webhook{URLs: map[string]string{"c1": srv.URL}, Client: srv.Client()}
		_, err := w.Post(ctx, "c1", Message{Content: "x"})
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
			t.Fatalf("err = %v, want APIError 404", err)
		}
	})

	t.Run("fallback", func(t *testing.T) {
		fb := &fallback{}
		w := &Webhook{Fallback: fb}
		id, err := w.Post(ctx, "c9", Message{Content: "x"})
		if err != nil || id != "fb-1" {
			t.Errorf("Post = %q, %v", id, err)
		}
		if err := w.Direct(ctx, "u1", Message{Content: "x"}); err != nil {
			t.Errorf("Direct: %v", err)
		}
		if len(fb.posts) != 1 || len(fb.directs) != 1 {
			t.Errorf("fallback saw %+v", fb)
		}
	})

	t.Run("no route", func(t *testing.T) {
		w := &Webhook{}
		if _, err := w.Post(ctx, "c1", Message{}); !errors.Is(err, ErrNoRoute) {
			t.Errorf("Post = %v", err)
		}
		if err := w.Direct(ctx, "u1", Message{}); !errors.Is(err, ErrNoRoute) {
			t.Errorf("Direct = %v", err)
		}
	})
}
