package server //nolint:testpackage // white-box tests reach listenSocket

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"escabot/pkg/bus"
	"escabot/pkg/chat"
	"escabot/pkg/escalator"
	"escabot/pkg/protocol"
	"escabot/pkg/store"
	"escabot/pkg/tasks"
	"escabot/pkg/tracker"

	_ "modernc.org/sqlite"
)

// shortSockPath returns a short /tmp socket path safe for macOS (108 char limit).
func shortSockPath(t *testing.T, name string) string {
	t.Helper()
	p := fmt.Sprintf("/tmp/escabot-%s-%d.sock", name, time.Now().UnixNano())
	t.Cleanup(func() { _ = os.Remove(p) })
	return p
}

type postRecorder struct {
	mu    sync.Mutex
	posts []string
}

func (p *postRecorder) Post(_ context.Context, channel string, _ chat.Message) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.posts = append(p.posts, channel)
	return fmt.Sprintf("m-%d", len(p.posts)), nil
}

func (p *postRecorder) Edit(context.Context, string, string, chat.Message) error { return nil }

func (p *postRecorder) Direct(context.Context, string, chat.Message) error { return nil }

type harness struct {
	srv    *Server
	engine *tracker.Engine
	buses  *bus.Registry
	store  *store.Store
	msgr   *postRecorder
	now    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Apply(context.Background(), db); err != nil {
		t.Fatal(err)
	}
	st := store.New(db)

	h := &harness{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), store: st, msgr: &postRecorder{}}
	h.buses = bus.NewRegistry(8)
	t.Cleanup(h.buses.Close)
	h.engine = tracker.New(tracker.Config{Now: func() time.Time { return h.now }}, bus.SenderOf[tracker.Update](h.buses))
	h.srv = New(Config{
		Engine:    h.engine,
		Buses:     h.buses,
		Menus:     st.Menus,
		Messenger: h.msgr,
		Now:       func() time.Time { return h.now },
	})
	return h
}

func TestHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("ping", func(t *testing.T) {
		h := newHarness(t)
		if resp := h.srv.Handle(ctx, protocol.Request{Type: protocol.ReqPing}); !resp.OK {
			t.Errorf("ping = %+v", resp)
		}
	})

	t.Run("invalid request", func(t *testing.T) {
		h := newHarness(t)
		resp := h.srv.Handle(ctx, protocol.Request{Type: protocol.ReqReport})
		if resp.OK || resp.Error == "" {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("report", func(t *testing.T) {
		h := newHarness(t)
		resp := h.srv.Handle(ctx, protocol.Request{
			Type:   protocol.ReqReport,
			Report: &protocol.ReportPayload{Reporter: "ana", Escalators: "7/9", Status: "down"},
		})
		if !resp.OK || resp.Kind != tracker.Normal.String() {
			t.Fatalf("resp = %+v", resp)
		}
		if strings.Join(resp.Affected, ",") != "7-9,9-7" {
			t.Errorf("Affected = %v", resp.Affected)
		}
		rec, _ := h.engine.Record(escalator.Floors{Start: 9, End: 7})
		if rec.Status != escalator.Down {
			t.Errorf("9-7 = %v", rec.Status)
		}
	})

	t.Run("report rejects bad input", func(t *testing.T) {
		h := newHarness(t)
		for _, p := range []protocol.ReportPayload{
			{Escalators: "4-4", Status: "DOWN"},
			{Escalators: "4-2", Status: "SIDEWAYS"},
		} {
			resp := h.srv.Handle(ctx, protocol.Request{Type: protocol.ReqReport, Report: &p})
			if resp.OK {
				t.Errorf("%+v accepted", p)
			}
		}
	})

	t.Run("gist and menu", func(t *testing.T) {
		h := newHarness(t)
		h.engine.Report(tracker.NewReport("", escalator.All(), escalator.Open))
		gist := h.srv.Handle(ctx, protocol.Request{Type: protocol.ReqGist})
		if !gist.OK || !strings.Contains(gist.Text, "`ALL` escalators are `OPEN`") {
			t.Errorf("gist = %+v", gist)
		}
		menu := h.srv.Handle(ctx, protocol.Request{Type: protocol.ReqMenu})
		if !menu.OK || !strings.HasPrefix(menu.Text, "**Escalator Statuses:**") {
			t.Errorf("menu = %+v", menu)
		}
	})

	t.Run("sweep", func(t *testing.T) {
		h := newHarness(t)
		h.engine.Report(tracker.NewReport("", escalator.Direct(4, 2), escalator.Down))
		h.now = h.now.Add(3 * time.Hour)
		resp := h.srv.Handle(ctx, protocol.Request{Type: protocol.ReqSweep})
		if !resp.OK || len(resp.Affected) != 1 || resp.Affected[0] != "4-2" {
			t.Errorf("sweep = %+v", resp)
		}
	})

	t.Run("interact without listener", func(t *testing.T) {
		h := newHarness(t)
		resp := h.srv.Handle(ctx, protocol.Request{
			Type:        protocol.ReqInteract,
			Interaction: &protocol.InteractionPayload{User: "ana", Component: protocol.ComponentCancel},
		})
		if resp.OK || !strings.Contains(resp.Error, "not running") {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("interact reaches the report menu", func(t *testing.T) {
		h := newHarness(t)
		rx := bus.ReceiverOf[tasks.InteractionEvent](h.buses)
		defer rx.Close()
		resp := h.srv.Handle(ctx, protocol.Request{
			Type:        protocol.ReqInteract,
			Interaction: &protocol.InteractionPayload{User: "ana", Component: protocol.ComponentEscalator, Value: "4-2"},
		})
		if !resp.OK || resp.Delivered != 1 {
			t.Fatalf("resp = %+v", resp)
		}
		ev, err := rx.TryRecv()
		if err != nil {
			t.Fatal(err)
		}
		if ev.User != "ana" || ev.Value != "4-2" || !ev.At.Equal(h.now) {
			t.Errorf("event = %+v", ev)
		}
	})

	t.Run("menu init and clear", func(t *testing.T) {
		h := newHarness(t)
		posted := h.srv.Handle(ctx, protocol.Request{Type: protocol.ReqMenuInit, Menu: &protocol.MenuPayload{Guild: "g1", Channel: "c1"}})
		if !posted.OK || posted.MessageID != "m-1" {
			t.Fatalf("init = %+v", posted)
		}
		menus, err := h.store.Menus.List(ctx)
		if err != nil || len(menus) != 1 || menus[0].MessageID != "m-1" {
			t.Fatalf("menus = %+v, %v", menus, err)
		}
		cleared := h.srv.Handle(ctx, protocol.Request{Type: protocol.ReqMenuClear, Menu: &protocol.MenuPayload{Channel: "c1"}})
		if !cleared.OK || cleared.Removed != 1 {
			t.Errorf("clear = %+v", cleared)
		}
	})
}

func TestRunAndSend(t *testing.T) {
	h := newHarness(t)
	h.srv.cfg.SocketPath = shortSockPath(t, "run")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.srv.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for h.srv.Addr() == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.srv.Addr() == nil {
		t.Fatal("server did not start")
	}

	info, err := os.Stat(h.srv.cfg.SocketPath)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("socket mode = %o, want 600", perm)
	}

	resp, err := Send(ctx, h.srv.cfg.SocketPath, protocol.Request{
		Type:   protocol.ReqReport,
		Report: &protocol.ReportPayload{Escalators: "all", Status: "BLOCKED"},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !resp.OK || len(resp.Affected) != 14 {
		t.Errorf("resp = %+v", resp)
	}

	bad, err := Send(ctx, h.srv.cfg.SocketPath, protocol.Request{Type: "dance"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if bad.OK {
		t.Error("unknown request type accepted")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run = %v", err)
	}
	if _, err := os.Stat(h.srv.cfg.SocketPath); !os.IsNotExist(err) {
		t.Error("socket file left behind")
	}

	if _, err := Send(context.Background(), h.srv.cfg.SocketPath, protocol.Request{Type: protocol.ReqPing}); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Send after shutdown = %v, want ErrNotRunning", err)
	}
}

func TestListenSocket(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh path", func(t *testing.T) {
		path := shortSockPath(t, "fresh")
		ln, err := listenSocket(ctx, path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer ln.Close()
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("socket mode = %v, want 0600", info.Mode().Perm())
		}
	})

	t.Run("stale file is replaced", func(t *testing.T) {
		path := shortSockPath(t, "stale")
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatal(err)
		}
		ln, err := listenSocket(ctx, path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ln.Close()
	})

	t.Run("live socket is kept", func(t *testing.T) {
		path := shortSockPath(t, "live")
		ln, err := net.Listen("unix", path)
		if err != nil {
			t.Fatal(err)
		}
		defer ln.Close()
		if _, err := listenSocket(ctx, path); err == nil {
			t.Error("expected error for a live socket")
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("live socket removed: %v", err)
		}
	})
}
