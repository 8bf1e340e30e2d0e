package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"escabot/pkg/bus"
	"escabot/pkg/chat"
	"escabot/pkg/store"
	"escabot/pkg/tracker"

	_ "modernc.org/sqlite"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

type sent struct {
	Target    string
	MessageID string
	Msg       chat.Message
}

// fakeMessenger records every message instead of delivering it.
type fakeMessenger struct {
	mu      sync.Mutex
	posts   []sent
	edits   []sent
	directs []sent
	fail    bool
}

func (f *fakeMessenger) Post(_ context.Context, channel string, msg chat.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", fmt.Errorf("post to %s: offline", channel)
	}
	id := fmt.Sprintf("m-%d", len(f.posts)+1)
	f.posts = append(f.posts, sent{Target: channel, MessageID: id, Msg: msg})
	return id, nil
}

func (f *fakeMessenger) Edit(_ context.Context, channel, messageID string, msg chat.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, sent{Target: channel, MessageID: messageID, Msg: msg})
	return nil
}

func (f *fakeMessenger) Direct(_ context.Context, user string, msg chat.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("direct to %s: offline", user)
	}
	f.directs = append(f.directs, sent{Target: user, Msg: msg})
	return nil
}

func (f *fakeMessenger) snapshot() (posts, edits, directs []sent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.posts...), append([]sent(nil), f.edits...), append([]sent(nil), f.directs...)
}

func setupStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Apply(context.Background(), db); err != nil {
		t.Fatal(err)
	}
	return store.New(db)
}

// newEngine builds an engine over the default registry publishing to a bus.
func newEngine(t *testing.T, clock *fakeClock) (*tracker.Engine, *bus.Sender[tracker.Update]) {
	t.Helper()
	tx := bus.New[tracker.Update](32)
	t.Cleanup(tx.Close)
	e := tracker.New(tracker.Config{OutdatedThreshold: time.Hour, Now: clock.Now}, tx)
	return e, tx
}

// startTask runs task in the background. The returned stop cancels it and
// returns its result; it is also called when the test ends.
func startTask(t *testing.T, task Task) (stop func() error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- task.Run(ctx) }()
	stop = sync.OnceValue(func() error {
		cancel()
		return <-done
	})
	t.Cleanup(func() { _ = stop() })
	return stop
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
