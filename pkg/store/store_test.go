package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"escabot/pkg/escalator"
	"escabot/pkg/tracker"
)

// setupTestStore returns a store backed by a fresh in-memory database.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	if err := Apply(context.Background(), db); err != nil {
		t.Fatal(err)
	}
	return New(db)
}

var (
	f42 = escalator.Floors{Start: 4, End: 2}
	f24 = escalator.Floors{Start: 2, End: 4}
	f79 = escalator.Floors{Start: 7, End: 9}
)

func TestOpenFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer s.Close()

	var mode string
	if err := s.DB.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestStatusesRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	if _, err := s.Statuses.LoadSnapshot(ctx); !errors.Is(err, tracker.ErrNoSnapshot) {
		t.Fatalf("empty table: err = %v, want ErrNoSnapshot", err)
	}

	now := time.Date(2024, 2, 3, 4, 5, 6, 789, time.UTC)
	snap := tracker.DefaultSnapshot(escalator.Default(), now)
	snap.Entries[0].Status = escalator.Unknown
	snap.Entries[0].LastUpdate = tracker.Epoch
	snap.Entries[4].Status = escalator.Blocked

	if err := s.Statuses.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	// Saving twice replaces rather than duplicates.
	if err := s.Statuses.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("second SaveSnapshot: %v", err)
	}

	got, err := s.Statuses.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if len(got.Entries) != len(snap.Entries) {
		t.Fatalf("loaded %d entries, want %d", len(got.Entries), len(snap.Entries))
	}
	for i := range snap.Entries {
		want, have := snap.Entries[i], got.Entries[i]
		if want.Floors != have.Floors || want.Status != have.Status || !want.LastUpdate.Equal(have.LastUpdate) {
			t.Errorf("entry %d = %+v, want %+v", i, have, want)
		}
	}

	var nulls int
	if err := s.DB.QueryRow(`SELECT COUNT(*) FROM escalators WHERE status IS NULL`).Scan(&nulls); err != nil {
		t.Fatal(err)
	}
	if nulls != 1 {
		t.Errorf("unknown statuses stored as NULL: got %d rows, want 1", nulls)
	}
}

func TestEngineWithStatuses(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	e := tracker.New(tracker.Config{}, nil)
	if err := e.Load(ctx, s.Statuses); !errors.Is(err, tracker.ErrNoSnapshot) {
		t.Fatalf("Load err = %v", err)
	}
	e.Report(tracker.NewReport("", escalator.Pair(4, 2), escalator.Down))
	if saved, err := e.Save(ctx, s.Statuses); err != nil || !saved {
		t.Fatalf("Save = %v, %v", saved, err)
	}

	other := tracker.New(tracker.Config{}, nil)
	if err := other.Load(ctx, s.Statuses); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec, _ := other.Record(f42); rec.Status != escalator.Down {
		t.Errorf("4-2 = %v, want Down", rec.Status)
	}
}

func TestWatchlists(t *testing.T) {
	ctx := context.Background()
	w := setupTestStore(t).Watchlists

	n, err := w.Add(ctx, "ana", f42, f24, f42)
	if err != nil || n != 2 {
		t.Fatalf("Add = %d, %v; want 2 new", n, err)
	}
	if _, err := w.Add(ctx, "ben", f79); err != nil {
		t.Fatal(err)
	}

	list, err := w.List(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(list, []escalator.Floors{f24, f42}) {
		t.Errorf("List = %v", list)
	}

	watchers, err := w.Watchers(ctx, []escalator.Floors{f42, f79})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(watchers, []string{"ana", "ben"}) {
		t.Errorf("Watchers = %v", watchers)
	}
	if none, _ := w.Watchers(ctx, nil); none != nil {
		t.Errorf("Watchers(nil) = %v", none)
	}

	if n, _ := w.Remove(ctx, "ana", f42, f79); n != 1 {
		t.Errorf("Remove = %d, want 1", n)
	}
	if err := w.Replace(ctx, "ana", []escalator.Floors{f79}); err != nil {
		t.Fatal(err)
	}
	if list, _ := w.List(ctx, "ana"); !slices.Equal(list, []escalator.Floors{f79}) {
		t.Errorf("after Replace: %v", list)
	}
	if err := w.Replace(ctx, "ana", nil); err != nil {
		t.Fatal(err)
	}
	if list, _ := w.List(ctx, "ana"); len(list) != 0 {
		t.Errorf("empty Replace left %v", list)
	}
	if n, _ := w.Clear(ctx, "ben"); n != 1 {
		t.Errorf("Clear = %d, want 1", n)
	}
}

func TestAnnouncements(t *testing.T) {
	ctx := context.Background()
	a := setupTestStore(t).Announcements

	if err := a.Set(ctx, "g1", "c1"); err != nil {
		t.Fatal(err)
	}
	if err := a.Set(ctx, "g1", "c2"); err != nil {
		t.Fatal(err)
	}
	if err := a.Set(ctx, "g0", "c9"); err != nil {
		t.Fatal(err)
	}
	list, err := a.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []AnnouncementChannel{{"g0", "c9"}, {"g1", "c2"}}
	if !slices.Equal(list, want) {
		t.Errorf("List = %v, want %v", list, want)
	}
	if ok, _ := a.Remove(ctx, "g1"); !ok {
		t.Error("Remove(g1) = false")
	}
	if ok, _ := a.Remove(ctx, "g1"); ok {
		t.Error("second Remove(g1) = true")
	}
}

func TestMenus(t *testing.T) {
	ctx := context.Background()
	m := setupTestStore(t).Menus

	for _, msg := range []MenuMessage{
		{Guild: "g", Channel: "c1", MessageID: "m1"},
		{Guild: "g", Channel: "c1", MessageID: "m2"},
		{Guild: "g", Channel: "c2", MessageID: "m3"},
	} {
		if err := m.Add(ctx, msg); err != nil {
			t.Fatal(err)
		}
	}
	if list, _ := m.List(ctx); len(list) != 3 {
		t.Fatalf("List has %d menus", len(list))
	}
	if n, _ := m.RemoveChannel(ctx, "c1"); n != 2 {
		t.Errorf("RemoveChannel = %d, want 2", n)
	}
	list, _ := m.List(ctx)
	if len(list) != 1 || list[0].MessageID != "m3" {
		t.Errorf("List = %+v", list)
	}
}

func TestEventLogAppend(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	r := tracker.NewReport("ana", escalator.Pair(4, 2), escalator.Down)
	r.Affected = []escalator.Floors{f42, f24}
	r.At = at
	if err := s.Events.Append(ctx, tracker.ReportUpdate(r, tracker.Normal)); err != nil {
		t.Fatal(err)
	}
	if err := s.Events.Append(ctx, tracker.OutdatedUpdate(f79, at.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}
	if err := s.Events.Append(ctx, tracker.Update{}); err == nil {
		t.Error("expected error for empty update")
	}

	rows, err := s.DB.Query(`SELECT type, source, escalators, status, created_at FROM events ORDER BY id`)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	type row struct{ typ, source, escalators, status, created string }
	var got []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.typ, &r.source, &r.escalators, &r.status, &r.created); err != nil {
			t.Fatal(err)
		}
		got = append(got, r)
	}
	want := []row{
		{"report", "ana", "4-2,2-4", "DOWN", "2024-06-01 10:00:00"},
		{"outdated", "sweeper", "7-9", "UNKNOWN", "2024-06-01 11:00:00"},
	}
	if !slices.Equal(got, want) {
		t.Errorf("events = %+v\nwant %+v", got, want)
	}
}

func TestFileSnapshotsAndMigration(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snap", "statuses.cbor")
	files := NewFileSnapshots(path)

	if _, err := files.LoadSnapshot(ctx); !errors.Is(err, tracker.ErrNoSnapshot) {
		t.Fatalf("missing file: err = %v", err)
	}

	s := setupTestStore(t)
	if moved, err := s.MigrateFile(ctx, files); err != nil || moved {
		t.Fatalf("migrate without file = %v, %v", moved, err)
	}

	snap := tracker.DefaultSnapshot(escalator.Default(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	snap.Entries[2].Status = escalator.Down
	if err := files.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	back, err := files.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if back.Entries[2].Status != escalator.Down || len(back.Entries) != 14 {
		t.Errorf("file round trip = %+v", back.Entries[2])
	}

	moved, err := s.MigrateFile(ctx, files)
	if err != nil || !moved {
		t.Fatalf("MigrateFile = %v, %v", moved, err)
	}
	fromDB, err := s.Statuses.LoadSnapshot(ctx)
	if err != nil || fromDB.Entries[2].Status != escalator.Down {
		t.Errorf("migrated snapshot = %+v, %v", fromDB.Entries[2], err)
	}
	if moved, _ := s.MigrateFile(ctx, files); moved {
		t.Error("migration ran twice")
	}
}
