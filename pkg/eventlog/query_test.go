package eventlog_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"escabot/pkg/escalator"
	"escabot/pkg/eventlog"
	"escabot/pkg/store"
	"escabot/pkg/tracker"
)

var base = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

// setupTestDB creates a database file with a few logged updates and saved
// statuses.
func setupTestDB(t *testing.T) string {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "state.db")
	s, err := store.OpenStore(dbPath)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	report := func(who string, in escalator.Input, st escalator.Status, at time.Time) tracker.Update {
		r := tracker.NewReport(who, in, st)
		r.Affected = in.Targets(escalator.Default())
		r.At = at
		return tracker.ReportUpdate(r, tracker.Normal)
	}
	updates := []tracker.Update{
		report("ana", escalator.Direct(4, 2), escalator.Down, base),
		report("ben", escalator.Pair(7, 9), escalator.Blocked, base.Add(time.Minute)),
		tracker.OutdatedUpdate(escalator.Floors{Start: 4, End: 2}, base.Add(2*time.Hour)),
		report("ana", escalator.Direct(2, 4), escalator.Open, base.Add(3*time.Hour)),
	}
	for _, u := range updates {
		if err := s.Events.Append(ctx, u); err != nil {
			t.Fatalf("failed to insert test event: %v", err)
		}
	}

	snap := tracker.DefaultSnapshot(escalator.Default(), base)
	snap.Entries[1].Status = escalator.Down
	if err := s.Statuses.SaveSnapshot(ctx, snap); err != nil {
		t.Fatal(err)
	}
	return dbPath
}

func TestNewReader_MissingDB(t *testing.T) {
	reader, err := eventlog.NewReader("/nonexistent/path.db")
	if err == nil {
		reader.Close()
		t.Fatal("expected error for missing database")
	}
}

func TestQuery(t *testing.T) {
	reader, err := eventlog.NewReader(setupTestDB(t))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()
	ctx := context.Background()

	t.Run("all events newest first", func(t *testing.T) {
		events, err := reader.Query(ctx, eventlog.QueryOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != 4 {
			t.Fatalf("got %d events, want 4", len(events))
		}
		if events[0].Source != "ana" || events[0].Escalators[0] != "2-4" {
			t.Errorf("newest event = %+v", events[0])
		}
		if !events[3].CreatedAt.Equal(base) {
			t.Errorf("oldest CreatedAt = %v, want %v", events[3].CreatedAt, base)
		}
	})

	t.Run("filter by type", func(t *testing.T) {
		events, err := reader.Query(ctx, eventlog.QueryOpts{EventType: "outdated"})
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != 1 || events[0].Source != "sweeper" || events[0].Status != "UNKNOWN" {
			t.Errorf("events = %+v", events)
		}
	})

	t.Run("filter by escalator matches whole items", func(t *testing.T) {
		events, err := reader.Query(ctx, eventlog.QueryOpts{Escalator: "4-2"})
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != 2 {
			t.Errorf("got %d events for 4-2, want 2", len(events))
		}
		events, _ = reader.Query(ctx, eventlog.QueryOpts{Escalator: "9-7"})
		if len(events) != 1 || events[0].Kind != "normal" {
			t.Errorf("9-7 events = %+v", events)
		}
	})

	t.Run("time window and limit", func(t *testing.T) {
		after := base.Add(30 * time.Second)
		before := base.Add(150 * time.Minute)
		events, err := reader.Query(ctx, eventlog.QueryOpts{After: &after, Before: &before})
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != 2 {
			t.Errorf("got %d events in window, want 2", len(events))
		}
		events, _ = reader.Query(ctx, eventlog.QueryOpts{Source: "ana", Limit: 1})
		if len(events) != 1 || events[0].Escalators[0] != "2-4" {
			t.Errorf("limited events = %+v", events)
		}
	})
}

func TestStatuses(t *testing.T) {
	reader, err := eventlog.NewReader(setupTestDB(t))
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	rows, err := reader.Statuses(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 14 {
		t.Fatalf("got %d rows, want 14", len(rows))
	}
	if rows[1].Floors != (escalator.Floors{Start: 2, End: 4}) || rows[1].Status != escalator.Down {
		t.Errorf("rows[1] = %+v", rows[1])
	}
	if !rows[0].LastUpdate.Equal(base) {
		t.Errorf("LastUpdate = %v", rows[0].LastUpdate)
	}
}
