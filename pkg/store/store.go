// Package store persists escabot state in SQLite: escalator statuses,
// watchlists, announcement channels, status menus, update history, and the
// chat outbox.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"escabot/pkg/protocol"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database at path with WAL journaling and a 5-second
// busy timeout, applies the schema, and verifies the connection.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	ctx := context.Background()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode on %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout on %s: %w", path, err)
	}

	if err := Apply(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Apply creates any missing tables.
func Apply(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, protocol.SchemaDDL); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Store groups the repositories sharing one database.
type Store struct {
	DB            *sql.DB
	Statuses      *Statuses
	Watchlists    *Watchlists
	Announcements *Announcements
	Menus         *Menus
	Events        *EventLog
	Meta          *Meta
}

// New wraps an open database whose schema has been applied.
func New(db *sql.DB) *Store {
	return &Store{
		DB:            db,
		Statuses:      &Statuses{db: db},
		Watchlists:    &Watchlists{db: db},
		Announcements: &Announcements{db: db},
		Menus:         &Menus{db: db},
		Events:        &EventLog{db: db},
		Meta:          &Meta{db: db},
	}
}

// OpenStore opens the database at path and wraps it.
func OpenStore(path string) (*Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.DB.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(protocol.TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
