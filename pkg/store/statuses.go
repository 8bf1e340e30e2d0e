package store

import (
	"context"
	"database/sql"
	"fmt"

	"escabot/pkg/escalator"
	"escabot/pkg/tracker"
)

// Statuses persists engine snapshots in the escalators table. It implements
// tracker.Persister.
type Statuses struct {
	db *sql.DB
}

var _ tracker.Persister = (*Statuses)(nil)

// LoadSnapshot returns the saved statuses in their saved order, or
// tracker.ErrNoSnapshot if nothing has been saved.
func (s *Statuses) LoadSnapshot(ctx context.Context) (tracker.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT floor_start, floor_end, status, last_update FROM escalators ORDER BY position`)
	if err != nil {
		return tracker.Snapshot{}, fmt.Errorf("query statuses: %w", err)
	}
	defer rows.Close()

	var snap tracker.Snapshot
	for rows.Next() {
		var (
			e          tracker.Entry
			status     sql.NullString
			lastUpdate string
		)
		if err := rows.Scan(&e.Floors.Start, &e.Floors.End, &status, &lastUpdate); err != nil {
			return tracker.Snapshot{}, fmt.Errorf("scan status: %w", err)
		}
		if status.Valid {
			if e.Status, err = escalator.ParseStatus(status.String); err != nil {
				return tracker.Snapshot{}, fmt.Errorf("escalator %s: %w", e.Floors, err)
			}
		}
		if e.LastUpdate, err = parseTime(lastUpdate); err != nil {
			return tracker.Snapshot{}, fmt.Errorf("escalator %s: %w", e.Floors, err)
		}
		snap.Entries = append(snap.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return tracker.Snapshot{}, fmt.Errorf("iterate statuses: %w", err)
	}
	if len(snap.Entries) == 0 {
		return tracker.Snapshot{}, tracker.ErrNoSnapshot
	}
	return snap, nil
}

// SaveSnapshot replaces every saved status with snap in one transaction.
func (s *Statuses) SaveSnapshot(ctx context.Context, snap tracker.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM escalators`); err != nil {
		return fmt.Errorf("clear statuses: %w", err)
	}
	for i, e := range snap.Entries {
		var status sql.NullString
		if e.Status.Known() {
			status = sql.NullString{String: e.Status.ID(), Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO escalators (floor_start, floor_end, position, status, last_update) VALUES (?, ?, ?, ?, ?)`,
			e.Floors.Start, e.Floors.End, i, status, formatTime(e.LastUpdate))
		if err != nil {
			return fmt.Errorf("save escalator %s: %w", e.Floors, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}
