package store

import (
	"context"
	"errors"
	"fmt"

	"escabot/pkg/tracker"
)

// MetaFileMigrated marks a completed import of a file snapshot.
const MetaFileMigrated = "file_snapshot_migrated"

// MigrateFile copies a file-backed snapshot into the database once. It
// reports whether anything was imported; later calls are no-ops.
func (s *Store) MigrateFile(ctx context.Context, from tracker.Persister) (bool, error) {
	done, ok, err := s.Meta.Get(ctx, MetaFileMigrated)
	if err != nil {
		return false, err
	}
	if ok && done == "true" {
		return false, nil
	}

	snap, err := from.LoadSnapshot(ctx)
	if errors.Is(err, tracker.ErrNoSnapshot) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("migrate file snapshot: %w", err)
	}
	if err := s.Statuses.SaveSnapshot(ctx, snap); err != nil {
		return false, fmt.Errorf("migrate file snapshot: %w", err)
	}
	if err := s.Meta.Set(ctx, MetaFileMigrated, "true"); err != nil {
		return false, err
	}
	return true, nil
}
