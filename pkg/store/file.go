package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"escabot/pkg/codec"
	"escabot/pkg/tracker"
)

// FileSnapshots persists engine snapshots as a single CBOR file. It
// implements tracker.Persister for deployments without a database.
type FileSnapshots struct {
	path string
}

var _ tracker.Persister = (*FileSnapshots)(nil)

// NewFileSnapshots stores snapshots at path.
func NewFileSnapshots(path string) *FileSnapshots {
	return &FileSnapshots{path: path}
}

// Path returns the snapshot file location.
func (f *FileSnapshots) Path() string { return f.path }

// LoadSnapshot decodes the file, or returns tracker.ErrNoSnapshot if it does
// not exist.
func (f *FileSnapshots) LoadSnapshot(_ context.Context) (tracker.Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return tracker.Snapshot{}, tracker.ErrNoSnapshot
	}
	if err != nil {
		return tracker.Snapshot{}, fmt.Errorf("read snapshot %s: %w", f.path, err)
	}
	var snap tracker.Snapshot
	if err := codec.Unmarshal(data, &snap); err != nil {
		return tracker.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", f.path, err)
	}
	return snap, nil
}

// SaveSnapshot writes the file atomically via a temporary file and rename.
func (f *FileSnapshots) SaveSnapshot(_ context.Context, snap tracker.Snapshot) error {
	data, err := codec.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace snapshot %s: %w", f.path, err)
	}
	return nil
}
