package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestWatchDBDir(t *testing.T) {
	dir := t.TempDir()
	watcher, wait := watchDBDir(dir)
	if watcher == nil || wait == nil {
		t.Fatal("watchDBDir returned nil for an existing directory")
	}
	t.Cleanup(func() { _ = watcher.Close() })

	msgs := make(chan tea.Msg, 1)
	go func() { msgs <- wait() }()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "state.db-wal"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-msgs:
		if _, ok := msg.(dbChangeMsg); !ok {
			t.Errorf("expected dbChangeMsg, got %T", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for dbChangeMsg")
	}
}

func TestWatchDBDirMissing(t *testing.T) {
	watcher, wait := watchDBDir(filepath.Join(t.TempDir(), "missing"))
	if watcher != nil || wait != nil {
		t.Error("expected nil watcher for a missing directory")
	}
}

func TestDBChangeTriggersRefresh(t *testing.T) {
	m := testModel()
	_, cmd := m.Update(dbChangeMsg{})
	if cmd == nil {
		t.Error("dbChangeMsg should trigger a refresh")
	}
}
