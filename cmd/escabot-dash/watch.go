package main

import (
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// dbChangeMsg is sent when the state database directory changes.
type dbChangeMsg struct{}

// debounceDuration collapses the burst of writes one save or report makes.
const debounceDuration = 150 * time.Millisecond

// watchDBDir watches the directory holding the state database. It returns nil
// when watching is impossible; the dashboard then relies on polling.
func watchDBDir(dir string) (*fsnotify.Watcher, tea.Cmd) {
	if _, err := os.Stat(dir); err != nil {
		return nil, nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("fsnotify: create watcher: %v (polling only)", err)
		return nil, nil
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		log.Printf("fsnotify: watch %s: %v (polling only)", dir, err)
		return nil, nil
	}
	return watcher, waitForChange(watcher)
}

// waitForChange blocks until a debounced change arrives. The model re-issues
// it after every dbChangeMsg.
func waitForChange(watcher *fsnotify.Watcher) tea.Cmd {
	return func() tea.Msg {
		timer := time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}
		defer timer.Stop()

		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				timer.Reset(debounceDuration)
			case <-timer.C:
				return dbChangeMsg{}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				log.Printf("fsnotify: watcher error: %v", err)
				return nil
			}
		}
	}
}
