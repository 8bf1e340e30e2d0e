// Package main implements escabot-dash, a live terminal view of escalator
// statuses and the update history.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"escabot/pkg/protocol"
)

// dashPaths locates the daemon's database and control socket.
type dashPaths struct {
	DBPath     string
	SocketPath string
}

// resolveDashPaths mirrors escabot's ESCABOT_* overrides.
func resolveDashPaths() (dashPaths, error) {
	home := os.Getenv("ESCABOT_HOME")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return dashPaths{}, fmt.Errorf("get home dir: %w", err)
		}
		home = filepath.Join(userHome, protocol.HomeDir)
	}
	p := dashPaths{
		DBPath:     filepath.Join(home, "state.db"),
		SocketPath: filepath.Join(home, "escabot.sock"),
	}
	if v := os.Getenv("ESCABOT_DB_PATH"); v != "" {
		p.DBPath = v
	}
	if v := os.Getenv("ESCABOT_SOCKET_PATH"); v != "" {
		p.SocketPath = v
	}
	return p, nil
}

func main() {
	paths, err := resolveDashPaths()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	p := tea.NewProgram(newModel(paths), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running dashboard: %v\n", err)
		os.Exit(1)
	}
}
