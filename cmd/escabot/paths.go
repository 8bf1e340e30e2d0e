package main

import (
	"fmt"
	"os"
	"path/filepath"

	"escabot/pkg/protocol"
)

// Paths holds all resolved escabot state file paths.
// Use ResolvePaths() to populate this struct with defaults + env overrides.
type Paths struct {
	Home       string // ~/.escabot or ESCABOT_HOME
	PIDPath    string // escabot.pid or ESCABOT_PID_PATH
	SocketPath string // escabot.sock or ESCABOT_SOCKET_PATH
	DBPath     string // state.db or ESCABOT_DB_PATH
	ConfigPath string // escabot.yaml or ESCABOT_CONFIG
}

// ResolvePaths returns all escabot paths, respecting env var overrides.
// Environment variables:
//   - ESCABOT_HOME: base directory for all state (default: ~/.escabot)
//   - ESCABOT_PID_PATH: daemon PID file (default: $ESCABOT_HOME/escabot.pid)
//   - ESCABOT_SOCKET_PATH: control socket (default: $ESCABOT_HOME/escabot.sock)
//   - ESCABOT_DB_PATH: state database (default: $ESCABOT_HOME/state.db)
//   - ESCABOT_CONFIG: configuration file (default: $ESCABOT_HOME/escabot.yaml)
func ResolvePaths() (*Paths, error) {
	home, err := resolveHome()
	if err != nil {
		return nil, err
	}

	return &Paths{
		Home:       home,
		PIDPath:    resolvePathWithEnv("ESCABOT_PID_PATH", home, "escabot.pid"),
		SocketPath: resolvePathWithEnv("ESCABOT_SOCKET_PATH", home, "escabot.sock"),
		DBPath:     resolvePathWithEnv("ESCABOT_DB_PATH", home, "state.db"),
		ConfigPath: resolvePathWithEnv("ESCABOT_CONFIG", home, protocol.ConfigFile),
	}, nil
}

func resolveHome() (string, error) {
	if v := os.Getenv("ESCABOT_HOME"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, protocol.HomeDir), nil
}

// resolvePathWithEnv returns the path from envKey if set, otherwise joins base + suffix.
func resolvePathWithEnv(envKey, base, suffix string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return filepath.Join(base, suffix)
}
