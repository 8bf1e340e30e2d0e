package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// DaemonStatusValue represents the health state of the daemon.
type DaemonStatusValue string

const (
	StatusRunning DaemonStatusValue = "running" // PID file present, process alive
	StatusStopped DaemonStatusValue = "stopped" // no PID file
	StatusStale   DaemonStatusValue = "stale"   // PID file left by a dead process
)

// pidFile is the path of the daemon's PID file.
type pidFile string

func (p pidFile) write(pid int) error {
	if err := os.WriteFile(string(p), []byte(strconv.Itoa(pid)), 0o600); err != nil {
		return fmt.Errorf("write PID file %s: %w", p, err)
	}
	return nil
}

func (p pidFile) read() (int, error) {
	data, err := os.ReadFile(string(p)) //nolint:gosec // PID file path is controlled by the application
	if err != nil {
		return 0, fmt.Errorf("read PID file %s: %w", p, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse PID from %s: %w", p, err)
	}
	return pid, nil
}

// remove deletes the file; a missing file is not an error.
func (p pidFile) remove() error {
	if err := os.Remove(string(p)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove PID file %s: %w", p, err)
	}
	return nil
}

// status reports whether the recorded daemon is alive, and its PID.
func (p pidFile) status() (DaemonStatusValue, int, error) {
	pid, err := p.read()
	if errors.Is(err, os.ErrNotExist) {
		return StatusStopped, 0, nil
	}
	if err != nil {
		return StatusStopped, 0, fmt.Errorf("daemon status: %w", err)
	}
	if processAlive(pid) {
		return StatusRunning, pid, nil
	}
	return StatusStale, pid, nil
}

// claim records this process as the daemon unless another live one already is.
func (p pidFile) claim() error {
	status, pid, err := p.status()
	if err != nil {
		return err
	}
	if status == StatusRunning && pid != os.Getpid() {
		return fmt.Errorf("escabot is already running (PID %d)", pid)
	}
	return p.write(os.Getpid())
}

// processAlive sends signal 0, which checks for existence without signaling.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// stopDaemon sends SIGTERM and waits for the process to exit, so that its
// final save has finished when this returns.
func stopDaemon(ctx context.Context, pid int, poll time.Duration) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("send SIGTERM to PID %d: %w", pid, err)
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for processAlive(pid) {
		select {
		case <-ctx.Done():
			return fmt.Errorf("escabot (PID %d) still running: %w", pid, ctx.Err())
		case <-ticker.C:
		}
	}
	return nil
}

// shutdownOnSignal cancels the returned context on SIGTERM or SIGINT. The
// release function removes the PID file; callers should defer it.
func shutdownOnSignal(parent context.Context, pid pidFile) (ctx context.Context, release func()) {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
	return ctx, func() {
		stop()
		_ = pid.remove()
	}
}
