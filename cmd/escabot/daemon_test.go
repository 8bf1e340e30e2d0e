package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestPIDFile(t *testing.T) {
	pid := pidFile(filepath.Join(t.TempDir(), "escabot.pid"))

	status, n, err := pid.status()
	if err != nil || status != StatusStopped || n != 0 {
		t.Fatalf("missing file: %v %d %v", status, n, err)
	}

	if err := pid.claim(); err != nil {
		t.Fatal(err)
	}
	status, n, err = pid.status()
	if err != nil || status != StatusRunning || n != os.Getpid() {
		t.Fatalf("after claim: %v %d %v", status, n, err)
	}
	// Re-claiming from the same process is allowed.
	if err := pid.claim(); err != nil {
		t.Errorf("re-claim: %v", err)
	}

	if err := pid.remove(); err != nil {
		t.Fatal(err)
	}
	if err := pid.remove(); err != nil {
		t.Errorf("second remove: %v", err)
	}
}

func TestPIDFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "escabot.pid")
	if err := os.WriteFile(path, []byte("not-a-pid"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := pidFile(path).status(); err == nil {
		t.Error("expected status to surface the parse error")
	}
}

func TestClaimRefusesLiveDaemon(t *testing.T) {
	proc := startSleeper(t)
	pid := pidFile(filepath.Join(t.TempDir(), "escabot.pid"))
	if err := pid.write(proc.Pid); err != nil {
		t.Fatal(err)
	}
	err := pid.claim()
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Errorf("claim() = %v, want already running", err)
	}
}

func TestStopDaemonWaitsForExit(t *testing.T) {
	proc := startSleeper(t)
	exited := make(chan struct{})
	go func() {
		_, _ = proc.Wait()
		close(exited)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// The reaper goroutine collects the child, so signal-0 probes fail after exit.
	if err := stopDaemon(ctx, proc.Pid, 10*time.Millisecond); err != nil {
		t.Fatalf("stopDaemon: %v", err)
	}
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Error("process still running after stopDaemon returned")
	}
}

func TestStopWhenNotRunning(t *testing.T) {
	isolate(t)
	out, _, err := executeCommand("stop")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "not running") {
		t.Errorf("stop output = %q", out)
	}
}

func startSleeper(t *testing.T) *os.Process {
	t.Helper()
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start sleep: %v", err)
	}
	t.Cleanup(func() { _ = cmd.Process.Kill() })
	return cmd.Process
}
