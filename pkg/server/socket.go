package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"
)

// probeTimeout bounds the check for a daemon already owning the socket.
const probeTimeout = time.Second

// listenSocket binds the control socket with owner-only permissions. A socket
// file left behind by a crashed daemon is replaced; one that still accepts
// connections belongs to a running daemon and is left alone.
func listenSocket(ctx context.Context, path string) (net.Listener, error) {
	if _, err := os.Stat(path); err == nil {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		conn, dialErr := (&net.Dialer{}).DialContext(probeCtx, "unix", path)
		cancel()
		if dialErr == nil {
			_ = conn.Close()
			return nil, fmt.Errorf("another escabot is already running on %s", path)
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat socket %s: %w", path, err)
	}

	ln, err := (&net.ListenConfig{}).Listen(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen unix %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("chmod socket %s: %w", path, err)
	}
	return ln, nil
}
