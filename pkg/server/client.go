package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"escabot/pkg/protocol"
)

// ErrNotRunning is returned by Send when nothing listens on the socket.
var ErrNotRunning = errors.New("escabot is not running")

// Send delivers one request to the daemon at socketPath and returns its
// response. A response with OK false is returned as is, not as an error.
func Send(ctx context.Context, socketPath string, req protocol.Request) (protocol.Response, error) {
	data, err := req.Encode()
	if err != nil {
		return protocol.Response{}, err
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("connect to %s: %w: %w", socketPath, ErrNotRunning, err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(10 * time.Second))
	}

	if _, err := conn.Write(data); err != nil {
		return protocol.Response{}, fmt.Errorf("send %s request: %w", req.Type, err)
	}

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return protocol.Response{}, fmt.Errorf("read response: %w", err)
		}
		return protocol.Response{}, errors.New("no response received")
	}
	var resp protocol.Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return protocol.Response{}, fmt.Errorf("unmarshal response: %w", err)
	}
	return resp, nil
}
