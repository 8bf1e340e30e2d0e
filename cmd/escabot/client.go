package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"escabot/pkg/protocol"
	"escabot/pkg/server"
)

// requestTimeout bounds a single control-socket round trip.
const requestTimeout = 10 * time.Second

// sendRequest delivers req to the running daemon. A refused request comes
// back as an error carrying the daemon's message.
func sendRequest(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	paths, err := ResolvePaths()
	if err != nil {
		return protocol.Response{}, fmt.Errorf("resolve paths: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := server.Send(ctx, paths.SocketPath, req)
	if err != nil {
		if errors.Is(err, server.ErrNotRunning) {
			return resp, fmt.Errorf("%w (start it with `escabot serve`)", server.ErrNotRunning)
		}
		return resp, err
	}
	if !resp.OK {
		return resp, errors.New(resp.Error)
	}
	return resp, nil
}
