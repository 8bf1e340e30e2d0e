// Package server exposes the running bot on a Unix domain socket. Each
// connection carries one line-delimited JSON request and gets one response.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"escabot/pkg/bus"
	"escabot/pkg/chat"
	"escabot/pkg/escalator"
	"escabot/pkg/protocol"
	"escabot/pkg/render"
	"escabot/pkg/store"
	"escabot/pkg/tasks"
	"escabot/pkg/tracker"
)

// MenuStore records posted status menus.
type MenuStore interface {
	Add(ctx context.Context, msg store.MenuMessage) error
	RemoveChannel(ctx context.Context, channel string) (int, error)
}

// Config holds Server configuration.
type Config struct {
	SocketPath string
	Engine     *tracker.Engine
	Buses      *bus.Registry // carries tasks.InteractionEvent to the report menu
	Menus      MenuStore
	Messenger  chat.Messenger
	Logger     *slog.Logger
	Now        func() time.Time
}

// Server answers control requests against a live engine.
type Server struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// New creates a server. Call Run to start listening.
func New(cfg Config) *Server {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{cfg: cfg, logger: logger}
}

// Addr returns the listening address, or nil before Run has bound it.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run listens on the socket until ctx is cancelled, then closes the listener
// and removes the socket file.
func (s *Server) Run(ctx context.Context) error {
	ln, err := listenSocket(ctx, s.cfg.SocketPath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.logger.Info("control socket listening", "path", s.cfg.SocketPath)

	go s.acceptLoop(ctx, ln)

	<-ctx.Done()
	_ = ln.Close()
	_ = os.Remove(s.cfg.SocketPath)
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

// handleConn reads one request, answers it, and closes the connection.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		return
	}

	var resp protocol.Response
	var req protocol.Request
	if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
		resp = fail(fmt.Errorf("decode request: %w", err))
	} else {
		resp = s.Handle(ctx, req)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	_, _ = conn.Write(append(data, '\n'))
}

// Handle answers a single request.
func (s *Server) Handle(ctx context.Context, req protocol.Request) protocol.Response {
	if err := req.Validate(); err != nil {
		return fail(err)
	}
	s.logger.Debug("request", "type", string(req.Type))

	switch req.Type {
	case protocol.ReqPing:
		return protocol.Response{OK: true, Text: "pong"}
	case protocol.ReqReport:
		return s.handleReport(req.Report)
	case protocol.ReqInteract:
		return s.handleInteract(req.Interaction)
	case protocol.ReqGist:
		return protocol.Response{OK: true, Text: render.Gist(s.cfg.Engine.Summary()).Text()}
	case protocol.ReqMenu:
		return protocol.Response{OK: true, Text: render.Menu(s.cfg.Engine.MenuRows())}
	case protocol.ReqSweep:
		return protocol.Response{OK: true, Affected: names(s.cfg.Engine.HandleOutdated())}
	case protocol.ReqMenuInit:
		return s.handleMenuInit(ctx, req.Menu)
	case protocol.ReqMenuClear:
		return s.handleMenuClear(ctx, req.Menu)
	default:
		return fail(fmt.Errorf("unhandled request type %q", req.Type))
	}
}

func (s *Server) handleReport(p *protocol.ReportPayload) protocol.Response {
	in, err := escalator.ParseInput(p.Escalators, s.cfg.Engine.Registry())
	if err != nil {
		return fail(err)
	}
	status, err := escalator.ParseStatus(p.Status)
	if err != nil {
		return fail(err)
	}
	report, kind := s.cfg.Engine.Report(tracker.NewReport(p.Reporter, in, status))
	return protocol.Response{
		OK:       true,
		Kind:     kind.String(),
		Affected: names(report.Affected),
		Text:     render.Alert(report),
	}
}

func (s *Server) handleInteract(p *protocol.InteractionPayload) protocol.Response {
	if s.cfg.Buses == nil {
		return fail(errors.New("report menu is not running"))
	}
	n, err := bus.TrySend(s.cfg.Buses, tasks.InteractionEvent{
		User:      p.User,
		Component: p.Component,
		Value:     p.Value,
		At:        s.cfg.Now(),
	})
	if err != nil {
		if errors.Is(err, bus.ErrNoReceivers) || errors.Is(err, bus.ErrNoChannel) {
			return fail(fmt.Errorf("report menu is not running: %w", err))
		}
		return fail(err)
	}
	return protocol.Response{OK: true, Delivered: n}
}

func (s *Server) handleMenuInit(ctx context.Context, p *protocol.MenuPayload) protocol.Response {
	if s.cfg.Messenger == nil || s.cfg.Menus == nil {
		return fail(errors.New("no chat delivery configured"))
	}
	msg := chat.Message{Content: render.Menu(s.cfg.Engine.MenuRows())}
	id, err := s.cfg.Messenger.Post(ctx, p.Channel, msg)
	if err != nil {
		return fail(err)
	}
	if err := s.cfg.Menus.Add(ctx, store.MenuMessage{Guild: p.Guild, Channel: p.Channel, MessageID: id}); err != nil {
		return fail(err)
	}
	s.logger.Info("status menu posted", "channel", p.Channel, "message", id)
	return protocol.Response{OK: true, MessageID: id}
}

func (s *Server) handleMenuClear(ctx context.Context, p *protocol.MenuPayload) protocol.Response {
	if s.cfg.Menus == nil {
		return fail(errors.New("no menu store configured"))
	}
	n, err := s.cfg.Menus.RemoveChannel(ctx, p.Channel)
	if err != nil {
		return fail(err)
	}
	return protocol.Response{OK: true, Removed: n}
}

func fail(err error) protocol.Response {
	return protocol.Response{OK: false, Error: err.Error()}
}

func names(floors []escalator.Floors) []string {
	out := make([]string, len(floors))
	for i, f := range floors {
		out[i] = f.String()
	}
	return out
}
