package main

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"escabot/pkg/eventlog"
	"escabot/pkg/protocol"
	"escabot/pkg/server"
)

// historyLimit caps how many events the history pane loads.
const historyLimit = 50

// fetchTimeout bounds one round of database and socket reads.
const fetchTimeout = 2 * time.Second

// dataMsg carries what was read from the state database.
type dataMsg struct {
	statuses []eventlog.StatusRow
	events   []eventlog.Event // newest first
	pending  int
	err      error
}

// gistMsg carries the daemon's live gist. online is false when the daemon
// did not answer.
type gistMsg struct {
	text   string
	online bool
}

// fetchData reads saved statuses, recent history, and the outbox backlog.
func fetchData(ctx context.Context, dbPath string) dataMsg {
	reader, err := eventlog.NewReader(dbPath)
	if err != nil {
		return dataMsg{err: err}
	}
	defer func() { _ = reader.Close() }()

	var msg dataMsg
	var errs []error
	if msg.statuses, err = reader.Statuses(ctx); err != nil {
		errs = append(errs, err)
	}
	if msg.events, err = reader.Query(ctx, eventlog.QueryOpts{Limit: historyLimit}); err != nil {
		errs = append(errs, err)
	}
	if msg.pending, err = reader.PendingOutbox(ctx); err != nil {
		errs = append(errs, err)
	}
	msg.err = errors.Join(errs...)
	return msg
}

func fetchDataCmd(dbPath string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		return fetchData(ctx, dbPath)
	}
}

// fetchGist asks the daemon for its current gist.
func fetchGist(ctx context.Context, socketPath string) gistMsg {
	resp, err := server.Send(ctx, socketPath, protocol.Request{Type: protocol.ReqGist})
	if err != nil || !resp.OK {
		return gistMsg{}
	}
	return gistMsg{text: resp.Text, online: true}
}

func fetchGistCmd(socketPath string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		return fetchGist(ctx, socketPath)
	}
}
