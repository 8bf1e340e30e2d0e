package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"escabot/pkg/escalator"
	"escabot/pkg/eventlog"
	"escabot/pkg/protocol"
)

func testModel() Model {
	m := newModel(dashPaths{DBPath: "/nonexistent/state.db", SocketPath: "/nonexistent/escabot.sock"})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m
}

func TestDashModel_Init(t *testing.T) {
	m := testModel()
	if cmd := m.Init(); cmd == nil {
		t.Error("expected Init() to return refresh commands, got nil")
	}
}

func TestDashModel_DataMsg(t *testing.T) {
	m := testModel()
	at := m.now().Add(-30 * time.Minute)
	updated, _ := m.Update(dataMsg{
		statuses: []eventlog.StatusRow{{Floors: escalator.Floors{Start: 4, End: 2}, Status: escalator.Down, LastUpdate: at}},
		events: []eventlog.Event{{
			ID: 1, Type: protocol.EventReport, Source: "ana",
			Escalators: []string{"4-2"}, Status: "DOWN", CreatedAt: at,
		}},
		pending: 3,
	})
	m = updated.(Model)

	if m.pending != 3 || len(m.events) != 1 {
		t.Fatalf("model not updated: pending=%d events=%d", m.pending, len(m.events))
	}
	view := m.View()
	for _, want := range []string{"4-2", "DOWN", "30m", "ana", "Outbox: 3"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}

func TestDashModel_ErrorKeepsLastStatuses(t *testing.T) {
	m := testModel()
	rows := []eventlog.StatusRow{{Floors: escalator.Floors{Start: 4, End: 2}, Status: escalator.Blocked}}
	updated, _ := m.Update(dataMsg{statuses: rows})
	updated, _ = updated.Update(dataMsg{err: errors.New("database not found")})
	m = updated.(Model)

	if len(m.statuses) != 1 {
		t.Error("statuses dropped on a failed refresh")
	}
	if !strings.Contains(m.View(), "database not found") {
		t.Error("error not shown")
	}
}

func TestDashModel_Gist(t *testing.T) {
	m := testModel()
	if !strings.Contains(m.renderStatusBar(), "offline") {
		t.Error("expected offline before the first gist")
	}
	updated, _ := m.Update(gistMsg{text: "ALL escalators are OPEN", online: true})
	m = updated.(Model)
	if !strings.Contains(m.renderStatusBar(), "online") {
		t.Error("expected online after a gist")
	}
	if !strings.Contains(m.View(), "ALL escalators are OPEN") {
		t.Error("gist not rendered")
	}
}

func TestDashModel_Keys(t *testing.T) {
	m := testModel()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not produce QuitMsg")
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	if !updated.(Model).help.ShowAll {
		t.Error("? should expand help")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil {
		t.Error("r should refresh")
	}
}

func TestDashModel_WindowSize(t *testing.T) {
	m := testModel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(Model)
	if m.history.Width != 120 || m.history.Height < 3 {
		t.Errorf("history pane = %dx%d", m.history.Width, m.history.Height)
	}
}
