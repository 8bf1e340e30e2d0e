package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"

	"escabot/pkg/eventlog"
)

// pollInterval is the refresh period when no file change arrives sooner.
const pollInterval = 5 * time.Second

// tickMsg triggers the periodic refresh.
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the Bubble Tea model for escabot-dash.
type Model struct {
	paths   dashPaths
	theme   Theme
	keys    keyMap
	help    help.Model
	history viewport.Model
	watcher *fsnotify.Watcher
	now     func() time.Time

	statuses []eventlog.StatusRow
	events   []eventlog.Event
	pending  int
	gist     string
	online   bool
	err      error

	width  int
	height int
}

func newModel(paths dashPaths) Model {
	return Model{
		paths:   paths,
		theme:   DefaultTheme(),
		keys:    defaultKeyMap(),
		help:    help.New(),
		history: viewport.New(80, 10),
		now:     time.Now,
	}
}

func (m Model) refresh() tea.Cmd {
	return tea.Batch(fetchDataCmd(m.paths.DBPath), fetchGistCmd(m.paths.SocketPath))
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), tickCmd(), m.startWatch())
}

// startWatch hands the watcher to Update so later waits reuse it.
func (m Model) startWatch() tea.Cmd {
	return func() tea.Msg {
		w, wait := watchDBDir(filepath.Dir(m.paths.DBPath))
		if w == nil {
			return nil
		}
		return watchStartedMsg{watcher: w, wait: wait}
	}
}

type watchStartedMsg struct {
	watcher *fsnotify.Watcher
	wait    tea.Cmd
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.history.Width = msg.Width
		m.history.Height = max(3, msg.Height-m.fixedHeight())

	case dataMsg:
		m.err = msg.err
		if msg.statuses != nil {
			m.statuses = msg.statuses
		}
		m.events = msg.events
		m.pending = msg.pending
		m.history.SetContent(renderHistory(m.theme, m.events))

	case gistMsg:
		m.online = msg.online
		m.gist = msg.text

	case watchStartedMsg:
		m.watcher = msg.watcher
		return m, msg.wait

	case dbChangeMsg:
		var wait tea.Cmd
		if m.watcher != nil {
			wait = waitForChange(m.watcher)
		}
		return m, tea.Batch(m.refresh(), wait)

	case tickMsg:
		return m, tea.Batch(m.refresh(), tickCmd())
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.watcher != nil {
			_ = m.watcher.Close()
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()
	case key.Matches(msg, m.keys.Up):
		m.history.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.history.LineDown(1)
		return m, nil
	}
	return m, nil
}

// fixedHeight is the number of lines above and below the history pane.
func (m Model) fixedHeight() int {
	return lipgloss.Height(m.renderTop()) + 3
}

// View implements tea.Model.
func (m Model) View() string {
	sectionTitle := lipgloss.NewStyle().Bold(true).Foreground(m.theme.Primary)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTop(),
		sectionTitle.Render("History"),
		m.history.View(),
		m.help.View(m.keys),
	)
}

func (m Model) renderTop() string {
	sectionTitle := lipgloss.NewStyle().Bold(true).Foreground(m.theme.Primary).MarginTop(1)
	parts := []string{
		m.renderStatusBar(),
		sectionTitle.Render("Escalators"),
		renderGrid(m.theme, m.statuses, m.now()),
	}
	if m.gist != "" {
		parts = append(parts, sectionTitle.Render("Gist"), m.gist)
	}
	if m.err != nil {
		parts = append(parts, lipgloss.NewStyle().Foreground(m.theme.Down).Render("error: "+m.err.Error()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderStatusBar shows daemon reachability and the outbox backlog.
func (m Model) renderStatusBar() string {
	var daemon string
	if m.online {
		daemon = lipgloss.NewStyle().Foreground(m.theme.Open).Render("daemon: online")
	} else {
		daemon = lipgloss.NewStyle().Foreground(m.theme.Down).Render("daemon: offline")
	}
	return lipgloss.JoinHorizontal(lipgloss.Left,
		daemon,
		" | Outbox: ",
		lipgloss.NewStyle().Foreground(m.theme.Unknown).Render(fmt.Sprintf("%d", m.pending)),
		" | Events: ",
		lipgloss.NewStyle().Foreground(m.theme.Primary).Render(fmt.Sprintf("%d", len(m.events))),
	)
}
