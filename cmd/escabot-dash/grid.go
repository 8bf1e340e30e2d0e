package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"escabot/pkg/escalator"
	"escabot/pkg/eventlog"
	"escabot/pkg/protocol"
)

// renderGrid lays the escalators out two per line, each next to its inverse.
// Escalators with no saved row show as unknown.
func renderGrid(theme Theme, rows []eventlog.StatusRow, now time.Time) string {
	byFloors := make(map[escalator.Floors]eventlog.StatusRow, len(rows))
	for _, r := range rows {
		byFloors[r.Floors] = r
	}

	cells := make([]string, 0, len(rows))
	for _, f := range escalator.Default().PairOrder() {
		row, ok := byFloors[f]
		if !ok {
			row = eventlog.StatusRow{Floors: f}
		}
		cells = append(cells, renderCell(theme, row, now))
	}

	var b strings.Builder
	for i := 0; i < len(cells); i += 2 {
		line := cells[i]
		if i+1 < len(cells) {
			line = lipgloss.JoinHorizontal(lipgloss.Top, line, "  ", cells[i+1])
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderCell(theme Theme, row eventlog.StatusRow, now time.Time) string {
	status := lipgloss.NewStyle().
		Foreground(theme.StatusColor(row.Status)).
		Width(8).
		Render(row.Status.ID())
	age := ""
	if !row.LastUpdate.IsZero() {
		age = humanAge(now.Sub(row.LastUpdate))
	}
	return fmt.Sprintf("%s %s %s %s",
		row.Status.Emoji(),
		lipgloss.NewStyle().Bold(true).Render(row.Floors.String()),
		status,
		lipgloss.NewStyle().Foreground(theme.Muted).Width(8).Render(age))
}

// humanAge renders a short relative age such as "5m" or "3h".
func humanAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// renderHistory renders events newest first, one per line.
func renderHistory(theme Theme, events []eventlog.Event) string {
	if len(events) == 0 {
		return lipgloss.NewStyle().Foreground(theme.Muted).Render("no events yet")
	}
	muted := lipgloss.NewStyle().Foreground(theme.Muted)
	var b strings.Builder
	for _, evt := range events {
		var detail string
		switch evt.Type {
		case protocol.EventReport:
			s, err := escalator.ParseStatus(evt.Status)
			if err != nil {
				detail = evt.Status
			} else {
				detail = lipgloss.NewStyle().Foreground(theme.StatusColor(s)).Render(s.ID())
			}
		case protocol.EventOutdated:
			detail = lipgloss.NewStyle().Foreground(theme.Unknown).Render("expired")
		}
		fmt.Fprintf(&b, "%s  %-10s  %-14s  %s\n",
			muted.Render(evt.CreatedAt.Local().Format("15:04:05")),
			evt.Source,
			strings.Join(evt.Escalators, ","),
			detail)
	}
	return strings.TrimRight(b.String(), "\n")
}
