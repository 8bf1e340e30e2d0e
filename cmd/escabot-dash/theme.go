package main

import (
	"github.com/charmbracelet/lipgloss"

	"escabot/pkg/escalator"
)

// Theme defines the visual styling for the dashboard.
type Theme struct {
	Primary lipgloss.Color
	Open    lipgloss.Color
	Down    lipgloss.Color
	Blocked lipgloss.Color
	Unknown lipgloss.Color
	Muted   lipgloss.Color
}

// DefaultTheme returns the default dashboard theme.
func DefaultTheme() Theme {
	return Theme{
		Primary: lipgloss.Color("12"),  // Blue
		Open:    lipgloss.Color("10"),  // Green
		Down:    lipgloss.Color("9"),   // Red
		Blocked: lipgloss.Color("13"),  // Magenta
		Unknown: lipgloss.Color("11"),  // Yellow
		Muted:   lipgloss.Color("240"), // Gray
	}
}

// StatusColor picks the colour for an escalator status.
func (t Theme) StatusColor(s escalator.Status) lipgloss.Color {
	switch s {
	case escalator.Open:
		return t.Open
	case escalator.Down:
		return t.Down
	case escalator.Blocked:
		return t.Blocked
	default:
		return t.Unknown
	}
}
