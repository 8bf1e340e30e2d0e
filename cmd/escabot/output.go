package main

import (
	"io"
	"os"

	"escabot/pkg/escalator"
	"escabot/pkg/protocol"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// colorFor decides whether output to w is coloured: only terminals get
// colour, and NO_COLOR always wins.
func colorFor(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// palette renders CLI highlights, plain when colour is off.
type palette struct {
	on bool
}

func newPalette(w io.Writer) palette {
	return palette{on: colorFor(w)}
}

func (p palette) paint(c *color.Color, s string) string {
	if !p.on {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

func (p palette) status(s escalator.Status) string {
	var c *color.Color
	switch s {
	case escalator.Open:
		c = color.New(color.FgHiGreen)
	case escalator.Down:
		c = color.New(color.FgRed)
	case escalator.Blocked:
		c = color.New(color.FgHiMagenta)
	default:
		c = color.New(color.FgYellow)
	}
	return p.paint(c, s.ID())
}

func (p palette) eventType(typ string) string {
	switch typ {
	case protocol.EventReport:
		return p.paint(color.New(color.FgCyan), typ)
	case protocol.EventOutdated:
		return p.paint(color.New(color.FgYellow), typ)
	default:
		return typ
	}
}

func (p palette) dim(s string) string {
	return p.paint(color.New(color.FgHiBlack), s)
}

func (p palette) bold(s string) string {
	return p.paint(color.New(color.Bold), s)
}
