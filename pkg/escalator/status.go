package escalator

import (
	"fmt"
	"strings"
)

// Status is the operational state of an escalator. The zero value, Unknown,
// means no trustworthy status is held.
type Status uint8

// Status values.
const (
	Unknown Status = iota
	Open
	Down
	Blocked
)

// Statuses lists the reportable statuses in display order.
var Statuses = []Status{Open, Down, Blocked}

// Known reports whether s carries an actual status.
func (s Status) Known() bool {
	return s == Open || s == Down || s == Blocked
}

// ID returns the canonical identifier used in storage and on the wire.
func (s Status) ID() string {
	switch s {
	case Open:
		return "OPEN"
	case Down:
		return "DOWN"
	case Blocked:
		return "BLOCKED"
	default:
		return "UNKNOWN"
	}
}

// Emoji returns the glyph shown next to escalators with this status.
func (s Status) Emoji() string {
	switch s {
	case Open:
		return "🟢"
	case Down:
		return "🔴"
	case Blocked:
		return "⛔"
	default:
		return "🟡"
	}
}

// Word returns the lowercase adjective used in sentences.
func (s Status) Word() string {
	switch s {
	case Open:
		return "open"
	case Down:
		return "down"
	case Blocked:
		return "blocked"
	default:
		return "unknown"
	}
}

func (s Status) String() string { return s.ID() }

// ParseStatus parses a status identifier, case-insensitively.
func ParseStatus(text string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "OPEN":
		return Open, nil
	case "DOWN":
		return Down, nil
	case "BLOCKED":
		return Blocked, nil
	case "UNKNOWN", "":
		return Unknown, nil
	default:
		return Unknown, fmt.Errorf("unknown status %q", text)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.ID()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
