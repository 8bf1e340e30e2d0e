// Package tracker owns the live status of every escalator. Reports and
// outdated sweeps mutate it; every mutation is published on the update bus so
// alerting, announcements, and menus can react.
package tracker

import (
	"fmt"
	"time"

	"escabot/pkg/escalator"
)

// Epoch is the last-update time of a record that has never been reported.
var Epoch = time.Unix(0, 0).UTC()

// Record is the current knowledge about one escalator.
type Record struct {
	Status     escalator.Status
	LastUpdate time.Time
}

// NewRecord returns a record with no status.
func NewRecord() Record {
	return Record{Status: escalator.Unknown, LastUpdate: Epoch}
}

// Sweep clears a known status whose last update is at least threshold old.
// It reports whether the record changed.
func (r *Record) Sweep(now time.Time, threshold time.Duration) bool {
	if !r.Status.Known() {
		return false
	}
	if now.Sub(r.LastUpdate) < threshold {
		return false
	}
	r.Status = escalator.Unknown
	return true
}

// ReportKind classifies how a report relates to what was already known.
type ReportKind uint8

// Report kinds. Their numeric values carry no ordering; use Significance.
const (
	Normal ReportKind = iota + 1
	Redundant
	Rejuvenate
)

// Significance ranks kinds: Normal > Rejuvenate > Redundant.
func (k ReportKind) Significance() int {
	switch k {
	case Normal:
		return 2
	case Rejuvenate:
		return 1
	default:
		return 0
	}
}

func (k ReportKind) String() string {
	switch k {
	case Normal:
		return "normal"
	case Redundant:
		return "redundant"
	case Rejuvenate:
		return "rejuvenate"
	default:
		return fmt.Sprintf("ReportKind(%d)", uint8(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ReportKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ReportKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "normal":
		*k = Normal
	case "redundant":
		*k = Redundant
	case "rejuvenate":
		*k = Rejuvenate
	default:
		return fmt.Errorf("unknown report kind %q", b)
	}
	return nil
}

// MoreSignificant returns whichever of a and b ranks higher.
func MoreSignificant(a, b ReportKind) ReportKind {
	if b.Significance() > a.Significance() {
		return b
	}
	return a
}

// Reduce folds per-escalator kinds into one overall kind. No kinds at all
// means nothing was learned, so the result is Redundant.
func Reduce(kinds ...ReportKind) ReportKind {
	out := Redundant
	for _, k := range kinds {
		out = MoreSignificant(out, k)
	}
	return out
}

// Classify compares the status held before a report with the reported one.
func Classify(previous, incoming escalator.Status) ReportKind {
	switch {
	case previous == incoming:
		return Redundant
	case !previous.Known():
		return Rejuvenate
	default:
		return Normal
	}
}
