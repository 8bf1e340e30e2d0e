package tracker

import (
	"time"

	"escabot/pkg/escalator"

	"github.com/google/uuid"
)

// UserReport is one status report. Affected is filled in by the engine with
// the escalators the report actually touched. Reports are not modified after
// they are published.
type UserReport struct {
	ID       uuid.UUID          `json:"id"`
	Reporter string             `json:"reporter,omitempty"` // empty when unknown
	Input    escalator.Input    `json:"input"`
	Status   escalator.Status   `json:"status"`
	Affected []escalator.Floors `json:"affected,omitempty"`
	At       time.Time          `json:"at"`
}

// NewReport builds an anonymous-or-attributed report with a fresh ID.
func NewReport(reporter string, in escalator.Input, status escalator.Status) UserReport {
	return UserReport{
		ID:       uuid.New(),
		Reporter: reporter,
		Input:    in,
		Status:   status,
	}
}

// UpdateKind tags an Update.
type UpdateKind uint8

// Update kinds.
const (
	UpdateReport UpdateKind = iota + 1
	UpdateOutdated
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateReport:
		return "report"
	case UpdateOutdated:
		return "outdated"
	default:
		return "unknown"
	}
}

// Update is a change notification published on the bus: either a processed
// report with its overall kind, or a single escalator whose status expired.
type Update struct {
	Kind      UpdateKind
	Report    *UserReport      // UpdateReport
	Reported  ReportKind       // UpdateReport
	Escalator escalator.Floors // UpdateOutdated
	At        time.Time
}

// ReportUpdate wraps a processed report.
func ReportUpdate(r UserReport, kind ReportKind) Update {
	return Update{Kind: UpdateReport, Report: &r, Reported: kind, At: r.At}
}

// OutdatedUpdate marks one escalator's status as expired.
func OutdatedUpdate(f escalator.Floors, at time.Time) Update {
	return Update{Kind: UpdateOutdated, Escalator: f, At: at}
}
