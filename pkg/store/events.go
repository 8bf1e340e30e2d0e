package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"escabot/pkg/escalator"
	"escabot/pkg/protocol"
	"escabot/pkg/tracker"
)

// EventLog appends published updates to the events table.
type EventLog struct {
	db *sql.DB
}

// Append records one update.
func (l *EventLog) Append(ctx context.Context, u tracker.Update) error {
	var (
		evType, source, status, kind, reportID, payload string
		floors                                          []escalator.Floors
	)
	switch u.Kind {
	case tracker.UpdateReport:
		r := u.Report
		evType = protocol.EventReport
		source = r.Reporter
		if source == "" {
			source = "anonymous"
		}
		status = r.Status.ID()
		kind = u.Reported.String()
		reportID = r.ID.String()
		floors = r.Affected
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		payload = string(data)
	case tracker.UpdateOutdated:
		evType = protocol.EventOutdated
		source = protocol.SourceSweeper
		status = escalator.Unknown.ID()
		floors = []escalator.Floors{u.Escalator}
	default:
		return fmt.Errorf("log event: unknown update kind %d", u.Kind)
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO events (type, source, escalators, status, kind, report_id, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		evType, source, joinFloors(floors), status, nullable(kind), nullable(reportID), nullable(payload),
		u.At.UTC().Format(protocol.TimeLayout))
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

func joinFloors(floors []escalator.Floors) string {
	parts := make([]string, len(floors))
	for i, f := range floors {
		parts[i] = f.String()
	}
	return strings.Join(parts, ",")
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
