// Package eventlog provides read-only access to the escabot SQLite database:
// the update history written by the daemon and the last saved statuses. It
// backs `escabot logs` and escabot-dash.
package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"escabot/pkg/escalator"
	"escabot/pkg/protocol"

	_ "modernc.org/sqlite" // SQLite driver
)

// Event represents a single row of the update history.
type Event struct {
	ID         int64
	Type       string // protocol.EventReport or protocol.EventOutdated
	Source     string // reporter, "anonymous", or "sweeper"
	Escalators []string
	Status     string
	Kind       string
	ReportID   string
	Payload    string
	CreatedAt  time.Time
}

// QueryOpts specifies filter criteria for querying events.
type QueryOpts struct {
	// EventType filters to a specific event type ("report", "outdated")
	EventType string

	// Source filters to one reporter
	Source string

	// Escalator filters to events touching this escalator, e.g. "4-2"
	Escalator string

	// After filters events created after this time (inclusive)
	After *time.Time

	// Before filters events created before this time (inclusive)
	Before *time.Time

	// Limit restricts the number of results (0 = no limit)
	Limit int
}

// Reader provides read-only access to the escabot database.
type Reader struct {
	db *sql.DB
}

// NewReader opens the database in read-only mode with WAL.
// Returns an error if the database doesn't exist or cannot be opened.
func NewReader(dbPath string) (*Reader, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("database not found: %w", err)
	}

	// Read-only so the daemon is never blocked
	dsn := fmt.Sprintf("file:%s?mode=ro&_journal_mode=WAL", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Reader{db: db}, nil
}

// Close releases the database connection.
// Safe to call multiple times.
func (r *Reader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Query retrieves events matching the given filter criteria, newest first.
// Returns an empty slice if no events match.
func (r *Reader) Query(ctx context.Context, opts QueryOpts) ([]Event, error) {
	query, args := buildQuery(opts)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e                               Event
			escalators                      string
			status, kind, reportID, payload sql.NullString
			createdAtStr                    string
		)

		err := rows.Scan(&e.ID, &e.Type, &e.Source, &escalators, &status, &kind, &reportID, &payload, &createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if escalators != "" {
			e.Escalators = strings.Split(escalators, ",")
		}
		e.Status, e.Kind, e.ReportID, e.Payload = status.String, kind.String, reportID.String, payload.String

		if createdAtStr != "" {
			parsedTime, err := time.Parse(protocol.TimeLayout, createdAtStr)
			if err != nil {
				parsedTime, err = time.Parse(time.RFC3339, createdAtStr)
				if err != nil {
					return nil, fmt.Errorf("parse created_at: %w", err)
				}
			}
			e.CreatedAt = parsedTime
		}

		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

// buildQuery constructs the SQL query and arguments from QueryOpts.
func buildQuery(opts QueryOpts) (string, []any) {
	var conditions []string
	var args []any

	query := "SELECT id, type, source, escalators, status, kind, report_id, payload, created_at FROM events WHERE 1=1"

	if opts.EventType != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, opts.EventType)
	}

	if opts.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, opts.Source)
	}

	// Match whole list items in the comma-separated column
	if opts.Escalator != "" {
		conditions = append(conditions, "(',' || escalators || ',') LIKE ?")
		args = append(args, "%,"+opts.Escalator+",%")
	}

	if opts.After != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, opts.After.UTC().Format(protocol.TimeLayout))
	}

	if opts.Before != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, opts.Before.UTC().Format(protocol.TimeLayout))
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY id DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	return query, args
}

// StatusRow is one escalator's last saved status.
type StatusRow struct {
	Floors     escalator.Floors
	Status     escalator.Status
	LastUpdate time.Time
}

// Statuses returns the last saved statuses in saved order. The daemon saves
// on its autosave interval, so this can trail the live state briefly.
func (r *Reader) Statuses(ctx context.Context) ([]StatusRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT floor_start, floor_end, status, last_update FROM escalators ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query statuses: %w", err)
	}
	defer rows.Close()

	var out []StatusRow
	for rows.Next() {
		var (
			row        StatusRow
			status     sql.NullString
			lastUpdate string
		)
		if err := rows.Scan(&row.Floors.Start, &row.Floors.End, &status, &lastUpdate); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		if status.Valid {
			if row.Status, err = escalator.ParseStatus(status.String); err != nil {
				return nil, err
			}
		}
		if t, err := time.Parse(time.RFC3339Nano, lastUpdate); err == nil {
			row.LastUpdate = t
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// PendingOutbox counts chat messages not yet delivered by the bridge.
func (r *Reader) PendingOutbox(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outbox WHERE status = 'pending'`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count outbox: %w", err)
	}
	return n, nil
}
