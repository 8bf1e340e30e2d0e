package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"escabot/pkg/escalator"
)

// Watchlists stores, per user, the set of escalators they want alerts for.
type Watchlists struct {
	db *sql.DB
}

// Add puts escalators on the user's watchlist and returns how many were new.
func (w *Watchlists) Add(ctx context.Context, user string, floors ...escalator.Floors) (int, error) {
	var added int64
	for _, f := range floors {
		res, err := w.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO alerts (user_id, floor_start, floor_end) VALUES (?, ?, ?)`,
			user, f.Start, f.End)
		if err != nil {
			return int(added), fmt.Errorf("add alert %s for %s: %w", f, user, err)
		}
		n, _ := res.RowsAffected()
		added += n
	}
	return int(added), nil
}

// Remove takes escalators off the user's watchlist and returns how many were
// removed.
func (w *Watchlists) Remove(ctx context.Context, user string, floors ...escalator.Floors) (int, error) {
	var removed int64
	for _, f := range floors {
		res, err := w.db.ExecContext(ctx,
			`DELETE FROM alerts WHERE user_id = ? AND floor_start = ? AND floor_end = ?`,
			user, f.Start, f.End)
		if err != nil {
			return int(removed), fmt.Errorf("remove alert %s for %s: %w", f, user, err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	return int(removed), nil
}

// Replace sets the user's watchlist to exactly floors. An empty set removes
// the user.
func (w *Watchlists) Replace(ctx context.Context, user string, floors []escalator.Floors) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM alerts WHERE user_id = ?`, user); err != nil {
		return fmt.Errorf("clear alerts for %s: %w", user, err)
	}
	for _, f := range floors {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO alerts (user_id, floor_start, floor_end) VALUES (?, ?, ?)`,
			user, f.Start, f.End)
		if err != nil {
			return fmt.Errorf("add alert %s for %s: %w", f, user, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// Clear empties the user's watchlist and returns how many rows were removed.
func (w *Watchlists) Clear(ctx context.Context, user string) (int, error) {
	res, err := w.db.ExecContext(ctx, `DELETE FROM alerts WHERE user_id = ?`, user)
	if err != nil {
		return 0, fmt.Errorf("clear alerts for %s: %w", user, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// List returns the user's watched escalators ordered by (start, end).
func (w *Watchlists) List(ctx context.Context, user string) ([]escalator.Floors, error) {
	rows, err := w.db.QueryContext(ctx,
		`SELECT floor_start, floor_end FROM alerts WHERE user_id = ? ORDER BY floor_start, floor_end`, user)
	if err != nil {
		return nil, fmt.Errorf("list alerts for %s: %w", user, err)
	}
	defer rows.Close()

	var out []escalator.Floors
	for rows.Next() {
		var f escalator.Floors
		if err := rows.Scan(&f.Start, &f.End); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Watchers returns the distinct users watching any of the given escalators,
// sorted by user ID.
func (w *Watchlists) Watchers(ctx context.Context, floors []escalator.Floors) ([]string, error) {
	if len(floors) == 0 {
		return nil, nil
	}
	conds := make([]string, len(floors))
	args := make([]any, 0, 2*len(floors))
	for i, f := range floors {
		conds[i] = "(floor_start = ? AND floor_end = ?)"
		args = append(args, f.Start, f.End)
	}
	query := "SELECT DISTINCT user_id FROM alerts WHERE " + strings.Join(conds, " OR ") + " ORDER BY user_id"

	rows, err := w.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query watchers: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan watcher: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
