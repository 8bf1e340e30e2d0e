package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"escabot/pkg/bus"
	"escabot/pkg/escalator"

	"github.com/google/uuid"
)

// ErrNoSnapshot is returned by a Persister that has nothing saved yet.
var ErrNoSnapshot = errors.New("no saved snapshot")

// Persister stores and retrieves engine snapshots.
type Persister interface {
	LoadSnapshot(ctx context.Context) (Snapshot, error)
	SaveSnapshot(ctx context.Context, snap Snapshot) error
}

// Config holds Engine configuration.
type Config struct {
	Registry          *escalator.Registry // Known escalators (default escalator.Default()).
	OutdatedThreshold time.Duration       // Age at which a status expires (default 2h).
	Logger            *slog.Logger        // Defaults to a discarding logger.
	Now               func() time.Time    // Clock (default time.Now).
}

// DefaultOutdatedThreshold is how long a reported status stays trustworthy.
const DefaultOutdatedThreshold = 2 * time.Hour

func (c *Config) withDefaults() Config {
	out := *c
	if out.Registry == nil {
		out.Registry = escalator.Default()
	}
	if out.OutdatedThreshold <= 0 {
		out.OutdatedThreshold = DefaultOutdatedThreshold
	}
	if out.Logger == nil {
		out.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	return out
}

// Engine is the single owner of escalator records. All operations take the
// engine lock, and updates are published while it is held so subscribers see
// them in mutation order.
type Engine struct {
	registry *escalator.Registry
	logger   *slog.Logger
	updates  *bus.Sender[Update]
	nowFunc  func() time.Time

	mu        sync.Mutex
	records   []Record // indexed by registry position
	threshold time.Duration
	dirty     bool
	gen       uint64 // bumped on every persisted-state change
}

// New creates an engine whose records all start unknown. updates may be nil,
// in which case nothing is published.
func New(cfg Config, updates *bus.Sender[Update]) *Engine {
	resolved := cfg.withDefaults()
	e := &Engine{
		registry:  resolved.Registry,
		logger:    resolved.Logger,
		updates:   updates,
		nowFunc:   resolved.Now,
		records:   make([]Record, resolved.Registry.Len()),
		threshold: resolved.OutdatedThreshold,
	}
	for i := range e.records {
		e.records[i] = NewRecord()
	}
	return e
}

// Registry returns the escalators the engine tracks.
func (e *Engine) Registry() *escalator.Registry { return e.registry }

func (e *Engine) markDirtyLocked() {
	e.dirty = true
	e.gen++
}

func (e *Engine) publishLocked(u Update) {
	if e.updates == nil {
		return
	}
	if _, err := e.updates.Send(u); err != nil {
		e.logger.Debug("update not delivered", "kind", u.Kind.String(), "error", err)
	}
}

// Report applies a status report to every escalator it targets. Escalators
// the registry does not know are skipped. The processed report, with Affected
// filled in, is always published, even when nothing changed.
func (e *Engine) Report(r UserReport) (UserReport, ReportKind) {
	if !r.Status.Known() {
		e.logger.Warn("ignoring report without a status", "input", r.Input.String())
		return r, Redundant
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.nowFunc()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.At.IsZero() {
		r.At = now
	}

	targets := r.Input.Targets(e.registry)
	kinds := make([]ReportKind, 0, len(targets))
	affected := make([]escalator.Floors, 0, len(targets))
	for _, f := range targets {
		i, ok := e.registry.Index(f)
		if !ok {
			e.logger.Debug("report names unknown escalator", "escalator", f.String())
			continue
		}
		rec := &e.records[i]
		kinds = append(kinds, Classify(rec.Status, r.Status))
		rec.Status = r.Status
		rec.LastUpdate = now
		affected = append(affected, f)
	}
	r.Affected = affected

	kind := Reduce(kinds...)
	e.publishLocked(ReportUpdate(r, kind))
	if kind != Redundant {
		e.markDirtyLocked()
	}
	e.logger.Info("report applied",
		"id", r.ID.String(),
		"input", r.Input.String(),
		"status", r.Status.ID(),
		"kind", kind.String(),
		"affected", len(affected))
	return r, kind
}

// HandleOutdated expires every status older than the threshold, publishing
// one update per expired escalator. It returns the expired escalators.
func (e *Engine) HandleOutdated() []escalator.Floors {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.nowFunc()
	var changed []escalator.Floors
	for i, f := range e.registry.All() {
		if e.records[i].Sweep(now, e.threshold) {
			changed = append(changed, f)
			e.publishLocked(OutdatedUpdate(f, now))
		}
	}
	if len(changed) > 0 {
		e.markDirtyLocked()
		e.logger.Info("statuses expired", "count", len(changed))
	}
	return changed
}

// Threshold returns the current outdated threshold.
func (e *Engine) Threshold() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.threshold
}

// SetThreshold changes the outdated threshold for future sweeps.
func (e *Engine) SetThreshold(d time.Duration) {
	if d <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.threshold = d
}

// Record returns the current record for f.
func (e *Engine) Record(f escalator.Floors) (Record, bool) {
	i, ok := e.registry.Index(f)
	if !ok {
		return Record{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.records[i], true
}

// Dirty reports whether there are changes not yet saved.
func (e *Engine) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// Snapshot copies the persisted state along with the generation it reflects.
func (e *Engine) Snapshot() (Snapshot, uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(), e.gen
}

func (e *Engine) snapshotLocked() Snapshot {
	all := e.registry.All()
	snap := Snapshot{Entries: make([]Entry, len(all))}
	for i, f := range all {
		snap.Entries[i] = Entry{Floors: f, Status: e.records[i].Status, LastUpdate: e.records[i].LastUpdate}
	}
	return snap
}

// MarkSaved clears the dirty flag if nothing changed since generation gen
// was snapshotted.
func (e *Engine) MarkSaved(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen == gen {
		e.dirty = false
	}
}

// Restore replaces every record from snap. Entries for unknown escalators are
// dropped; escalators missing from snap start unknown and leave the engine
// dirty so the completed state gets saved.
func (e *Engine) Restore(snap Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.records {
		e.records[i] = NewRecord()
	}
	seen := make([]bool, len(e.records))
	complete := true
	for _, entry := range snap.Entries {
		i, ok := e.registry.Index(entry.Floors)
		if !ok {
			e.logger.Warn("dropping stale escalator from snapshot", "escalator", entry.Floors.String())
			complete = false
			continue
		}
		e.records[i] = Record{Status: entry.Status, LastUpdate: entry.LastUpdate}
		seen[i] = true
	}
	for _, s := range seen {
		if !s {
			complete = false
		}
	}
	e.gen++
	e.dirty = !complete
}

// Load restores state from p. When nothing can be loaded the engine falls
// back to every escalator open as of now, marks itself dirty, and returns
// the load error for the caller to log.
func (e *Engine) Load(ctx context.Context, p Persister) error {
	snap, err := p.LoadSnapshot(ctx)
	if err != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		now := e.nowFunc()
		for i := range e.records {
			e.records[i] = Record{Status: escalator.Open, LastUpdate: now}
		}
		e.markDirtyLocked()
		return fmt.Errorf("load snapshot: %w", err)
	}
	e.Restore(snap)
	return nil
}

// Save persists the state if it has unsaved changes. It reports whether a
// save happened.
func (e *Engine) Save(ctx context.Context, p Persister) (bool, error) {
	e.mu.Lock()
	if !e.dirty {
		e.mu.Unlock()
		return false, nil
	}
	snap, gen := e.snapshotLocked(), e.gen
	e.mu.Unlock()

	if err := p.SaveSnapshot(ctx, snap); err != nil {
		return false, fmt.Errorf("save snapshot: %w", err)
	}
	e.MarkSaved(gen)
	return true, nil
}
