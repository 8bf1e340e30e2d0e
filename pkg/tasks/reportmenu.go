package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"escabot/pkg/bus"
	"escabot/pkg/chat"
	"escabot/pkg/escalator"
	"escabot/pkg/protocol"
	"escabot/pkg/render"
	"escabot/pkg/tracker"
)

// DefaultReportTimeout bounds how long a report menu waits between steps.
const DefaultReportTimeout = 90 * time.Second

// InteractionEvent is one click or selection in the report menu.
type InteractionEvent struct {
	User      string
	Component string // one of the protocol.Component* IDs
	Value     string
	At        time.Time
}

// Reporter applies finished reports.
type Reporter interface {
	Registry() *escalator.Registry
	Report(r tracker.UserReport) (tracker.UserReport, tracker.ReportKind)
}

type reportSession struct {
	input   escalator.Input
	touched time.Time
}

// ReportMenu collects reports step by step: the user first picks
// escalators, then a status. Each user has at most one open session.
// Sessions idle longer than Timeout, or cancelled, are dropped without
// reporting anything.
type ReportMenu struct {
	Events    *bus.Receiver[InteractionEvent]
	Engine    Reporter
	Messenger chat.Messenger // optional; confirms finished reports
	Timeout   time.Duration
	Logger    *slog.Logger

	sessions map[string]*reportSession
}

// Name implements Task.
func (m *ReportMenu) Name() string { return "report-menu" }

// Run implements Task.
func (m *ReportMenu) Run(ctx context.Context) error {
	logger := orDiscard(m.Logger)
	m.sessions = make(map[string]*reportSession)
	return consume(ctx, logger, m.Name(), m.Events, func(ctx context.Context, ev InteractionEvent) error {
		return m.handle(ctx, logger, ev)
	}, nil)
}

func (m *ReportMenu) timeout() time.Duration {
	if m.Timeout <= 0 {
		return DefaultReportTimeout
	}
	return m.Timeout
}

func (m *ReportMenu) expire(now time.Time, logger *slog.Logger) {
	for user, s := range m.sessions {
		if now.Sub(s.touched) > m.timeout() {
			delete(m.sessions, user)
			logger.Info("report menu timed out", "user", user)
		}
	}
}

func (m *ReportMenu) handle(ctx context.Context, logger *slog.Logger, ev InteractionEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	m.expire(ev.At, logger)

	switch ev.Component {
	case protocol.ComponentEscalator:
		in, err := escalator.ParseInput(ev.Value, m.Engine.Registry())
		if err != nil {
			return fmt.Errorf("user %s picked %q: %w", ev.User, ev.Value, err)
		}
		m.sessions[ev.User] = &reportSession{input: in, touched: ev.At}
		return nil

	case protocol.ComponentStatus:
		s, ok := m.sessions[ev.User]
		if !ok {
			return fmt.Errorf("user %s picked a status with no open report menu", ev.User)
		}
		status, err := escalator.ParseStatus(ev.Value)
		if err != nil {
			return fmt.Errorf("user %s picked %q: %w", ev.User, ev.Value, err)
		}
		delete(m.sessions, ev.User)

		report, kind := m.Engine.Report(tracker.NewReport(ev.User, s.input, status))
		logger.Info("report menu submitted", "user", ev.User, "input", s.input.String(), "kind", kind.String())
		if m.Messenger != nil {
			msg := chat.Message{Content: "Thanks! " + render.Alert(report)}
			if err := m.Messenger.Direct(ctx, ev.User, msg); err != nil {
				return fmt.Errorf("confirm report to %s: %w", ev.User, err)
			}
		}
		return nil

	case protocol.ComponentCancel:
		if _, ok := m.sessions[ev.User]; ok {
			delete(m.sessions, ev.User)
			logger.Info("report menu cancelled", "user", ev.User)
		}
		return nil

	default:
		return fmt.Errorf("unknown component %q", ev.Component)
	}
}
