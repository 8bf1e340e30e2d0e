package tasks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"escabot/pkg/bus"
	"escabot/pkg/chat"
	"escabot/pkg/escalator"
	"escabot/pkg/render"
	"escabot/pkg/tracker"
)

// Announcement pacing defaults.
const (
	DefaultAnnounceMin        = time.Minute
	DefaultAnnounceMax        = 5 * time.Minute
	DefaultAnnounceMaxReports = 8
)

// Summarizer provides the gist an announcement leads with.
type Summarizer interface {
	Summary() tracker.Gist
}

// Announce batches updates and posts them, with the current gist, to every
// announcement channel.
type Announce struct {
	Updates     *bus.Receiver[tracker.Update]
	Channels    ChannelLister
	Engine      Summarizer
	Messenger   chat.Messenger
	MinInterval time.Duration
	MaxInterval time.Duration
	MaxReports  int
	Logger      *slog.Logger
	Now         func() time.Time
}

// Name implements Task.
func (a *Announce) Name() string { return "announce" }

// PoolDelay is how long to keep collecting after the first update of a
// batch, given the time since the last announcement. Quiet periods shorten
// the wait down to minInterval; it never exceeds maxInterval.
func PoolDelay(since, minInterval, maxInterval time.Duration) time.Duration {
	if since+minInterval < maxInterval {
		return maxInterval - since
	}
	return minInterval
}

func (a *Announce) settings() (minI, maxI time.Duration, maxReports int, now func() time.Time) {
	minI, maxI, maxReports, now = a.MinInterval, a.MaxInterval, a.MaxReports, a.Now
	if minI <= 0 {
		minI = DefaultAnnounceMin
	}
	if maxI <= 0 {
		maxI = DefaultAnnounceMax
	}
	if maxReports <= 0 {
		maxReports = DefaultAnnounceMaxReports
	}
	if now == nil {
		now = time.Now
	}
	return minI, maxI, maxReports, now
}

// Run implements Task.
func (a *Announce) Run(ctx context.Context) error {
	logger := orDiscard(a.Logger)
	minI, maxI, maxReports, now := a.settings()

	last := now()
	for {
		first, err := a.first(ctx, logger)
		if err != nil {
			return err
		}

		delay := PoolDelay(now().Sub(last), minI, maxI)
		logger.Info("received update, pooling before announcing", "delay", delay.String())

		batch, poolErr := a.pool(ctx, logger, []tracker.Update{first}, delay)
		if poolErr != nil && !errors.Is(poolErr, bus.ErrClosed) {
			return poolErr
		}
		a.announce(ctx, logger, batch, maxReports, now())
		last = now()
		if poolErr != nil {
			return poolErr
		}
	}
}

func (a *Announce) first(ctx context.Context, logger *slog.Logger) (tracker.Update, error) {
	for {
		u, err := a.Updates.Recv(ctx)
		var lagged *bus.LaggedError
		if errors.As(err, &lagged) {
			logger.Warn("receiver lagged", "task", a.Name(), "skipped", lagged.Skipped)
			continue
		}
		return u, err
	}
}

// pool collects updates until delay passes. It returns bus.ErrClosed, with
// what it has, when the bus closes.
func (a *Announce) pool(ctx context.Context, logger *slog.Logger, batch []tracker.Update, delay time.Duration) ([]tracker.Update, error) {
	wctx, cancel := context.WithTimeout(ctx, delay)
	defer cancel()
	for {
		u, err := a.Updates.Recv(wctx)
		if err == nil {
			batch = append(batch, u)
			continue
		}
		var lagged *bus.LaggedError
		switch {
		case errors.As(err, &lagged):
			logger.Warn("receiver lagged", "task", a.Name(), "skipped", lagged.Skipped)
		case ctx.Err() != nil:
			return batch, ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			return batch, nil
		default:
			return batch, err
		}
	}
}

func (a *Announce) announce(ctx context.Context, logger *slog.Logger, batch []tracker.Update, maxReports int, now time.Time) {
	channels, err := a.Channels.List(ctx)
	if err != nil {
		logger.Error("list announcement channels", "error", err)
		return
	}
	if len(channels) == 0 {
		logger.Info("no announcement channels, skipping announcement")
		return
	}

	var reports []tracker.UserReport
	var outdated []escalator.Floors
	for _, u := range batch {
		switch u.Kind {
		case tracker.UpdateReport:
			if u.Report != nil && len(u.Report.Affected) > 0 {
				reports = append(reports, *u.Report)
			}
		case tracker.UpdateOutdated:
			outdated = append(outdated, u.Escalator)
		}
	}

	msg := render.Announcement(a.Engine.Summary(), reports, outdated, maxReports, now)
	for _, ch := range channels {
		if _, err := a.Messenger.Post(ctx, ch.Channel, msg); err != nil {
			logger.Warn("send announcement", "channel", ch.Channel, "error", err)
		}
	}
	logger.Info("announcement sent", "channels", len(channels), "reports", len(reports), "outdated", len(outdated))
}
