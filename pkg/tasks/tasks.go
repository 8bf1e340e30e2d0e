// Package tasks holds the long-running consumers that react to engine
// updates: alerts, announcements, menu sync, history, and the periodic
// sweeper and autosave loops.
package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"escabot/pkg/bus"
	"escabot/pkg/escalator"
	"escabot/pkg/store"
	"escabot/pkg/tracker"
)

// Task is one background loop. Run blocks until ctx is cancelled or the task
// cannot continue.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// Run starts every task in its own goroutine and waits for all of them. It
// returns the failures of tasks that stopped for reasons other than shutdown.
func Run(ctx context.Context, logger *slog.Logger, tasks ...Task) error {
	logger = orDiscard(logger)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, t := range tasks {
		t := t
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("task started", "task", t.Name())
			err := t.Run(ctx)
			switch {
			case err == nil, errors.Is(err, context.Canceled):
				logger.Info("task stopped", "task", t.Name())
			case errors.Is(err, bus.ErrClosed):
				logger.Info("task stopped: bus closed", "task", t.Name())
			default:
				logger.Error("task failed", "task", t.Name(), "error", err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// consume feeds every received value to handle until the receiver closes or
// ctx ends. A lagging receiver is logged and keeps going; onLag, when set,
// runs after each lag. Handler errors are logged and do not stop the loop.
func consume[T any](ctx context.Context, logger *slog.Logger, name string, rx *bus.Receiver[T], handle func(context.Context, T) error, onLag func(context.Context)) error {
	for {
		v, err := rx.Recv(ctx)
		if err != nil {
			var lagged *bus.LaggedError
			if errors.As(err, &lagged) {
				logger.Warn("receiver lagged", "task", name, "skipped", lagged.Skipped)
				if onLag != nil {
					onLag(ctx)
				}
				continue
			}
			return err
		}
		if err := handle(ctx, v); err != nil {
			logger.Warn("handle update", "task", name, "error", err)
		}
	}
}

// WatcherLookup finds the users watching any of the given escalators.
type WatcherLookup interface {
	Watchers(ctx context.Context, floors []escalator.Floors) ([]string, error)
}

// ChannelLister lists announcement channels.
type ChannelLister interface {
	List(ctx context.Context) ([]store.AnnouncementChannel, error)
}

// MenuLister lists posted status menus.
type MenuLister interface {
	List(ctx context.Context) ([]store.MenuMessage, error)
}

// UpdateAppender records updates durably.
type UpdateAppender interface {
	Append(ctx context.Context, u tracker.Update) error
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}
