package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"escabot/pkg/bus"
	"escabot/pkg/chat"
	"escabot/pkg/config"
	"escabot/pkg/server"
	"escabot/pkg/store"
	"escabot/pkg/tasks"
	"escabot/pkg/tracker"

	"github.com/spf13/cobra"
)

// newServeCmd creates the "escabot serve" subcommand.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot in the foreground",
		Long: "Loads saved statuses, starts the alert, announcement, menu, history,\n" +
			"sweeper, and autosave tasks, and answers requests on the control socket\n" +
			"until interrupted. Statuses are saved once more on the way out.",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}
			return runServe(cmd.Context(), paths, cmd.ErrOrStderr())
		},
	}
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	lvl, err := cfg.Level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// persisterFor picks the snapshot backend named in the config.
func persisterFor(cfg config.Config, st *store.Store) tracker.Persister {
	if cfg.Persistence.Backend == config.BackendFile {
		return store.NewFileSnapshots(cfg.Persistence.SnapshotPath)
	}
	return st.Statuses
}

// messengerFor delivers through configured webhooks and queues everything
// else in the outbox.
func messengerFor(cfg config.Config, st *store.Store) chat.Messenger {
	outbox := chat.NewOutbox(st.DB)
	if len(cfg.Chat.Webhooks) == 0 {
		return outbox
	}
	return &chat.Webhook{URLs: cfg.Chat.Webhooks, Fallback: outbox}
}

// daemon is everything serve wires together.
type daemon struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *store.Store
	persister tracker.Persister
	buses     *bus.Registry
	engine    *tracker.Engine
	messenger chat.Messenger
}

func newDaemon(cfg config.Config, logger *slog.Logger, st *store.Store) *daemon {
	buses := bus.NewRegistry(cfg.BusCapacity)
	return &daemon{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		persister: persisterFor(cfg, st),
		buses:     buses,
		engine: tracker.New(tracker.Config{
			OutdatedThreshold: cfg.OutdatedThreshold.Std(),
			Logger:            logger.With("component", "engine"),
		}, bus.SenderOf[tracker.Update](buses)),
		messenger: messengerFor(cfg, st),
	}
}

// load imports a legacy snapshot file once, then restores the engine.
func (d *daemon) load(ctx context.Context) {
	if d.cfg.Persistence.Backend == config.BackendSQLite && d.cfg.Persistence.SnapshotPath != "" {
		if _, err := os.Stat(d.cfg.Persistence.SnapshotPath); err == nil {
			migrated, err := d.store.MigrateFile(ctx, store.NewFileSnapshots(d.cfg.Persistence.SnapshotPath))
			switch {
			case err != nil:
				d.logger.Warn("import snapshot file", "path", d.cfg.Persistence.SnapshotPath, "error", err)
			case migrated:
				d.logger.Info("imported snapshot file", "path", d.cfg.Persistence.SnapshotPath)
			}
		}
	}
	if err := d.engine.Load(ctx, d.persister); err != nil {
		if errors.Is(err, tracker.ErrNoSnapshot) {
			d.logger.Info("no saved statuses, starting with every escalator open")
		} else {
			d.logger.Warn("could not load statuses, starting with every escalator open", "error", err)
		}
	}
}

// tasks subscribes every background task. Receivers are created here, before
// anything can publish.
func (d *daemon) tasks() []tasks.Task {
	updates := func() *bus.Receiver[tracker.Update] { return bus.ReceiverOf[tracker.Update](d.buses) }
	logger := func(name string) *slog.Logger { return d.logger.With("component", name) }
	return []tasks.Task{
		&tasks.Alert{Updates: updates(), Watchers: d.store.Watchlists, Messenger: d.messenger, Logger: logger("alert")},
		&tasks.Announce{
			Updates:     updates(),
			Channels:    d.store.Announcements,
			Engine:      d.engine,
			Messenger:   d.messenger,
			MinInterval: d.cfg.Announce.MinInterval.Std(),
			MaxInterval: d.cfg.Announce.MaxInterval.Std(),
			MaxReports:  d.cfg.Announce.MaxReports,
			Logger:      logger("announce"),
		},
		&tasks.MenuSync{Updates: updates(), Menus: d.store.Menus, Engine: d.engine, Messenger: d.messenger, Logger: logger("menu-sync")},
		&tasks.History{Updates: updates(), Events: d.store.Events, Logger: logger("history")},
		&tasks.ReportMenu{
			Events:    bus.ReceiverOf[tasks.InteractionEvent](d.buses),
			Engine:    d.engine,
			Messenger: d.messenger,
			Timeout:   d.cfg.ReportTimeout.Std(),
			Logger:    logger("report-menu"),
		},
		&tasks.Outdated{Engine: d.engine, Interval: d.cfg.OutdatedCheckInterval.Std(), Logger: logger("outdated")},
		&tasks.Autosave{Engine: d.engine, Persister: d.persister, Interval: d.cfg.AutosaveInterval.Std(), Logger: logger("autosave")},
	}
}

// run serves until ctx is cancelled or the control socket fails.
func (d *daemon) run(ctx context.Context, socketPath, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.load(ctx)
	taskList := d.tasks()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := tasks.Run(ctx, d.logger, taskList...); err != nil {
			d.logger.Error("tasks stopped with errors", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		err := config.Watch(ctx, configPath, d.logger, func(c config.Config) {
			d.engine.SetThreshold(c.OutdatedThreshold.Std())
			d.logger.Info("config reloaded", "outdated_threshold", c.OutdatedThreshold.Std().String())
		})
		if err != nil && ctx.Err() == nil {
			d.logger.Warn("config watch stopped", "error", err)
		}
	}()

	srv := server.New(server.Config{
		SocketPath: socketPath,
		Engine:     d.engine,
		Buses:      d.buses,
		Menus:      d.store.Menus,
		Messenger:  d.messenger,
		Logger:     d.logger.With("component", "server"),
	})
	srvErr := srv.Run(ctx)
	cancel()
	wg.Wait()
	d.buses.Close()

	saveCtx := context.WithoutCancel(ctx)
	if saved, err := d.engine.Save(saveCtx, d.persister); err != nil {
		d.logger.Error("final save", "error", err)
	} else if saved {
		d.logger.Info("statuses saved")
	}
	return srvErr
}

func runServe(ctx context.Context, paths *Paths, logOut io.Writer) error {
	cfg, err := config.Load(paths.ConfigPath)
	if err != nil {
		return err
	}
	logger := newLogger(logOut, cfg)

	if err := os.MkdirAll(paths.Home, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", paths.Home, err)
	}

	pid := pidFile(paths.PIDPath)
	if err := pid.claim(); err != nil {
		return err
	}
	ctx, release := shutdownOnSignal(ctx, pid)
	defer release()

	st, err := store.OpenStore(paths.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	logger.Info("escabot starting", "db", paths.DBPath, "backend", cfg.Persistence.Backend)
	return newDaemon(cfg, logger, st).run(ctx, paths.SocketPath, paths.ConfigPath)
}
