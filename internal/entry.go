// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vollan/othala/internal/index"
	"github.com/vollan/othala/internal/logbook"
	"github.com/vollan/othala/internal/reconcile"
	"github.com/vollan/othala/internal/registry"
	"github.com/vollan/othala/internal/scaffold"
	"github.com/vollan/othala/internal/store"
)

// App holds the wired services for one run. Build it with New, close it
// with Close.
type App struct {
	Config    *Config
	Logger    *slog.Logger
	Store     *store.FS
	DB        *index.DB
	Templates *scaffold.Manager
	Registry  *registry.Service
	Logbook   *logbook.Service
}

// New wires the application: logger, store, derived index, templates, and
// services — then heals the index against the directory tree and syncs
// the derived index, so every command starts from consistent state.
func New(opts ...Option) (*App, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
		slog.SetDefault(logger)
	}

	logger.Debug("configuration loaded",
		slog.String("tree_root", cfg.Tree.Root),
		slog.String("data_dir", cfg.Data.Dir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure the case-tree root exists.
	if err := os.MkdirAll(cfg.Tree.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create tree root: %w", err)
	}

	s, err := store.NewFS(cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	templates, err := scaffold.NewManager(cfg.Data.Templates)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := templates.Ensure(); err != nil {
		db.Close()
		return nil, err
	}

	// Heal the index against the directory tree before anything reads it.
	if _, err := reconcile.Run(s, cfg.Tree.Root, time.Now(), logger); err != nil {
		logger.Warn("startup reconcile failed", slog.String("error", err.Error()))
	}
	if err := index.Sync(db, s, logger); err != nil {
		logger.Warn("startup index sync failed", slog.String("error", err.Error()))
	}

	return &App{
		Config:    cfg,
		Logger:    logger,
		Store:     s,
		DB:        db,
		Templates: templates,
		Registry:  registry.NewService(s, db, templates, cfg.Tree.Root, cfg.User.Name, logger),
		Logbook:   logbook.NewService(s),
	}, nil
}

// Close releases the app's resources.
func (a *App) Close() error {
	return a.DB.Close()
}

// Watch runs the filesystem watcher until ctx is cancelled or an
// interrupt arrives, keeping the index current as the tree changes
// outside the tool.
func (a *App) Watch(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return index.Watch(gCtx, a.DB, a.Store, a.Config.Tree.Root, a.Logger)
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			a.Logger.Info("received shutdown signal", slog.String("signal", sig.String()))
			return context.Canceled
		case <-gCtx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	a.Logger.Info("watch stopped")
	return nil
}
