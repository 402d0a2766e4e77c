// Package internal provides application initialization and the
// long-running watch mode.
package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/vesica/internal/inbox"
	"github.com/starford/vesica/internal/index"
	"github.com/starford/vesica/internal/scanservice"
)

// NewLogger builds the structured JSON logger and installs it as the
// slog default.
func NewLogger(cfg *Config, w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.Level(),
	}))
	slog.SetDefault(logger)
	return logger
}

// OpenSession opens the measurement index and builds a fresh session
// service over the configured ledger. The caller closes the returned DB.
func OpenSession(cfg *Config, logger *slog.Logger) (*scanservice.Service, *index.DB, error) {
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init index: %w", err)
	}
	if err := index.Sync(db, cfg.Ledger.Path, logger); err != nil {
		logger.Warn("initial index sync failed", slog.String("error", err.Error()))
	}
	return scanservice.NewService(cfg.Ledger.Path, db, logger), db, nil
}

// Run starts watch mode with the given options: an inbox watcher that
// imports and flushes every dropped batch file until a shutdown signal
// arrives.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := NewLogger(cfg, os.Stdout)

	logger.Info("Configuration loaded",
		slog.String("ledger_path", cfg.Ledger.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("inbox_path", cfg.Inbox.Path),
		slog.String("log_level", cfg.App.Level().String()))

	// Ensure inbox directory exists.
	if err := os.MkdirAll(cfg.Inbox.Path, 0o755); err != nil {
		return fmt.Errorf("create inbox dir: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// Catch up with ledger changes made outside watch mode.
	if err := index.Sync(db, cfg.Ledger.Path, logger); err != nil {
		logger.Warn("initial index sync failed", slog.String("error", err.Error()))
	}

	// Each dropped file is one import session: import, report rejected
	// rows, flush. No state carries over between files.
	handle := func(path string) error {
		svc := scanservice.NewService(cfg.Ledger.Path, db, logger)
		recs, rowErrs, err := svc.Import(ctx, path)
		if err != nil {
			return err
		}
		for _, re := range rowErrs {
			logger.Warn("inbox: row rejected",
				slog.String("file", path),
				slog.String("error", re.Error()))
		}
		if len(recs) == 0 {
			logger.Info("inbox: nothing to flush", slog.String("file", path))
			return nil
		}
		total, err := svc.Flush(ctx)
		if err != nil {
			return err
		}
		logger.Info("inbox: batch persisted",
			slog.String("file", path),
			slog.Int("imported", len(recs)),
			slog.Int("ledger_total", total))
		return nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	watchCtx, stopWatch := context.WithCancel(gCtx)
	defer stopWatch()

	g.Go(func() error {
		return inbox.Watch(watchCtx, cfg.Inbox.Path, logger, handle)
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		stopWatch()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Watch mode stopped")
	return nil
}
