// Package main is the entry point for the schedule slot guard worker.
//
// It loads configuration, connects the database pool, and drives the slot
// guard on its tick cadence. The guard posts each enabled slot's configured
// uniform at most once per day, and stands down entirely while weather rules
// are configured.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/BadgerOps/WOTSapp-sub001/internal/config"
	"github.com/BadgerOps/WOTSapp-sub001/internal/db"
	"github.com/BadgerOps/WOTSapp-sub001/internal/scheduler"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the worker lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig(config.NewSSMProvider(os.Getenv("AWS_REGION")))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("slot guard worker starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"tick_interval", cfg.Scheduler.TickInterval.String(),
	)

	location, err := time.LoadLocation(cfg.Uniform.Timezone)
	if err != nil {
		return fmt.Errorf("loading timezone %q: %w", cfg.Uniform.Timezone, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	guard := scheduler.NewSlotGuard(scheduler.GuardConfig{
		Slots:         db.NewSlotRepository(pool),
		WeatherRules:  db.NewRuleRepository(pool),
		Uniforms:      db.NewUniformRepository(pool),
		Announcements: db.NewAnnouncementRepository(pool),
		Logger:        logger,
		Location:      location,
	})
	runner := scheduler.NewRunner(guard, cfg.Scheduler.TickInterval, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runner.Run(ctx)
	})

	err = g.Wait()
	logger.Info("slot guard worker stopped")
	return err
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: false,
	})
	return slog.New(handler)
}
