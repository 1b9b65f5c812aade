package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// DefaultTickInterval is the guard's cadence. Slot post times are matched
// against the wall-clock minute, so the interval must not exceed one minute.
const DefaultTickInterval = time.Minute

// Runner drives a SlotGuard on a fixed cadence until its context is
// cancelled.
type Runner struct {
	guard    *SlotGuard
	interval time.Duration
	logger   *slog.Logger
}

// NewRunner creates a Runner. interval <= 0 selects DefaultTickInterval.
func NewRunner(guard *SlotGuard, interval time.Duration, logger *slog.Logger) *Runner {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{guard: guard, interval: interval, logger: logger}
}

// Run ticks the guard until ctx is cancelled. Tick errors are logged and
// the loop continues; only context cancellation stops the runner.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "scheduler guard started",
		"interval", r.interval.String(),
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "scheduler guard stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.guard.Tick(ctx); err != nil {
				r.logger.ErrorContext(ctx, "scheduler tick failed",
					"error", err,
				)
			}
		}
	}
}
