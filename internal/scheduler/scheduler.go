// Package scheduler runs a named task on a fixed cadence: an initial delay,
// then a repeat interval, indefinitely, until the context is cancelled. The
// task runs synchronously on the caller's goroutine; re-arming only happens
// after the task returns.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Run blocks until ctx is cancelled. Each firing logs start and completion
// with the measured wall time. Cancellation lets an in-flight task finish but
// never re-arms the timer.
func Run(ctx context.Context, logger *slog.Logger, name string, initialDelay, interval time.Duration, task func(context.Context)) {
	logger.Info("scheduler armed",
		"task", name,
		"initial_delay", initialDelay.String(),
		"interval", interval.String(),
	)

	timer := time.NewTimer(initialDelay)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			logger.Info("task starting", "task", name)
			start := time.Now()
			task(ctx)
			logger.Info("task completed", "task", name, "duration", time.Since(start).String())
			timer.Reset(interval)
		case <-ctx.Done():
			logger.Info("scheduler stopped", "task", name, "reason", ctx.Err())
			return
		}
	}
}
