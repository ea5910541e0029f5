// Package taskretry is the generic background-retry mechanism named in
// spec.md §7/§8 (expanded in SPEC_FULL.md): attempts 1..n-1 of a failing
// task are retried silently, and only the final exhausted attempt reaches
// the error logger, carrying RetryCount in its metadata. The scheduling
// policy (cron expressions, concurrency limits, priority) stays the
// out-of-scope contracts.TaskScheduler collaborator — this package only
// runs one task to completion or exhaustion.
//
// Grounded on internal/retention/janitor.go's goroutine + ticker +
// context-cancellation shape, generalized from a fixed-interval sweep to a
// bounded-attempt retry loop over github.com/cenkalti/backoff/v4.
package taskretry

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/blueprintapi/blueprint/pkg/contracts"
)

// Task is the unit of retryable work.
type Task func(ctx context.Context) error

// Runner retries one Task up to MaxAttempts times with exponential
// backoff, logging only the final, exhausted failure.
type Runner struct {
	// Name identifies the task for logging and the error logger's metadata.
	Name string

	// MaxAttempts bounds total attempts, including the first. A value < 1
	// is treated as 1 (no retries).
	MaxAttempts int

	// Logger receives the final exhausted failure. May be nil, in which
	// case the failure is only written to the global zerolog logger and
	// returned to the caller.
	Logger contracts.ErrorLogger
}

// NewRunner creates a Runner with the given name, attempt budget, and
// error logger.
func NewRunner(name string, maxAttempts int, logger contracts.ErrorLogger) *Runner {
	return &Runner{Name: name, MaxAttempts: maxAttempts, Logger: logger}
}

// Run executes task, retrying transient failures with exponential backoff.
// Attempts 1..MaxAttempts-1 that fail are swallowed and retried silently;
// only the final attempt's error, if any, is logged and returned.
func (r *Runner) Run(ctx context.Context, task Task) error {
	maxAttempts := r.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	attempt := 0
	var lastErr error

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(maxAttempts-1)), ctx)

	err := backoff.Retry(func() error {
		attempt++
		lastErr = task(ctx)
		return lastErr
	}, policy)

	if err == nil {
		return nil
	}

	if r.Logger != nil {
		r.Logger.LogError(ctx, lastErr, map[string]any{
			"task":        r.Name,
			"RetryCount":  attempt,
			"maxAttempts": maxAttempts,
		})
	}
	log.Error().Err(lastErr).Str("task", r.Name).Int("attempts", attempt).Msg("task exhausted retries")
	return lastErr
}
