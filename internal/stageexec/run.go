package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vidlingo/internal/logging"
	"vidlingo/internal/services"
	"vidlingo/internal/stage"
)

// Options controls how a single pipeline step is executed.
type Options struct {
	Logger *slog.Logger
	Stage  stage.Name
	// Operation labels the delegate call in error messages.
	Operation string
	// Timeout bounds each attempt. Zero disables the bound.
	Timeout time.Duration
	// Retries is the number of extra attempts allowed for retryable errors.
	Retries int
	// Backoff is the delay before the first retry; it doubles per attempt.
	Backoff time.Duration
	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(context.Context, time.Duration) error
}

// Run executes fn under the stage's timeout, logging start, completion and
// failure, and retrying only errors services.IsRetryable accepts.
func Run(ctx context.Context, opts Options, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("stage %s: no step function", opts.Stage)
	}
	stageCtx := services.WithStage(ctx, opts.Stage.String())
	logger := logging.WithContext(stageCtx, opts.Logger)
	op := opts.Operation
	if op == "" {
		op = opts.Stage.String()
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	started := time.Now()

	attempts := 1 + max(opts.Retries, 0)
	delay := opts.Backoff
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = stage.Classify(runAttempt(stageCtx, opts, op, fn), opts.Stage, op)
		if err == nil {
			logger.Info(
				"stage completed",
				logging.String(logging.FieldEventType, "stage_complete"),
				logging.Duration("elapsed", time.Since(started)),
				logging.Int("attempts", attempt),
			)
			return nil
		}
		if attempt == attempts || !services.IsRetryable(err) || ctx.Err() != nil {
			break
		}
		logging.WarnWithContext(logger, "stage attempt failed; retrying", "stage_retry",
			append(logging.ErrorAttrs(err),
				logging.Int("attempt", attempt),
				logging.Duration("backoff", delay),
				logging.String(logging.FieldImpact, "job continues after backoff"),
			)...,
		)
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			break
		}
		delay *= 2
	}

	logger.Error(
		"stage failed",
		logging.Args(append(logging.ErrorAttrs(err),
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Duration("elapsed", time.Since(started)),
		)...)...,
	)
	return err
}

// runAttempt reports an expired attempt deadline as services.ErrTimeout even
// when the delegate surfaced it as a generic failure (a killed process, say).
func runAttempt(ctx context.Context, opts Options, op string, fn func(context.Context) error) error {
	if opts.Timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	err := fn(attemptCtx)
	if err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil && !errors.Is(err, services.ErrTimeout) {
		return services.Wrap(services.ErrTimeout, opts.Stage.String(), op, fmt.Sprintf("no result after %s", opts.Timeout), err)
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
