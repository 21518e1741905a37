package utils

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryConfig bounds a retried operation. Delay doubles after every failed
// attempt starting from InitialDelay.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int
	// InitialDelay is the pause before the second attempt.
	InitialDelay time.Duration
	// Retryable reports whether the error is worth another attempt. A nil
	// function retries every error.
	Retryable func(error) bool
}

// ErrAttemptsExhausted wraps the last error once the attempt bound is reached.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// Retry runs fn until it succeeds, returns a non-retryable error, the context
// is cancelled or the attempt bound is reached. The bound is always honored:
// there is no unbounded retry path.
func Retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if cfg.Retryable != nil && !cfg.Retryable(lastErr) {
			return lastErr
		}

		if attempt == attempts {
			break
		}

		if err := WaitFor(ctx, delay); err != nil {
			return err
		}
		delay *= 2
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, attempts, lastErr)
}
