// Package retry provides a small context-aware retry helper with exponential
// backoff, used by the facilitator client for transient transport failures.
package retry

import (
	"context"
	"time"
)

// Config controls retry behavior.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Values below 1 mean a single attempt.
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the backoff delay. Zero means uncapped.
	MaxDelay time.Duration

	// Multiplier scales the delay after each attempt.
	Multiplier float64
}

// WithRetry runs op until it succeeds, attempts are exhausted, shouldRetry
// rejects the error, or the context is done. A nil shouldRetry retries every
// error. Returns the last error when all attempts fail.
func WithRetry[T any](ctx context.Context, config Config, shouldRetry func(error) bool, op func() (T, error)) (T, error) {
	var zero T

	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := config.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		if shouldRetry != nil && !shouldRetry(err) {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}

		if config.Multiplier > 0 {
			delay = time.Duration(float64(delay) * config.Multiplier)
		}
		if config.MaxDelay > 0 && delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}

	return zero, lastErr
}
