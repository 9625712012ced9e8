package retry

import (
	"context"
	"fmt"
	"time"
)

// Options parameterize a backoff-retry loop. The same primitive drives
// deposit confirmation, transaction fetches and pending-mutation replay.
type Options struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// Retryable decides whether an error is transient. A nil predicate
	// retries everything.
	Retryable func(error) bool
}

// Backoff returns min(base * 2^attempt, max).
func Backoff(base time.Duration, max time.Duration, attempt int) time.Duration {
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}

// Do runs op until it succeeds, the retry ceiling is hit, or ctx is
// cancelled. Sleeps are cancellable: a cancelled context aborts the wait
// immediately and returns ctx.Err().
func Do(ctx context.Context, op func(context.Context) error, opts Options) error {
	var lastErr error

	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(Backoff(opts.BaseDelay, opts.MaxDelay, attempt-1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if opts.Retryable != nil && !opts.Retryable(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("retries exhausted after %d attempts: %w", opts.MaxRetries+1, lastErr)
}
