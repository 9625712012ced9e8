package syncq

import (
	"context"
	"fmt"
	"time"

	"github.com/StayBridge/StayBridge-Backend/client/retry"
	"github.com/StayBridge/StayBridge-Backend/services/monitoring/logging"
)

// Replayer pushes one queued mutation to the server.
type Replayer interface {
	Replay(ctx context.Context, m Mutation) error
}

// Driver replays pending mutations with exponential backoff. An item
// that exhausts the ceiling is dropped and surfaced through
// OnPermanentFailure, never silently retried forever.
type Driver struct {
	queue      *Queue
	replayer   Replayer
	logger     *logging.Logger
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	interval   time.Duration

	// Retryable classifies replay failures; ledger-invariant rejections
	// are terminal for the mutation on the first attempt.
	Retryable func(error) bool

	// OnPermanentFailure receives mutations dropped from the queue.
	OnPermanentFailure func(m Mutation, err error)

	// OnReplayed is called after the server acknowledged a mutation and
	// it left the queue, so the caller can retire the local-only copy in
	// favor of the authoritative one.
	OnReplayed func(m Mutation)
}

func NewDriver(queue *Queue, replayer Replayer, logger *logging.Logger, maxRetries int, baseDelay time.Duration, maxDelay time.Duration, interval time.Duration) *Driver {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Driver{
		queue:      queue,
		replayer:   replayer,
		logger:     logger,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
		interval:   interval,
	}
}

// Run drives replay for one owner until ctx is cancelled (sign-out).
// Nothing is written for an owner whose session has ended.
func (d *Driver) Run(ctx context.Context, owner string) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Process(ctx, owner); err != nil {
				d.logger.Warn(fmt.Sprintf("sync pass failed for owner %v: %v", owner, err))
			}
		}
	}
}

// Process runs a single replay pass over the owner's due mutations.
func (d *Driver) Process(ctx context.Context, owner string) error {
	items, err := d.queue.List(ctx, owner)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, m := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Honor the backoff window before touching the item again.
		if m.RetryCount > 0 {
			due := m.LastAttempt.Add(retry.Backoff(d.baseDelay, d.maxDelay, m.RetryCount-1))
			if now.Before(due) {
				continue
			}
		}

		replayErr := d.replayer.Replay(ctx, m)
		if replayErr == nil {
			if err := d.queue.Remove(ctx, m.ID); err != nil {
				return err
			}
			if d.OnReplayed != nil {
				d.OnReplayed(m)
			}
			continue
		}

		if ctx.Err() != nil {
			// Session ended mid-replay; leave the queue untouched.
			return ctx.Err()
		}

		m.RetryCount++
		m.LastAttempt = time.Now()

		terminal := m.RetryCount >= d.maxRetries
		if d.Retryable != nil && !d.Retryable(replayErr) {
			terminal = true
		}

		if terminal {
			d.logger.Error(fmt.Sprintf("dropping mutation %v after %d attempts: %v", m.ID, m.RetryCount, replayErr))
			if err := d.queue.Remove(ctx, m.ID); err != nil {
				return err
			}
			if d.OnPermanentFailure != nil {
				d.OnPermanentFailure(m, replayErr)
			}
			continue
		}

		if err := d.queue.Update(ctx, m); err != nil {
			return err
		}
	}

	return nil
}
