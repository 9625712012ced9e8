package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffDoubles(t *testing.T) {
	base := 500 * time.Millisecond
	max := 60 * time.Second

	assert.Equal(t, 500*time.Millisecond, Backoff(base, max, 0))
	assert.Equal(t, 1*time.Second, Backoff(base, max, 1))
	assert.Equal(t, 2*time.Second, Backoff(base, max, 2))
	assert.Equal(t, 16*time.Second, Backoff(base, max, 5))
}

func TestBackoffCapsAtMax(t *testing.T) {
	base := 500 * time.Millisecond
	max := 60 * time.Second

	// 500ms * 2^7 = 64s, past the ceiling.
	assert.Equal(t, max, Backoff(base, max, 7))
	assert.Equal(t, max, Backoff(base, max, 20))
	assert.Equal(t, max, Backoff(base, max, 63), "large attempts must not overflow past the cap")
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	}, Options{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("transient")
		}
		return nil
	}, Options{MaxRetries: 5, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsAtCeiling(t *testing.T) {
	calls := 0
	failure := fmt.Errorf("still down")
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return failure
	}, Options{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond})

	require.Error(t, err)
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 4, calls, "initial attempt plus MaxRetries retries, never more")
}

func TestDoNonRetryableShortCircuits(t *testing.T) {
	calls := 0
	fatal := fmt.Errorf("validation failed")
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return fatal
	}, Options{
		MaxRetries: 10,
		BaseDelay:  time.Millisecond,
		MaxDelay:   time.Millisecond,
		Retryable:  func(err error) bool { return false },
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDoCancelledContextAbortsWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	start := time.Now()
	err := Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return fmt.Errorf("transient")
	}, Options{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second, "cancellation must not wait out the backoff")
}
