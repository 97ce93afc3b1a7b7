package grid

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engerr "github.com/ducminhle1904/baseline-reversion-bot/internal/errors"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

// TestRetryFetch_SucceedsAfterTransientErrors tests recovery from retryable
// fetch failures
func TestRetryFetch_SucceedsAfterTransientErrors(t *testing.T) {
	calls := 0
	err := retryFetch(context.Background(), fastRetryConfig(), func() error {
		calls++
		if calls < 3 {
			return engerr.NewEngineError(engerr.ErrorCategoryFetch, "store", "query", "connection reset")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

// TestRetryFetch_NonRetryableStopsImmediately tests that contract violations
// are not retried
func TestRetryFetch_NonRetryableStopsImmediately(t *testing.T) {
	calls := 0
	violation := engerr.ContractViolation("signal", "bad input")

	err := retryFetch(context.Background(), fastRetryConfig(), func() error {
		calls++
		return violation
	})

	assert.ErrorIs(t, err, violation)
	assert.Equal(t, 1, calls)
}

// TestRetryFetch_SentinelsNotRetried tests that control-flow sentinels pass
// straight through
func TestRetryFetch_SentinelsNotRetried(t *testing.T) {
	for _, sentinel := range []error{engerr.ErrDataUnavailable, engerr.ErrNotFound, engerr.ErrNoBaseline} {
		calls := 0
		err := retryFetch(context.Background(), fastRetryConfig(), func() error {
			calls++
			return sentinel
		})
		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, 1, calls)
	}
}

// TestRetryFetch_ExhaustsBudget tests that a persistent retryable error stops
// after the configured number of retries
func TestRetryFetch_ExhaustsBudget(t *testing.T) {
	calls := 0
	persistent := engerr.NewEngineError(engerr.ErrorCategoryTimeout, "store", "query", "slow")

	err := retryFetch(context.Background(), fastRetryConfig(), func() error {
		calls++
		return persistent
	})

	assert.ErrorIs(t, err, persistent)
	assert.Equal(t, 4, calls) // initial attempt plus three retries
}

// TestRetryFetch_CancelledContext tests that cancellation wins over retries
func TestRetryFetch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := retryFetch(ctx, fastRetryConfig(), func() error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

// TestBackoffDelay tests the exponential growth and the cap
func TestBackoffDelay(t *testing.T) {
	cfg := RetryConfig{
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}

	assert.Equal(t, 100*time.Millisecond, backoffDelay(0, cfg))
	assert.Equal(t, 200*time.Millisecond, backoffDelay(1, cfg))
	assert.Equal(t, 400*time.Millisecond, backoffDelay(2, cfg))
	assert.Equal(t, time.Second, backoffDelay(10, cfg))
}
