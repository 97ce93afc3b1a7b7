package grid

import (
	"context"
	"errors"
	"math"
	"time"

	engerr "github.com/ducminhle1904/baseline-reversion-bot/internal/errors"
	"github.com/ducminhle1904/baseline-reversion-bot/internal/monitoring"
)

// RetryConfig bounds the retries applied at the fetch boundary. Only fetch
// and timeout errors are retried; contract violations and sentinels pass
// through immediately.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns the fetch retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
	}
}

// retryFetch runs fn with exponential backoff until it succeeds, exhausts the
// retry budget, returns a non-retryable error, or the context is cancelled.
func retryFetch(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == cfg.MaxRetries || !isRetryable(err) {
			break
		}

		monitoring.RecordFetchRetry()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoffDelay(attempt, cfg)):
		}
	}
	return lastErr
}

func isRetryable(err error) bool {
	if errors.Is(err, engerr.ErrDataUnavailable) || errors.Is(err, engerr.ErrNotFound) || errors.Is(err, engerr.ErrNoBaseline) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ee *engerr.EngineError
	if errors.As(err, &ee) {
		return ee.IsRetryable()
	}
	return false
}

func backoffDelay(attempt int, cfg RetryConfig) time.Duration {
	delay := cfg.InitialDelay
	if attempt > 0 {
		delay = time.Duration(float64(cfg.InitialDelay) * math.Pow(cfg.BackoffFactor, float64(attempt)))
	}
	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}
