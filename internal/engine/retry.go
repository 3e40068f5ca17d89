package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/oskhen/revue/internal/breaker"
)

// RetryPolicy defines the exponential backoff applied to remote calls.
type RetryPolicy struct {
	MaxRetries int           // total attempts, not additional ones
	BaseDelay  time.Duration // delay before the second attempt
	MaxDelay   time.Duration // backoff cap
}

// DefaultRetryPolicy matches the model-call policy: three attempts,
// 1s base delay doubling up to 30s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
}

// RetryableFunc is a function that can be retried.
type RetryableFunc[T any] func(ctx context.Context) (T, error)

// Retry executes fn with exponential backoff. After attempt i fails, it
// waits min(BaseDelay * 2^i, MaxDelay) and tries again, up to
// MaxRetries attempts total; the last error is returned to the caller
// rather than swallowed. The wait is a timed suspension on the context,
// so sibling runs sharing the process are never stalled.
//
// A circuit-open signal is returned immediately: the breaker already
// decided the dependency is unavailable, and retrying before its
// timeout window elapses would only hammer it.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn RetryableFunc[T]) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < policy.MaxRetries; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if errors.Is(err, breaker.ErrOpen) {
			return zero, err
		}
		if attempt == policy.MaxRetries-1 {
			break
		}

		delay := backoffDelay(policy, attempt)
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}

// backoffDelay computes the delay after a failed attempt (0-indexed).
func backoffDelay(policy RetryPolicy, attempt int) time.Duration {
	delay := float64(policy.BaseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(policy.MaxDelay) {
		delay = float64(policy.MaxDelay)
	}
	return time.Duration(delay)
}
