// Package retry is the caller-level retry policy for provider failures.
// The retrieval core never retries on its own; the CLI and HTTP surfaces
// wrap their calls in Do when retry.max_attempts is above 1.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Retryable reports whether err is worth another attempt. Only provider
// outages qualify; invalid input or a missing provider never heal on retry.
func Retryable(err error) bool {
	return errors.Is(err, domain.ErrProviderUnavailable)
}

// Do runs op until it succeeds, returns a non-retryable error, runs out of
// attempts or ctx is done. The last error is returned unchanged.
func Do[T any](ctx context.Context, policy domain.RetrySettings, op func(context.Context) (T, error)) (T, error) {
	if policy.MaxAttempts <= 1 {
		return op(ctx)
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++
		v, err := op(ctx)
		if err != nil && !Retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("attempt %d/%d failed, retrying in %s: %v", attempt, policy.MaxAttempts, wait, err)
	}

	return backoff.RetryNotifyWithData(operation, newBackOff(ctx, policy), notify)
}

func newBackOff(ctx context.Context, policy domain.RetrySettings) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		b.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		b.MaxInterval = policy.MaxInterval
	}
	// Attempts bound the loop, not wall time.
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(policy.MaxAttempts-1)), ctx)
}
