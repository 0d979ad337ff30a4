package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pennyflow/pennyflow/pkg/domain"
)

// RetryPolicy bounds how hard the shell retries a failed unit of execution
// before dropping it. Exponential backoff, capped attempts.
type RetryPolicy struct {
	MaxAttempts uint
	BaseDelay   time.Duration
}

// WithRetry decorates fn with the policy. Retry lives here, in the shell,
// not in the business logic: services return plain errors and never retry
// themselves.
//
// Discard-class errors (NotFound, Validation) are permanent: retrying
// cannot fix the data, so the unit is dropped immediately.
func WithRetry(policy RetryPolicy, logger *slog.Logger, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		bo := backoff.NewExponentialBackOff()
		if policy.BaseDelay > 0 {
			bo.InitialInterval = policy.BaseDelay
		}

		attempt := 0
		operation := func() error {
			attempt++
			err := fn(ctx)
			if err == nil {
				return nil
			}
			if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
				return backoff.Permanent(err)
			}
			logger.Warn("unit failed, backing off", "attempt", attempt, "error", err)
			return err
		}

		return backoff.Retry(operation,
			backoff.WithContext(backoff.WithMaxRetries(bo, uint64(policy.MaxAttempts)), ctx))
	}
}
