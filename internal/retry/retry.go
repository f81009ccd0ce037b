// Package retry runs an operation a bounded number of times with exponential
// backoff: attempt n waits base * 2^n before the next try.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Do calls op up to attempts times. Errors for which retryable returns false
// stop immediately. The last error is returned.
func Do(ctx context.Context, name string, attempts int, base time.Duration, retryable func(error) bool, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = base << uint(attempts)
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)

	attempt := 0

	return backoff.RetryNotify(
		func() error {
			attempt++
			err := op()
			if err != nil && retryable != nil && !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		},
		policy,
		func(err error, wait time.Duration) {
			slog.DebugContext(ctx, "retrying operation", "operation", name, "attempt", attempt, "wait", wait, "error", err)
		},
	)
}
