package sync

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/syncerr"
)

// retryPolicy drives the exponential backoff applied to transient remote
// failures within one pass. Failures outliving the budget leave the row
// dirty for a later pass.
type retryPolicy struct {
	base        time.Duration
	maxAttempts uint64
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{base: time.Second, maxAttempts: 4}
}

// do runs fn, retrying transient failures with exponential backoff. Every
// other error class returns immediately.
func (p retryPolicy) do(ctx context.Context, fn func(ctx context.Context) error) error {
	base := p.base
	if base <= 0 {
		base = time.Second
	}
	backoff := retry.WithMaxRetries(p.maxAttempts, retry.NewExponential(base))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if syncerr.Retryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
