package apperr

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// readRetryDelay is the pause before the single retry of a failed read.
var readRetryDelay = 50 * time.Millisecond

// RetryRead runs an idempotent read, retrying it once if the store reported
// ErrStoreUnavailable. Any other error is returned immediately.
// Never use it for writes.
func RetryRead[T any](ctx context.Context, read func() (T, error)) (T, error) {
	op := func() (T, error) {
		v, err := read()
		if err != nil && !errors.Is(err, ErrStoreUnavailable) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(readRetryDelay)),
		backoff.WithMaxTries(2),
	)
}
