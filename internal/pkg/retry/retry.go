package retry

import (
	"context"
	"errors"
	"time"

	"github.com/atcloud/message-center/internal/domain"
)

const backoff = 150 * time.Millisecond

// Once runs fn and retries it a single time after a short backoff when the
// failure looks transient. Domain sentinel errors describe decisions, not
// infrastructure hiccups, and are returned immediately.
func Once(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err == nil || isTerminal(err) {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(backoff):
	}
	return fn(ctx)
}

func isTerminal(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrNotEligible) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrInvalidAudience) ||
		errors.Is(err, domain.ErrBadRequest) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
