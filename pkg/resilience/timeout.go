package resilience

import (
	"context"
	"fmt"
	"time"
)

// WithTimeout runs fn under a derived context that expires after timeout. A
// non-positive timeout runs fn directly. fn keeps running in its goroutine
// after expiry; it is expected to honor its context.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}

	bounded, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(bounded) }()

	select {
	case err := <-done:
		return err
	case <-bounded.Done():
		if ctx.Err() != nil {
			return fmt.Errorf("%s: parent context cancelled: %w", name, ctx.Err())
		}
		return fmt.Errorf("%s: %w (limit %v)", name, context.DeadlineExceeded, timeout)
	}
}
