package playground

import (
	"context"
	"fmt"
	"time"

	"github.com/thesyncim/playground-e2e/pkg/playground/internal"
)

// Poll calls check every interval until it reports done, returns an error,
// or timeout elapses on clock. The timeout error wraps ErrTimeout and names
// what was awaited; the last check error, if any, is included.
func Poll(ctx context.Context, clock internal.Clock, interval, timeout time.Duration, what string, check func(context.Context) (bool, error)) error {
	deadline := clock.Now().Add(timeout)
	var lastErr error

	for {
		done, err := check(ctx)
		if err == nil && done {
			return nil
		}
		lastErr = err

		if !clock.Now().Before(deadline) {
			if lastErr != nil {
				return fmt.Errorf("waiting for %s (waited %v): %w: %v", what, timeout, ErrTimeout, lastErr)
			}
			return fmt.Errorf("waiting for %s (waited %v): %w", what, timeout, ErrTimeout)
		}

		if err := clock.Sleep(ctx, interval); err != nil {
			return fmt.Errorf("waiting for %s: %w", what, err)
		}
	}
}
