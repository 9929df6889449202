package utils

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrTimedOut = fmt.Errorf("timed out")

// Retry calls fn every interval until it reports done, fails, or ctx ends.
// An expired ctx deadline is reported as ErrTimedOut.
func Retry(
	ctx context.Context, interval time.Duration, fn func(ctx context.Context) (bool, error),
) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := fn(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrTimedOut
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
