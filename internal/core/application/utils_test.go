package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnectStreamWithRetry(t *testing.T) {
	t.Run("reconnects with a fixed delay", func(t *testing.T) {
		const (
			failures = 10
			delay    = 10 * time.Millisecond
		)

		attempts := 0
		start := time.Now()
		stream, err := connectStreamWithRetry(
			context.Background(), "test", delay,
			func(context.Context) (string, error) {
				attempts++
				if attempts <= failures {
					return "", fmt.Errorf("connection refused")
				}
				return "stream", nil
			},
		)
		elapsed := time.Since(start)

		require.NoError(t, err)
		require.Equal(t, "stream", stream)
		require.Equal(t, failures+1, attempts)
		require.GreaterOrEqual(t, elapsed, failures*delay)
		// a growing backoff would wait several times longer
		require.Less(t, elapsed, 4*failures*delay)
	})

	t.Run("stops when ctx is done", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := connectStreamWithRetry(
			ctx, "test", 10*time.Millisecond,
			func(context.Context) (string, error) {
				return "", fmt.Errorf("connection refused")
			},
		)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
