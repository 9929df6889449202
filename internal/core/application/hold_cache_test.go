package application

import (
	"testing"

	"github.com/ArkLabsHQ/dunder/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestHoldCache(t *testing.T) {
	channelId := domain.ChannelId(42)
	part := func(chanId, htlcId, amountMsat uint64) heldHtlc {
		return heldHtlc{
			key:        domain.CircuitKey{ChanId: chanId, HtlcId: htlcId},
			amountMsat: amountMsat,
		}
	}

	t.Run("accumulate until expected", func(t *testing.T) {
		cache := newHoldCache()

		isFirst, toSettle, err := cache.add(channelId, part(1, 1, 40_000), 100_000)
		require.NoError(t, err)
		require.True(t, isFirst)
		require.Empty(t, toSettle)

		isFirst, toSettle, err = cache.add(channelId, part(1, 2, 60_000), 100_000)
		require.NoError(t, err)
		require.False(t, isFirst)
		require.Len(t, toSettle, 2)
		require.Equal(t, uint64(100_000), cache.totalMsat(channelId))

		_, _, err = cache.add(channelId, part(1, 3, 1), 100_000)
		require.ErrorIs(t, err, errAlreadyComplete)
	})

	t.Run("overshoot", func(t *testing.T) {
		cache := newHoldCache()

		_, _, err := cache.add(channelId, part(1, 1, 70_000), 100_000)
		require.NoError(t, err)
		_, _, err = cache.add(channelId, part(1, 2, 40_000), 100_000)
		require.ErrorIs(t, err, errOvershoot)
		require.Equal(t, uint64(70_000), cache.totalMsat(channelId))
	})

	t.Run("redelivered part", func(t *testing.T) {
		cache := newHoldCache()

		_, _, err := cache.add(channelId, part(1, 1, 50_000), 100_000)
		require.NoError(t, err)
		isFirst, toSettle, err := cache.add(channelId, part(1, 1, 50_000), 100_000)
		require.NoError(t, err)
		require.False(t, isFirst)
		require.Empty(t, toSettle)
		require.Equal(t, uint64(50_000), cache.totalMsat(channelId))
	})

	t.Run("expire", func(t *testing.T) {
		cache := newHoldCache()

		_, _, err := cache.add(channelId, part(1, 1, 30_000), 100_000)
		require.NoError(t, err)
		_, _, err = cache.add(channelId, part(2, 1, 30_000), 100_000)
		require.NoError(t, err)
		require.True(t, cache.markSettled(channelId, domain.CircuitKey{ChanId: 2, HtlcId: 1}))
		require.False(t, cache.markSettled(channelId, domain.CircuitKey{ChanId: 3, HtlcId: 1}))

		toFail := cache.expire(channelId)
		require.Len(t, toFail, 1)
		require.Equal(t, domain.CircuitKey{ChanId: 1, HtlcId: 1}, toFail[0].key)
		require.False(t, cache.has(channelId))
		require.Nil(t, cache.expire(channelId))
	})

	t.Run("expire complete", func(t *testing.T) {
		cache := newHoldCache()

		_, toSettle, err := cache.add(channelId, part(1, 1, 100_000), 100_000)
		require.NoError(t, err)
		require.Len(t, toSettle, 1)
		require.Empty(t, cache.expire(channelId))
	})

	t.Run("abort", func(t *testing.T) {
		cache := newHoldCache()

		_, _, err := cache.add(channelId, part(1, 1, 100_000), 100_000)
		require.NoError(t, err)
		require.Len(t, cache.abort(channelId), 1)
		require.False(t, cache.has(channelId))
	})
}
