package domain

import (
	"context"
	"fmt"
)

var (
	ErrHtlcSettlementNotFound = fmt.Errorf("htlc settlement not found")
	ErrHtlcSettlementExists   = fmt.Errorf("htlc settlement already exists")
)

// CircuitKey identifies an HTLC on the incoming side: the upstream channel
// it arrived on and its index within that channel.
type CircuitKey struct {
	ChanId uint64
	HtlcId uint64
}

func (k CircuitKey) String() string {
	return fmt.Sprintf("%d:%d", k.ChanId, k.HtlcId)
}

// HtlcSettlementKey is the replay-protection identity of a single part.
type HtlcSettlementKey struct {
	ChannelId ChannelId
	Incoming  CircuitKey
}

type HtlcSettlement struct {
	HtlcSettlementKey
	AmountSat uint64
	Settled   bool
	Claimed   bool
}

// HtlcSettlementRepository persists every part that was told to settle.
// Rows are append-only, Settled and Claimed only ever flip to true.
type HtlcSettlementRepository interface {
	Add(ctx context.Context, settlement HtlcSettlement) error
	Get(ctx context.Context, key HtlcSettlementKey) (*HtlcSettlement, error)
	GetByChannelId(ctx context.Context, channelId ChannelId) ([]HtlcSettlement, error)
	// AllSettled reports false when no part was recorded for the channel id.
	AllSettled(ctx context.Context, channelId ChannelId) (bool, error)
	MarkSettled(ctx context.Context, key HtlcSettlementKey) error
	MarkClaimed(ctx context.Context, channelIds []ChannelId) error
	// GetUnclaimed returns settled, not yet claimed parts of every request
	// registered by pubkey.
	GetUnclaimed(ctx context.Context, pubkey string) ([]HtlcSettlement, error)
	Close()
}

func TotalAmountSat(settlements []HtlcSettlement) uint64 {
	total := uint64(0)
	for _, s := range settlements {
		total += s.AmountSat
	}
	return total
}

// ChannelIds returns the distinct channel ids the given settlements belong to.
func ChannelIds(settlements []HtlcSettlement) []ChannelId {
	seen := make(map[ChannelId]struct{})
	ids := make([]ChannelId, 0)
	for _, s := range settlements {
		if _, ok := seen[s.ChannelId]; ok {
			continue
		}
		seen[s.ChannelId] = struct{}{}
		ids = append(ids, s.ChannelId)
	}
	return ids
}
