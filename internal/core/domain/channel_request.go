package domain

import (
	"context"
	"fmt"
	"strconv"

	"github.com/lightningnetwork/lnd/lnwire"
)

type ChannelRequestStatus string

const (
	ChannelRequestNotRegistered ChannelRequestStatus = "NOT_REGISTERED"
	ChannelRequestRegistered    ChannelRequestStatus = "REGISTERED"
	ChannelRequestDone          ChannelRequestStatus = "DONE"
)

// DefaultChannelRequestExpiry is informational only, the intercept path
// never enforces it.
const DefaultChannelRequestExpiry = int64(600)

var ErrChannelRequestNotFound = fmt.Errorf("channel request not found")

// ChannelId is the fake short channel id handed out at registration. It
// correlates intercepted HTLCs to their channel request until a real
// channel exists.
type ChannelId uint64

func (c ChannelId) String() string {
	return strconv.FormatUint(uint64(c), 10)
}

// Scid renders the id the way lnd prints short channel ids (block:tx:out).
func (c ChannelId) Scid() string {
	return lnwire.NewShortChanIDFromInt(uint64(c)).String()
}

func ParseChannelId(s string) (ChannelId, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid channel id %q: %w", s, err)
	}
	return ChannelId(id), nil
}

type ChannelRequest struct {
	ChannelId         ChannelId
	Pubkey            string
	Preimage          string
	Status            ChannelRequestStatus
	Start             int64
	Expire            int64
	ExpectedAmountSat uint64
	ChannelPoint      string
}

func (r ChannelRequest) IsDone() bool {
	return r.Status == ChannelRequestDone
}

// ChannelRequestRepository persists channel requests. Requests are never
// deleted and only Status/ChannelPoint ever change, always together.
type ChannelRequestRepository interface {
	Add(ctx context.Context, request ChannelRequest) error
	Get(ctx context.Context, channelId ChannelId) (*ChannelRequest, error)
	// GetByPubkey returns the requests of the given payer, newest first.
	GetByPubkey(ctx context.Context, pubkey string) ([]ChannelRequest, error)
	MarkDone(ctx context.Context, channelIds []ChannelId, channelPoint string) error
	Close()
}
