package ports

import (
	"context"

	"github.com/ArkLabsHQ/dunder/internal/core/domain"
	"github.com/btcsuite/btcd/wire"
)

type ForwardAction int

const (
	ForwardResume ForwardAction = iota
	ForwardSettle
	ForwardFail
)

func (a ForwardAction) String() string {
	switch a {
	case ForwardResume:
		return "RESUME"
	case ForwardSettle:
		return "SETTLE"
	case ForwardFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

type FeeEstimate struct {
	FeeSat            uint64
	FeerateSatPerByte uint64
}

type OpenChannelRequest struct {
	Pubkey                 string
	LocalFundingSat        uint64
	PushSat                uint64
	Private                bool
	AllowUnconfirmedInputs bool
	ZeroConf               bool
}

// InterceptedHtlc is a forward the node holds until we resolve it.
type InterceptedHtlc struct {
	IncomingCircuitKey      domain.CircuitKey
	OutgoingRequestedChanId uint64
	OutgoingAmountMsat      uint64
	PaymentHash             []byte
}

type ForwardResolution struct {
	IncomingCircuitKey domain.CircuitKey
	Action             ForwardAction
	Preimage           []byte
}

type HtlcEvent struct {
	OutgoingChannelId uint64
	IncomingChannelId uint64
	IncomingHtlcId    uint64
	IsSettleEvent     bool
}

type PeerEvent struct {
	Pubkey string
	Online bool
}

// HtlcInterceptorStream is the long-lived bidirectional interception
// stream. Send must be safe to call from several goroutines.
type HtlcInterceptorStream interface {
	Recv() (*InterceptedHtlc, error)
	Send(resolution ForwardResolution) error
}

type HtlcEventStream interface {
	Recv() (*HtlcEvent, error)
}

type PeerEventStream interface {
	Recv() (*PeerEvent, error)
}

// LnService is the narrow surface of the managed Lightning node.
type LnService interface {
	Connect(ctx context.Context, opts domain.LnConnectionOpts) error
	IsConnected() bool
	GetInfo(ctx context.Context) (version string, pubkey string, err error)
	VerifyMessage(ctx context.Context, message []byte, signature string) (pubkey string, err error)
	EstimateFee(ctx context.Context, amountSat uint64, targetConf int32) (*FeeEstimate, error)
	ListPeers(ctx context.Context) ([]string, error)
	// ListPendingChannelPeers returns the pubkeys of peers we have a pending
	// channel open with.
	ListPendingChannelPeers(ctx context.Context) ([]string, error)
	OpenChannel(ctx context.Context, req OpenChannelRequest) (*wire.OutPoint, error)
	InterceptHtlcs(ctx context.Context) (HtlcInterceptorStream, error)
	SubscribeHtlcEvents(ctx context.Context) (HtlcEventStream, error)
	SubscribePeerEvents(ctx context.Context) (PeerEventStream, error)
	Disconnect()
}
