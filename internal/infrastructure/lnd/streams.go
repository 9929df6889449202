package lnd

import (
	"sync"

	"github.com/ArkLabsHQ/dunder/internal/core/domain"
	"github.com/ArkLabsHQ/dunder/internal/core/ports"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/routerrpc"
)

type interceptorStream struct {
	stream routerrpc.Router_HtlcInterceptorClient
	lock   sync.Mutex
}

func (s *interceptorStream) Recv() (*ports.InterceptedHtlc, error) {
	req, err := s.stream.Recv()
	if err != nil {
		return nil, err
	}
	var key domain.CircuitKey
	if k := req.GetIncomingCircuitKey(); k != nil {
		key = domain.CircuitKey{ChanId: k.GetChanId(), HtlcId: k.GetHtlcId()}
	}
	return &ports.InterceptedHtlc{
		IncomingCircuitKey:      key,
		OutgoingRequestedChanId: req.GetOutgoingRequestedChanId(),
		OutgoingAmountMsat:      req.GetOutgoingAmountMsat(),
		PaymentHash:             req.GetPaymentHash(),
	}, nil
}

// grpc streams do not allow concurrent Send calls.
func (s *interceptorStream) Send(resolution ports.ForwardResolution) error {
	resp := &routerrpc.ForwardHtlcInterceptResponse{
		IncomingCircuitKey: &routerrpc.CircuitKey{
			ChanId: resolution.IncomingCircuitKey.ChanId,
			HtlcId: resolution.IncomingCircuitKey.HtlcId,
		},
		Action: toResolveAction(resolution.Action),
	}
	if resolution.Action == ports.ForwardSettle {
		resp.Preimage = resolution.Preimage
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	return s.stream.Send(resp)
}

type htlcEventStream struct {
	stream routerrpc.Router_SubscribeHtlcEventsClient
}

func (s *htlcEventStream) Recv() (*ports.HtlcEvent, error) {
	event, err := s.stream.Recv()
	if err != nil {
		return nil, err
	}
	return &ports.HtlcEvent{
		OutgoingChannelId: event.GetOutgoingChannelId(),
		IncomingChannelId: event.GetIncomingChannelId(),
		IncomingHtlcId:    event.GetIncomingHtlcId(),
		IsSettleEvent:     event.GetSettleEvent() != nil,
	}, nil
}

type peerEventStream struct {
	stream lnrpc.Lightning_SubscribePeerEventsClient
}

func (s *peerEventStream) Recv() (*ports.PeerEvent, error) {
	event, err := s.stream.Recv()
	if err != nil {
		return nil, err
	}
	return &ports.PeerEvent{
		Pubkey: event.GetPubKey(),
		Online: event.GetType() == lnrpc.PeerEvent_PEER_ONLINE,
	}, nil
}

func toResolveAction(action ports.ForwardAction) routerrpc.ResolveHoldForwardAction {
	switch action {
	case ports.ForwardSettle:
		return routerrpc.ResolveHoldForwardAction_SETTLE
	case ports.ForwardFail:
		return routerrpc.ResolveHoldForwardAction_FAIL
	default:
		return routerrpc.ResolveHoldForwardAction_RESUME
	}
}
