// Package mocklnd is an in-memory Lightning node used to drive the lsp
// service in tests. Forwards, settle events and peer events are injected by
// the test, resolutions sent by the service are recorded.
package mocklnd

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/ArkLabsHQ/dunder/internal/core/domain"
	"github.com/ArkLabsHQ/dunder/internal/core/ports"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

const signatureSeparator = "|"

var ErrNotConnected = fmt.Errorf("node not connected")

// Sign returns the only signature the fake node accepts for message by
// pubkey.
func Sign(message, pubkey string) string {
	return message + signatureSeparator + pubkey
}

type Service struct {
	lock sync.Mutex

	connected bool
	pubkey    string
	peers     []string
	pending   []string

	fee    ports.FeeEstimate
	feeErr error

	openFailures     int
	zeroConfFailures bool
	opened           []ports.OpenChannelRequest

	forwards    chan *ports.InterceptedHtlc
	resolutions chan ports.ForwardResolution
	htlcEvents  chan *ports.HtlcEvent
	peerEvents  chan *ports.PeerEvent
}

func NewService(pubkey string) *Service {
	return &Service{
		pubkey: pubkey,
		fee: ports.FeeEstimate{
			FeeSat:            1000,
			FeerateSatPerByte: 5,
		},
		forwards:    make(chan *ports.InterceptedHtlc, 100),
		resolutions: make(chan ports.ForwardResolution, 100),
		htlcEvents:  make(chan *ports.HtlcEvent, 100),
		peerEvents:  make(chan *ports.PeerEvent, 100),
	}
}

func (s *Service) Connect(_ context.Context, _ domain.LnConnectionOpts) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.connected = true
	return nil
}

func (s *Service) IsConnected() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.connected
}

func (s *Service) Disconnect() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.connected = false
}

func (s *Service) GetInfo(_ context.Context) (string, string, error) {
	if !s.IsConnected() {
		return "", "", ErrNotConnected
	}
	return "0.18.0-mock", s.pubkey, nil
}

func (s *Service) VerifyMessage(
	_ context.Context, message []byte, signature string,
) (string, error) {
	signed, pubkey, ok := strings.Cut(signature, signatureSeparator)
	if !ok || signed != string(message) {
		return "", nil
	}
	return pubkey, nil
}

func (s *Service) EstimateFee(
	_ context.Context, _ uint64, _ int32,
) (*ports.FeeEstimate, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.feeErr != nil {
		return nil, s.feeErr
	}
	fee := s.fee
	return &fee, nil
}

func (s *Service) ListPeers(_ context.Context) ([]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return slices.Clone(s.peers), nil
}

func (s *Service) ListPendingChannelPeers(_ context.Context) ([]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return slices.Clone(s.pending), nil
}

func (s *Service) OpenChannel(
	_ context.Context, req ports.OpenChannelRequest,
) (*wire.OutPoint, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if req.ZeroConf && s.zeroConfFailures {
		return nil, fmt.Errorf("zero-conf channels not supported by peer")
	}
	if s.openFailures > 0 {
		s.openFailures--
		return nil, fmt.Errorf("not enough funds to open channel")
	}

	s.opened = append(s.opened, req)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(len(s.opened)))
	hash := chainhash.Hash(sha256.Sum256(buf[:]))
	return wire.NewOutPoint(&hash, 0), nil
}

func (s *Service) InterceptHtlcs(ctx context.Context) (ports.HtlcInterceptorStream, error) {
	if !s.IsConnected() {
		return nil, ErrNotConnected
	}
	return &interceptorStream{ctx: ctx, svc: s}, nil
}

func (s *Service) SubscribeHtlcEvents(ctx context.Context) (ports.HtlcEventStream, error) {
	if !s.IsConnected() {
		return nil, ErrNotConnected
	}
	return &eventStream[ports.HtlcEvent]{ctx: ctx, events: s.htlcEvents}, nil
}

func (s *Service) SubscribePeerEvents(ctx context.Context) (ports.PeerEventStream, error) {
	if !s.IsConnected() {
		return nil, ErrNotConnected
	}
	return &eventStream[ports.PeerEvent]{ctx: ctx, events: s.peerEvents}, nil
}

// Test controls.

func (s *Service) SetPeers(pubkeys ...string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.peers = pubkeys
}

func (s *Service) SetPendingChannelPeers(pubkeys ...string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.pending = pubkeys
}

func (s *Service) SetFee(fee ports.FeeEstimate, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.fee = fee
	s.feeErr = err
}

// FailOpenChannel makes the next n channel opens fail.
func (s *Service) FailOpenChannel(n int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.openFailures = n
}

func (s *Service) RejectZeroConf(reject bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.zeroConfFailures = reject
}

func (s *Service) OpenedChannels() []ports.OpenChannelRequest {
	s.lock.Lock()
	defer s.lock.Unlock()
	return slices.Clone(s.opened)
}

// Forward hands an htlc to the interceptor.
func (s *Service) Forward(htlc ports.InterceptedHtlc) {
	s.forwards <- &htlc
}

// Resolutions returns the resolutions sent by the interceptor, in order.
func (s *Service) Resolutions() <-chan ports.ForwardResolution {
	return s.resolutions
}

// SettleHtlc emits the settle event of an htlc forwarded to channelId.
func (s *Service) SettleHtlc(channelId uint64, key domain.CircuitKey) {
	s.htlcEvents <- &ports.HtlcEvent{
		OutgoingChannelId: channelId,
		IncomingChannelId: key.ChanId,
		IncomingHtlcId:    key.HtlcId,
		IsSettleEvent:     true,
	}
}

func (s *Service) PeerOnline(pubkey string) {
	s.peerEvents <- &ports.PeerEvent{Pubkey: pubkey, Online: true}
}

type interceptorStream struct {
	ctx context.Context
	svc *Service
}

func (s *interceptorStream) Recv() (*ports.InterceptedHtlc, error) {
	select {
	case htlc := <-s.svc.forwards:
		return htlc, nil
	case <-s.ctx.Done():
		return nil, s.ctx.Err()
	}
}

func (s *interceptorStream) Send(resolution ports.ForwardResolution) error {
	select {
	case s.svc.resolutions <- resolution:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

type eventStream[T any] struct {
	ctx    context.Context
	events chan *T
}

func (s *eventStream[T]) Recv() (*T, error) {
	select {
	case event := <-s.events:
		return event, nil
	case <-s.ctx.Done():
		return nil, s.ctx.Err()
	}
}
