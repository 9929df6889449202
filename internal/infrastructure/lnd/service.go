package lnd

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/ArkLabsHQ/dunder/internal/core/domain"
	"github.com/ArkLabsHQ/dunder/internal/core/ports"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/routerrpc"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

var (
	ErrServiceNotConnected = fmt.Errorf("lnd service not connected")
)

type service struct {
	client   lnrpc.LightningClient
	router   routerrpc.RouterClient
	conn     *grpc.ClientConn
	macaroon string
	params   *chaincfg.Params
	lock     sync.RWMutex
}

func NewService() ports.LnService {
	return &service{}
}

func (s *service) Connect(ctx context.Context, opts domain.LnConnectionOpts) error {
	if len(opts.LnUrl) == 0 {
		return fmt.Errorf("empty lnd url")
	}

	params, err := networkParams(opts.Network)
	if err != nil {
		return err
	}

	conn, macaroon, err := getClient(opts)
	if err != nil {
		return fmt.Errorf("unable to get client: %v", err)
	}
	client := lnrpc.NewLightningClient(conn)

	info, err := client.GetInfo(getCtx(ctx, macaroon), &lnrpc.GetInfoRequest{})
	if err != nil {
		// nolint
		conn.Close()
		return fmt.Errorf("unable to get info: %v", err)
	}

	if len(info.GetVersion()) == 0 {
		// nolint
		conn.Close()
		return fmt.Errorf("something went wrong, version is empty")
	}

	if len(info.GetIdentityPubkey()) == 0 {
		// nolint
		conn.Close()
		return fmt.Errorf("something went wrong, pubkey is empty")
	}

	s.lock.Lock()
	s.client = client
	s.router = routerrpc.NewRouterClient(conn)
	s.conn = conn
	s.macaroon = macaroon
	s.params = params
	s.lock.Unlock()

	log.Infof(
		"connected to LND version %s with pubkey %s", info.GetVersion(), info.GetIdentityPubkey(),
	)

	return nil
}

func (s *service) Disconnect() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.conn != nil {
		// nolint
		s.conn.Close()
	}
	s.client = nil
	s.router = nil
	s.conn = nil
}

func (s *service) IsConnected() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.client != nil
}

func (s *service) GetInfo(ctx context.Context) (version, pubkey string, err error) {
	client, ctx, err := s.lightning(ctx)
	if err != nil {
		return
	}

	info, err := client.GetInfo(ctx, &lnrpc.GetInfoRequest{})
	if err != nil {
		return
	}

	return info.GetVersion(), info.GetIdentityPubkey(), nil
}

func (s *service) VerifyMessage(
	ctx context.Context, message []byte, signature string,
) (string, error) {
	client, ctx, err := s.lightning(ctx)
	if err != nil {
		return "", err
	}

	resp, err := client.VerifyMessage(ctx, &lnrpc.VerifyMessageRequest{
		Msg:       message,
		Signature: signature,
	})
	if err != nil {
		return "", err
	}
	if !resp.GetValid() {
		return "", nil
	}
	return resp.GetPubkey(), nil
}

func (s *service) EstimateFee(
	ctx context.Context, amountSat uint64, targetConf int32,
) (*ports.FeeEstimate, error) {
	client, ctx, err := s.lightning(ctx)
	if err != nil {
		return nil, err
	}

	s.lock.RLock()
	params := s.params
	s.lock.RUnlock()

	outputs, err := feeEstimateOutputs(params, amountSat)
	if err != nil {
		return nil, err
	}

	resp, err := client.EstimateFee(ctx, &lnrpc.EstimateFeeRequest{
		AddrToAmount: outputs,
		TargetConf:   targetConf,
	})
	if err != nil {
		return nil, err
	}

	feerate := resp.GetSatPerVbyte()
	if feerate == 0 {
		// nolint:staticcheck
		feerate = uint64(resp.GetFeerateSatPerByte())
	}
	return &ports.FeeEstimate{
		FeeSat:            uint64(resp.GetFeeSat()),
		FeerateSatPerByte: feerate,
	}, nil
}

func (s *service) ListPeers(ctx context.Context) ([]string, error) {
	client, ctx, err := s.lightning(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.ListPeers(ctx, &lnrpc.ListPeersRequest{})
	if err != nil {
		return nil, err
	}

	peers := make([]string, 0, len(resp.GetPeers()))
	for _, peer := range resp.GetPeers() {
		peers = append(peers, peer.GetPubKey())
	}
	return peers, nil
}

func (s *service) ListPendingChannelPeers(ctx context.Context) ([]string, error) {
	client, ctx, err := s.lightning(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.PendingChannels(ctx, &lnrpc.PendingChannelsRequest{})
	if err != nil {
		return nil, err
	}

	peers := make([]string, 0, len(resp.GetPendingOpenChannels()))
	for _, pending := range resp.GetPendingOpenChannels() {
		if pending.GetChannel() == nil {
			continue
		}
		peers = append(peers, pending.GetChannel().GetRemoteNodePub())
	}
	return peers, nil
}

func (s *service) OpenChannel(
	ctx context.Context, req ports.OpenChannelRequest,
) (*wire.OutPoint, error) {
	client, ctx, err := s.lightning(ctx)
	if err != nil {
		return nil, err
	}

	nodePubkey, err := hex.DecodeString(req.Pubkey)
	if err != nil {
		return nil, fmt.Errorf("invalid node pubkey: %w", err)
	}

	openReq := &lnrpc.OpenChannelRequest{
		NodePubkey:         nodePubkey,
		LocalFundingAmount: int64(req.LocalFundingSat),
		PushSat:            int64(req.PushSat),
		Private:            req.Private,
		SpendUnconfirmed:   req.AllowUnconfirmedInputs,
		TargetConf:         1,
	}
	if req.ZeroConf {
		openReq.ZeroConf = true
		openReq.CommitmentType = lnrpc.CommitmentType_ANCHORS
	}

	channelPoint, err := client.OpenChannelSync(ctx, openReq)
	if err != nil {
		return nil, err
	}

	return toOutPoint(channelPoint)
}

func (s *service) InterceptHtlcs(ctx context.Context) (ports.HtlcInterceptorStream, error) {
	router, ctx, err := s.routerClient(ctx)
	if err != nil {
		return nil, err
	}

	stream, err := router.HtlcInterceptor(ctx)
	if err != nil {
		return nil, err
	}
	return &interceptorStream{stream: stream}, nil
}

func (s *service) SubscribeHtlcEvents(ctx context.Context) (ports.HtlcEventStream, error) {
	router, ctx, err := s.routerClient(ctx)
	if err != nil {
		return nil, err
	}

	stream, err := router.SubscribeHtlcEvents(ctx, &routerrpc.SubscribeHtlcEventsRequest{})
	if err != nil {
		return nil, err
	}
	return &htlcEventStream{stream}, nil
}

func (s *service) SubscribePeerEvents(ctx context.Context) (ports.PeerEventStream, error) {
	client, ctx, err := s.lightning(ctx)
	if err != nil {
		return nil, err
	}

	stream, err := client.SubscribePeerEvents(ctx, &lnrpc.PeerEventSubscription{})
	if err != nil {
		return nil, err
	}
	return &peerEventStream{stream}, nil
}

func (s *service) lightning(
	ctx context.Context,
) (lnrpc.LightningClient, context.Context, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.client == nil {
		return nil, nil, ErrServiceNotConnected
	}
	return s.client, getCtx(ctx, s.macaroon), nil
}

func (s *service) routerClient(
	ctx context.Context,
) (routerrpc.RouterClient, context.Context, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.router == nil {
		return nil, nil, ErrServiceNotConnected
	}
	return s.router, getCtx(ctx, s.macaroon), nil
}

func toOutPoint(channelPoint *lnrpc.ChannelPoint) (*wire.OutPoint, error) {
	var (
		hash *chainhash.Hash
		err  error
	)
	// funding txid bytes come in internal (reversed) byte order
	if txidBytes := channelPoint.GetFundingTxidBytes(); len(txidBytes) > 0 {
		hash, err = chainhash.NewHash(txidBytes)
	} else {
		hash, err = chainhash.NewHashFromStr(channelPoint.GetFundingTxidStr())
	}
	if err != nil {
		return nil, fmt.Errorf("invalid funding txid: %w", err)
	}
	return wire.NewOutPoint(hash, channelPoint.GetOutputIndex()), nil
}
