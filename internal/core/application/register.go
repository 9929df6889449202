package application

import (
	"context"
	"fmt"
	"time"

	"github.com/ArkLabsHQ/dunder/internal/core/domain"
	"github.com/ArkLabsHQ/dunder/internal/core/ports"
	"github.com/ArkLabsHQ/dunder/utils"
	log "github.com/sirupsen/logrus"
)

// Register validates a liquidity request and hands out the fake channel id
// the payer must route its payment to. Nothing is persisted unless every
// check passes.
func (s *Service) Register(
	ctx context.Context, pubkey, signature, preimage string, amountSat uint64,
) (*RegisterResult, error) {
	if _, err := s.serviceCtx(); err != nil {
		return nil, err
	}
	if !utils.IsValidPubkey(pubkey) {
		return nil, ErrInvalidPubkey
	}
	if _, err := parsePreimage(preimage); err != nil {
		return nil, err
	}

	if err := s.verifySignature(ctx, registerMessage, signature, pubkey); err != nil {
		return nil, err
	}

	fee, err := s.estimateFee(ctx)
	if err != nil {
		return nil, err
	}
	if s.cfg.feesTooHigh(*fee) {
		return nil, ErrFeesTooHigh
	}

	minimumSat := s.cfg.minimumPaymentSat(fee.FeeSat)
	if amountSat < minimumSat {
		return nil, fmt.Errorf("%w, minimum is %d sat", ErrAmountTooLow, minimumSat)
	}
	if amountSat > s.cfg.MaximumPaymentSat {
		return nil, fmt.Errorf("%w, maximum is %d sat", ErrAmountTooHigh, s.cfg.MaximumPaymentSat)
	}

	connected, err := s.isPeerConnected(ctx, pubkey)
	if err != nil {
		return nil, err
	}
	if !connected {
		return nil, ErrPeerNotConnected
	}

	channelId, err := s.newChannelId(ctx)
	if err != nil {
		return nil, err
	}

	request := domain.ChannelRequest{
		ChannelId:         channelId,
		Pubkey:            pubkey,
		Preimage:          preimage,
		Status:            domain.ChannelRequestRegistered,
		Start:             time.Now().Unix(),
		Expire:            domain.DefaultChannelRequestExpiry,
		ExpectedAmountSat: amountSat,
	}
	if err := s.repoManager.ChannelRequests().Add(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to store channel request: %w", err)
	}

	log.WithFields(log.Fields{
		"channel_id": channelId,
		"scid":       channelId.Scid(),
		"pubkey":     pubkey,
		"amount_sat": amountSat,
	}).Info("channel request registered")

	return &RegisterResult{
		ServicePubkey:             s.ServicePubkey(),
		FakeChannelId:             channelId,
		CltvExpiryDelta:           s.cfg.CltvExpiryDelta,
		FeeBaseMsat:               s.cfg.FeeBaseMsat,
		FeeProportionalMillionths: s.cfg.FeeProportionalMillionths,
	}, nil
}

// GetServiceStatus reports whether registrations are currently accepted and
// at which bounds. A failing fee estimate closes the service.
func (s *Service) GetServiceStatus(ctx context.Context) (*ServiceStatus, error) {
	if _, err := s.serviceCtx(); err != nil {
		return nil, err
	}

	peer := s.ServicePubkey()
	if s.cfg.LndNode != "" {
		peer = fmt.Sprintf("%s@%s", peer, s.cfg.LndNode)
	}
	status := &ServiceStatus{
		MinimumPaymentSat: s.cfg.MinChannelSizeSat,
		MaximumPaymentSat: s.cfg.MaximumPaymentSat,
		Peer:              peer,
	}

	fee, err := s.estimateFee(ctx)
	if err != nil {
		log.WithError(err).Warn("service closed, fee estimate unavailable")
		return status, nil
	}

	status.Status = !s.cfg.feesTooHigh(*fee)
	status.ApproxFeeSat = fee.FeeSat
	status.MinimumPaymentSat = s.cfg.minimumPaymentSat(fee.FeeSat)
	return status, nil
}

// CheckStatus returns the state of the payer's most recent request and the
// amount it could claim right now.
func (s *Service) CheckStatus(
	ctx context.Context, pubkey, signature string,
) (*CheckStatusResult, error) {
	if _, err := s.serviceCtx(); err != nil {
		return nil, err
	}
	if !utils.IsValidPubkey(pubkey) {
		return nil, ErrInvalidPubkey
	}
	if err := s.verifySignature(ctx, checkStatusMessage, signature, pubkey); err != nil {
		return nil, err
	}

	requests, err := s.repoManager.ChannelRequests().GetByPubkey(ctx, pubkey)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel requests: %w", err)
	}
	state := domain.ChannelRequestNotRegistered
	if len(requests) > 0 {
		state = requests[0].Status
	}

	unclaimed, err := s.getClaimable(ctx, pubkey)
	if err != nil {
		return nil, err
	}

	return &CheckStatusResult{
		State:              state,
		UnclaimedAmountSat: domain.TotalAmountSat(unclaimed),
	}, nil
}

func (s *Service) estimateFee(ctx context.Context) (*ports.FeeEstimate, error) {
	fee, err := s.lnSvc.EstimateFee(ctx, s.cfg.MaximumPaymentSat, s.cfg.FeeTargetConf)
	if err != nil {
		log.WithError(err).Warn("failed to estimate fee")
		return nil, fmt.Errorf("%w: %s", ErrFeeEstimateUnavailable, err)
	}
	return fee, nil
}
