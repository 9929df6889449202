package application

import (
	"context"
	"errors"

	"github.com/ArkLabsHQ/dunder/internal/core/domain"
	"github.com/ArkLabsHQ/dunder/internal/core/ports"
	"github.com/lightningnetwork/lnd/lntypes"
	log "github.com/sirupsen/logrus"
)

func (s *Service) listenInterceptedHtlcs(ctx context.Context) error {
	for {
		stream, err := connectStreamWithRetry(
			ctx, "htlc interceptor", s.cfg.StreamReconnectDelay, s.lnSvc.InterceptHtlcs,
		)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		log.Debug("intercepting htlcs")

		for {
			htlc, err := stream.Recv()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.WithError(err).Warn("htlc interceptor stream closed")
				break
			}
			s.handleInterceptedHtlc(ctx, stream, htlc)
		}
	}
}

// handleInterceptedHtlc decides what to do with a forward. Htlcs not meant
// for one of our fake channels are resumed, the others are held until the
// whole expected amount arrived, or failed.
func (s *Service) handleInterceptedHtlc(
	ctx context.Context, stream ports.HtlcInterceptorStream, htlc *ports.InterceptedHtlc,
) {
	channelId := domain.ChannelId(htlc.OutgoingRequestedChanId)
	logger := log.WithFields(log.Fields{
		"channel_id":       channelId,
		"scid":             channelId.Scid(),
		"incoming_chan_id": htlc.IncomingCircuitKey.ChanId,
		"htlc_id":          htlc.IncomingCircuitKey.HtlcId,
		"amount_msat":      htlc.OutgoingAmountMsat,
	})

	request, err := s.repoManager.ChannelRequests().Get(ctx, channelId)
	if err != nil {
		if !errors.Is(err, domain.ErrChannelRequestNotFound) {
			logger.WithError(err).Error("failed to get channel request, resuming htlc")
		}
		s.resolve(stream, htlc.IncomingCircuitKey, ports.ForwardResume, nil)
		return
	}
	logger = logger.WithField("pubkey", request.Pubkey)

	key := domain.HtlcSettlementKey{ChannelId: channelId, Incoming: htlc.IncomingCircuitKey}
	if _, err := s.repoManager.HtlcSettlements().Get(ctx, key); err == nil {
		logger.Warn("htlc already processed, failing")
		s.fail(stream, htlc.IncomingCircuitKey)
		return
	} else if !errors.Is(err, domain.ErrHtlcSettlementNotFound) {
		logger.WithError(err).Error("failed to get htlc settlement, failing htlc")
		s.fail(stream, htlc.IncomingCircuitKey)
		return
	}

	if request.IsDone() {
		logger.Warn("channel request already done, failing htlc")
		s.fail(stream, htlc.IncomingCircuitKey)
		return
	}

	preimage, err := parsePreimage(request.Preimage)
	if err != nil || !matchesPaymentHash(preimage, htlc.PaymentHash) {
		logger.Warn("payment hash mismatch, failing htlc")
		s.fail(stream, htlc.IncomingCircuitKey)
		return
	}

	connected, err := s.isPeerConnected(ctx, request.Pubkey)
	if err != nil {
		logger.WithError(err).Warn("failed to check peer connection, failing htlc")
		s.fail(stream, htlc.IncomingCircuitKey)
		return
	}
	if !connected {
		logger.Warn("peer not connected, failing htlc")
		s.fail(stream, htlc.IncomingCircuitKey)
		return
	}

	if !s.holds.has(channelId) {
		settlements, err := s.repoManager.HtlcSettlements().GetByChannelId(ctx, channelId)
		if err != nil {
			logger.WithError(err).Error("failed to get htlc settlements, failing htlc")
			s.fail(stream, htlc.IncomingCircuitKey)
			return
		}
		if len(settlements) > 0 {
			logger.Warn("channel request already paid, failing htlc")
			s.fail(stream, htlc.IncomingCircuitKey)
			return
		}
	}

	expectedMsat := request.ExpectedAmountSat * 1000
	isFirst, toSettle, err := s.holds.add(channelId, heldHtlc{
		key:        htlc.IncomingCircuitKey,
		amountMsat: htlc.OutgoingAmountMsat,
		stream:     stream,
	}, expectedMsat)
	if err != nil {
		logger.WithError(err).Warn("failing htlc")
		s.fail(stream, htlc.IncomingCircuitKey)
		return
	}

	if isFirst {
		if !s.runTask(func(ctx context.Context) { s.watchSettlement(ctx, *request) }) {
			logger.Warn("service stopping, failing htlc")
			for _, part := range s.holds.abort(channelId) {
				s.fail(part.stream, part.key)
			}
			return
		}
	}

	logger.WithField("held_msat", s.holds.totalMsat(channelId)).Info("htlc held")

	if len(toSettle) > 0 {
		s.settleParts(ctx, *request, preimage, toSettle)
	}
}

// settleParts records every part before releasing the preimage, so that a
// settlement event never precedes its row.
func (s *Service) settleParts(
	ctx context.Context, request domain.ChannelRequest,
	preimage lntypes.Preimage, parts []heldHtlc,
) {
	logger := log.WithFields(log.Fields{
		"channel_id": request.ChannelId,
		"pubkey":     request.Pubkey,
	})

	// parts add up to the expected amount, the last one takes the msat
	// remainders the others were rounded down by
	var recordedSat uint64
	for i, part := range parts {
		amountSat := part.amountMsat / 1000
		if i == len(parts)-1 {
			amountSat = request.ExpectedAmountSat - recordedSat
		}
		recordedSat += amountSat

		if err := s.repoManager.HtlcSettlements().Add(ctx, domain.HtlcSettlement{
			HtlcSettlementKey: domain.HtlcSettlementKey{
				ChannelId: request.ChannelId,
				Incoming:  part.key,
			},
			AmountSat: amountSat,
		}); err != nil {
			logger.WithError(err).WithField("inconsistency", true).
				Error("failed to store htlc settlement, failing all parts")
			for _, p := range s.holds.abort(request.ChannelId) {
				s.fail(p.stream, p.key)
			}
			return
		}
	}

	for _, part := range parts {
		s.resolve(part.stream, part.key, ports.ForwardSettle, preimage[:])
	}
	logger.WithField("parts", len(parts)).Info("expected amount reached, htlcs settled")
}

func (s *Service) fail(stream ports.HtlcInterceptorStream, key domain.CircuitKey) {
	s.resolve(stream, key, ports.ForwardFail, nil)
}

func (s *Service) resolve(
	stream ports.HtlcInterceptorStream, key domain.CircuitKey,
	action ports.ForwardAction, preimage []byte,
) {
	if err := stream.Send(ports.ForwardResolution{
		IncomingCircuitKey: key,
		Action:             action,
		Preimage:           preimage,
	}); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"incoming_chan_id": key.ChanId,
			"htlc_id":          key.HtlcId,
			"action":           action,
		}).Warn("failed to resolve htlc")
	}
}
