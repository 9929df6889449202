package application

import (
	"context"
	"fmt"
	"time"

	"github.com/ArkLabsHQ/dunder/internal/core/domain"
	"github.com/ArkLabsHQ/dunder/internal/core/ports"
	"github.com/ArkLabsHQ/dunder/utils"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

// watchSettlement waits for every part of the request to be settled within
// the configured deadline, then funds the channel. On timeout the parts not
// yet settled are failed and the request stays registered.
func (s *Service) watchSettlement(ctx context.Context, request domain.ChannelRequest) {
	logger := log.WithFields(log.Fields{
		"channel_id": request.ChannelId,
		"pubkey":     request.Pubkey,
	})
	logger.Debug("watching htlc settlements")

	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.HtlcWait)
	err := utils.Retry(waitCtx, s.cfg.SettlementPollInterval, func(ctx context.Context) (bool, error) {
		settled, err := s.repoManager.HtlcSettlements().AllSettled(ctx, request.ChannelId)
		if err != nil {
			logger.WithError(err).Warn("failed to check htlc settlements")
			return false, nil
		}
		return settled, nil
	})
	cancel()

	if err != nil {
		toFail := s.holds.expire(request.ChannelId)
		for _, part := range toFail {
			s.fail(part.stream, part.key)
		}
		logger.WithError(err).WithField("failed_parts", len(toFail)).
			Warn("htlcs not settled in time")
		return
	}

	s.openChannelForRequest(ctx, request)
}

func (s *Service) openChannelForRequest(ctx context.Context, request domain.ChannelRequest) {
	logger := log.WithFields(log.Fields{
		"channel_id": request.ChannelId,
		"pubkey":     request.Pubkey,
	})

	if err := s.fundingLocks.acquire(ctx, request.Pubkey); err != nil {
		s.holds.remove(request.ChannelId)
		logger.WithError(err).Warn("channel funding aborted")
		return
	}
	defer s.fundingLocks.release(request.Pubkey)
	// settled amounts become claimable once dropped from the hold cache
	defer s.holds.remove(request.ChannelId)

	expectedMsat := request.ExpectedAmountSat * 1000
	if heldMsat := s.holds.totalMsat(request.ChannelId); heldMsat != expectedMsat {
		logger.WithFields(log.Fields{
			"inconsistency": true,
			"held_msat":     heldMsat,
			"expected_msat": expectedMsat,
		}).Error("held amount does not match expected amount, aborting")
		return
	}

	settlements, err := s.repoManager.HtlcSettlements().GetByChannelId(ctx, request.ChannelId)
	if err != nil {
		logger.WithError(err).Error("failed to get htlc settlements, channel left unclaimed")
		return
	}
	settledSat := domain.TotalAmountSat(settlements)

	if connected, err := s.isPeerConnected(ctx, request.Pubkey); err != nil || !connected {
		logger.WithError(err).Warn("peer may not be connected, trying to open channel anyway")
	}

	channelPoint, err := s.openChannelWithRetry(ctx, logger, ports.OpenChannelRequest{
		Pubkey:                 request.Pubkey,
		Private:                true,
		AllowUnconfirmedInputs: true,
	}, settledSat)
	if err != nil {
		logger.WithError(err).Error("failed to open channel, amount left unclaimed")
		return
	}

	if err := s.markFunded(ctx, []domain.ChannelId{request.ChannelId}, channelPoint); err != nil {
		logger.WithError(err).WithField("inconsistency", true).
			Error("channel opened but failed to update channel request")
		return
	}
	logger.WithField("channel_point", channelPoint.String()).Info("channel opened")
}

// openChannelWithRetry makes up to ChannelOpenAttempts attempts, each with a
// fresh fee estimate that sizes the push amount.
func (s *Service) openChannelWithRetry(
	ctx context.Context, logger *log.Entry,
	base ports.OpenChannelRequest, settledSat uint64,
) (*wire.OutPoint, error) {
	attempt := 0
	operation := func() (*wire.OutPoint, error) {
		attempt++
		fee, err := s.estimateFee(ctx)
		if err != nil {
			return nil, err
		}
		req := base
		req.PushSat = s.cfg.pushAmountSat(settledSat, fee.FeeSat)
		return s.openChannel(ctx, logger.WithFields(log.Fields{
			"attempt": attempt,
			"fee":     btcutil.Amount(fee.FeeSat),
		}), req)
	}
	notify := func(err error, next time.Duration) {
		logger.WithError(err).WithField("attempt", attempt).
			Warnf("failed to open channel, retrying in %s", next)
	}

	b := backoff.WithMaxRetries(
		backoff.NewConstantBackOff(s.cfg.ChannelOpenRetryDelay), s.cfg.ChannelOpenAttempts-1,
	)
	return backoff.RetryNotifyWithData(operation, backoff.WithContext(b, ctx), notify)
}

// openChannel opens a channel pushing req.PushSat to the peer.
func (s *Service) openChannel(
	ctx context.Context, logger *log.Entry, req ports.OpenChannelRequest,
) (*wire.OutPoint, error) {
	req.LocalFundingSat = s.cfg.localFundingSat(req.PushSat)

	logger.WithFields(log.Fields{
		"local_funding": btcutil.Amount(req.LocalFundingSat),
		"push":          btcutil.Amount(req.PushSat),
		"zero_conf":     req.ZeroConf,
	}).Info("opening channel")
	return s.lnSvc.OpenChannel(ctx, req)
}

// markFunded closes the given requests with the funding outpoint. Parts are
// marked claimed first so that they can never be funded twice.
func (s *Service) markFunded(
	ctx context.Context, channelIds []domain.ChannelId, channelPoint *wire.OutPoint,
) error {
	if err := s.repoManager.HtlcSettlements().MarkClaimed(ctx, channelIds); err != nil {
		return fmt.Errorf("failed to mark htlc settlements claimed: %w", err)
	}
	if err := s.repoManager.ChannelRequests().MarkDone(
		ctx, channelIds, channelPoint.String(),
	); err != nil {
		return fmt.Errorf("failed to mark channel requests done: %w", err)
	}
	return nil
}
