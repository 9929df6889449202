package application

import (
	"context"
	"fmt"

	"github.com/ArkLabsHQ/dunder/internal/core/domain"
	"github.com/ArkLabsHQ/dunder/internal/core/ports"
	"github.com/ArkLabsHQ/dunder/utils"
	"github.com/btcsuite/btcd/wire"
	log "github.com/sirupsen/logrus"
)

// Claim funds a channel with everything the payer could not receive so far.
// It returns the claimable amount, the channel itself is opened in the
// background. Zero means nothing to claim or a funding already in progress.
func (s *Service) Claim(ctx context.Context, pubkey, signature string) (uint64, error) {
	if _, err := s.serviceCtx(); err != nil {
		return 0, err
	}
	if !utils.IsValidPubkey(pubkey) {
		return 0, ErrInvalidPubkey
	}
	if err := s.verifySignature(ctx, claimMessage, signature, pubkey); err != nil {
		return 0, err
	}

	connected, err := s.isPeerConnected(ctx, pubkey)
	if err != nil {
		return 0, err
	}
	if !connected {
		return 0, ErrPeerNotConnected
	}

	if !s.fundingLocks.tryAcquire(pubkey) {
		log.WithField("pubkey", pubkey).Debug("funding already in progress")
		return 0, nil
	}

	settlements, err := s.getClaimable(ctx, pubkey)
	if err != nil {
		s.fundingLocks.release(pubkey)
		return 0, err
	}
	amount := domain.TotalAmountSat(settlements)
	if amount == 0 {
		s.fundingLocks.release(pubkey)
		return 0, nil
	}

	ok := s.runTask(func(ctx context.Context) {
		defer s.fundingLocks.release(pubkey)
		if err := s.fundUnclaimed(ctx, pubkey, settlements); err != nil {
			log.WithError(err).WithField("pubkey", pubkey).Error("failed to fund claim")
		}
	})
	if !ok {
		s.fundingLocks.release(pubkey)
		return 0, ErrServiceNotStarted
	}
	return amount, nil
}

// getClaimable lists the settled, unclaimed parts of pubkey, leaving out
// those of requests still being paid.
func (s *Service) getClaimable(
	ctx context.Context, pubkey string,
) ([]domain.HtlcSettlement, error) {
	unclaimed, err := s.repoManager.HtlcSettlements().GetUnclaimed(ctx, pubkey)
	if err != nil {
		return nil, fmt.Errorf("failed to get unclaimed htlc settlements: %w", err)
	}
	claimable := make([]domain.HtlcSettlement, 0, len(unclaimed))
	for _, settlement := range unclaimed {
		if s.holds.has(settlement.ChannelId) {
			continue
		}
		claimable = append(claimable, settlement)
	}
	return claimable, nil
}

// fundUnclaimed opens a single channel for all the given parts, zero-conf
// first when allowed, and closes every request they belong to. The caller
// must hold the funding lock of pubkey.
func (s *Service) fundUnclaimed(
	ctx context.Context, pubkey string, settlements []domain.HtlcSettlement,
) error {
	channelIds := domain.ChannelIds(settlements)
	amount := domain.TotalAmountSat(settlements)
	logger := log.WithFields(log.Fields{
		"pubkey":      pubkey,
		"channel_ids": channelIds,
	})

	// the fee was already charged when the parts were settled
	req := ports.OpenChannelRequest{
		Pubkey:                 pubkey,
		PushSat:                amount,
		Private:                true,
		AllowUnconfirmedInputs: true,
	}

	var channelPoint *wire.OutPoint
	var err error
	if s.cfg.AllowZeroConfChannels {
		zeroConf := req
		zeroConf.ZeroConf = true
		channelPoint, err = s.openChannel(ctx, logger, zeroConf)
		if err != nil {
			logger.WithError(err).Warn("failed to open zero-conf channel, falling back")
		}
	}
	if channelPoint == nil {
		channelPoint, err = s.openChannel(ctx, logger, req)
		if err != nil {
			return fmt.Errorf("failed to open channel: %w", err)
		}
	}

	if err := s.markFunded(ctx, channelIds, channelPoint); err != nil {
		logger.WithError(err).WithField("inconsistency", true).
			Error("channel opened but failed to update channel requests")
		return err
	}
	logger.WithField("channel_point", channelPoint.String()).Info("unclaimed amount funded")
	return nil
}
