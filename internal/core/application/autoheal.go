package application

import (
	"context"
	"slices"

	"github.com/ArkLabsHQ/dunder/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

func (s *Service) listenPeerEvents(ctx context.Context) error {
	for {
		stream, err := connectStreamWithRetry(
			ctx, "peer events", s.cfg.StreamReconnectDelay, s.lnSvc.SubscribePeerEvents,
		)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		log.Debug("subscribed to peer events")

		for {
			event, err := stream.Recv()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.WithError(err).Warn("peer event stream closed")
				break
			}
			if !event.Online {
				continue
			}
			pubkey := event.Pubkey
			s.runTask(func(ctx context.Context) {
				s.autoHeal(ctx, pubkey)
			})
		}
	}
}

// autoHealConnectedPeers tries to fund the unclaimed amounts of every peer
// currently connected.
func (s *Service) autoHealConnectedPeers(ctx context.Context) {
	peers, err := s.lnSvc.ListPeers(ctx)
	if err != nil {
		log.WithError(err).Warn("auto heal: failed to list peers")
		return
	}
	for _, pubkey := range peers {
		if ctx.Err() != nil {
			return
		}
		s.autoHeal(ctx, pubkey)
	}
}

// autoHeal funds a channel for the unclaimed amount of pubkey, unless a
// funding is already in progress or pending on chain.
func (s *Service) autoHeal(ctx context.Context, pubkey string) {
	logger := log.WithField("pubkey", pubkey)

	if !s.fundingLocks.tryAcquire(pubkey) {
		logger.Debug("auto heal: funding already in progress")
		return
	}
	defer s.fundingLocks.release(pubkey)

	pending, err := s.lnSvc.ListPendingChannelPeers(ctx)
	if err != nil {
		logger.WithError(err).Warn("auto heal: failed to list pending channels")
		return
	}
	if slices.Contains(pending, pubkey) {
		logger.Debug("auto heal: channel already pending")
		return
	}

	settlements, err := s.getClaimable(ctx, pubkey)
	if err != nil {
		logger.WithError(err).Warn("auto heal: failed to get claimable amount")
		return
	}
	if domain.TotalAmountSat(settlements) == 0 {
		return
	}

	logger.WithField("amount_sat", domain.TotalAmountSat(settlements)).
		Info("auto heal: funding unclaimed amount")
	if err := s.fundUnclaimed(ctx, pubkey, settlements); err != nil {
		logger.WithError(err).Error("auto heal failed")
	}
}
