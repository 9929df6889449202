package application

import (
	"context"
	"errors"

	"github.com/ArkLabsHQ/dunder/internal/core/domain"
	"github.com/ArkLabsHQ/dunder/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

func (s *Service) listenHtlcEvents(ctx context.Context) error {
	for {
		stream, err := connectStreamWithRetry(
			ctx, "htlc events", s.cfg.StreamReconnectDelay, s.lnSvc.SubscribeHtlcEvents,
		)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		log.Debug("subscribed to htlc events")

		for {
			event, err := stream.Recv()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.WithError(err).Warn("htlc event stream closed")
				break
			}
			s.handleHtlcEvent(ctx, event)
		}
	}
}

// handleHtlcEvent records the settlement of a part we told the node to
// settle. Events for htlcs unknown to us are ignored.
func (s *Service) handleHtlcEvent(ctx context.Context, event *ports.HtlcEvent) {
	if !event.IsSettleEvent {
		return
	}

	key := domain.HtlcSettlementKey{
		ChannelId: domain.ChannelId(event.OutgoingChannelId),
		Incoming: domain.CircuitKey{
			ChanId: event.IncomingChannelId,
			HtlcId: event.IncomingHtlcId,
		},
	}
	logger := log.WithFields(log.Fields{
		"channel_id":       key.ChannelId,
		"incoming_chan_id": key.Incoming.ChanId,
		"htlc_id":          key.Incoming.HtlcId,
	})

	if !s.holds.markSettled(key.ChannelId, key.Incoming) {
		// the deadline may have passed after the parts were told to settle
		settlement, err := s.repoManager.HtlcSettlements().Get(ctx, key)
		if err != nil {
			if !errors.Is(err, domain.ErrHtlcSettlementNotFound) {
				logger.WithError(err).Warn("failed to get htlc settlement")
			}
			logger.Debug("ignoring settle event for unknown htlc")
			return
		}
		if settlement.Settled {
			return
		}
		logger.Info("late settle event for held htlc")
	}

	if err := s.repoManager.HtlcSettlements().MarkSettled(ctx, key); err != nil {
		if errors.Is(err, domain.ErrHtlcSettlementNotFound) {
			logger.WithField("inconsistency", true).
				Error("settled htlc has no settlement record")
			return
		}
		logger.WithError(err).Error("failed to mark htlc settlement settled")
		return
	}
	logger.Debug("htlc settled")
}
