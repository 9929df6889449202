package application

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ArkLabsHQ/dunder/internal/core/domain"
	"github.com/cenkalti/backoff/v4"
	"github.com/lightningnetwork/lnd/lntypes"
	log "github.com/sirupsen/logrus"
)

const maxChannelIdAttempts = 10

// newChannelId draws random 8-byte ids until one is unused.
func (s *Service) newChannelId(ctx context.Context) (domain.ChannelId, error) {
	var buf [8]byte
	for i := 0; i < maxChannelIdAttempts; i++ {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, fmt.Errorf("failed to generate channel id: %w", err)
		}
		channelId := domain.ChannelId(binary.BigEndian.Uint64(buf[:]))
		if channelId == 0 {
			continue
		}

		_, err := s.repoManager.ChannelRequests().Get(ctx, channelId)
		if errors.Is(err, domain.ErrChannelRequestNotFound) {
			return channelId, nil
		}
		if err != nil {
			return 0, err
		}
		log.WithField("channel_id", channelId).Debug("channel id collision, retrying")
	}
	return 0, fmt.Errorf("failed to generate a unique channel id")
}

// verifySignature checks that signature over message was made by pubkey.
func (s *Service) verifySignature(
	ctx context.Context, message, signature, pubkey string,
) error {
	signer, err := s.lnSvc.VerifyMessage(ctx, []byte(message), signature)
	if err != nil {
		return fmt.Errorf("failed to verify signature: %w", err)
	}
	if signer == "" || signer != pubkey {
		return ErrPubkeyMismatch
	}
	return nil
}

func (s *Service) isPeerConnected(ctx context.Context, pubkey string) (bool, error) {
	peers, err := s.lnSvc.ListPeers(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list peers: %w", err)
	}
	return slices.Contains(peers, pubkey), nil
}

func parsePreimage(preimage string) (lntypes.Preimage, error) {
	p, err := lntypes.MakePreimageFromStr(preimage)
	if err != nil {
		return lntypes.Preimage{}, ErrInvalidPreimage
	}
	return p, nil
}

// matchesPaymentHash binds an intercepted htlc to the registered preimage.
func matchesPaymentHash(preimage lntypes.Preimage, paymentHash []byte) bool {
	hash, err := lntypes.MakeHash(paymentHash)
	if err != nil {
		return false
	}
	return preimage.Matches(hash)
}

// connectStreamWithRetry opens a node subscription, retrying every delay
// until it succeeds or ctx is done.
func connectStreamWithRetry[T any](
	ctx context.Context, name string, delay time.Duration,
	connect func(context.Context) (T, error),
) (T, error) {
	b := backoff.NewConstantBackOff(delay)

	attempt := 0
	operation := func() (T, error) {
		attempt++
		stream, err := connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return stream, backoff.Permanent(ctx.Err())
			}
			return stream, err
		}
		if attempt > 1 {
			log.WithField("attempt", attempt).Infof("successfully reconnected to %s stream", name)
		}
		return stream, nil
	}
	notify := func(err error, next time.Duration) {
		log.WithError(err).WithFields(log.Fields{
			"attempt": attempt,
			"backoff": next,
		}).Warnf("failed to connect to %s stream", name)
	}

	return backoff.RetryNotifyWithData(operation, backoff.WithContext(b, ctx), notify)
}
