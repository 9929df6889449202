package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ArkLabsHQ/dunder/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

const htlcSettlementDir = "htlc_settlement"

type htlcSettlementData struct {
	Key            string
	ChannelId      string `badgerhold:"index"`
	IncomingChanId uint64
	HtlcId         uint64
	AmountSat      uint64
	Settled        bool
	Claimed        bool
	CreatedAt      int64
}

func (d htlcSettlementData) toHtlcSettlement() (*domain.HtlcSettlement, error) {
	channelId, err := domain.ParseChannelId(d.ChannelId)
	if err != nil {
		return nil, err
	}
	return &domain.HtlcSettlement{
		HtlcSettlementKey: domain.HtlcSettlementKey{
			ChannelId: channelId,
			Incoming:  domain.CircuitKey{ChanId: d.IncomingChanId, HtlcId: d.HtlcId},
		},
		AmountSat: d.AmountSat,
		Settled:   d.Settled,
		Claimed:   d.Claimed,
	}, nil
}

type htlcSettlementRepository struct {
	store           *badgerhold.Store
	channelRequests domain.ChannelRequestRepository
}

// NewHtlcSettlementRepository needs the channel request repository of the
// same backend to resolve which settlements belong to a payer.
func NewHtlcSettlementRepository(
	baseDir string, logger badger.Logger,
	channelRequests domain.ChannelRequestRepository,
) (domain.HtlcSettlementRepository, error) {
	if channelRequests == nil {
		return nil, fmt.Errorf("missing channel request repository")
	}
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, htlcSettlementDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open htlc settlement store: %s", err)
	}
	return &htlcSettlementRepository{store, channelRequests}, nil
}

func (r *htlcSettlementRepository) Add(
	ctx context.Context, settlement domain.HtlcSettlement,
) error {
	data := htlcSettlementData{
		Key:            settlementKey(settlement.HtlcSettlementKey),
		ChannelId:      settlement.ChannelId.String(),
		IncomingChanId: settlement.Incoming.ChanId,
		HtlcId:         settlement.Incoming.HtlcId,
		AmountSat:      settlement.AmountSat,
		Settled:        settlement.Settled,
		Claimed:        settlement.Claimed,
		CreatedAt:      time.Now().UnixNano(),
	}
	if err := r.store.Insert(data.Key, data); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return fmt.Errorf(
				"%w: %s %s", domain.ErrHtlcSettlementExists,
				settlement.ChannelId, settlement.Incoming,
			)
		}
		return fmt.Errorf("failed to add htlc settlement: %w", err)
	}
	return nil
}

func (r *htlcSettlementRepository) Get(
	ctx context.Context, key domain.HtlcSettlementKey,
) (*domain.HtlcSettlement, error) {
	var data htlcSettlementData
	if err := r.store.Get(settlementKey(key), &data); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf(
				"%w: %s %s", domain.ErrHtlcSettlementNotFound, key.ChannelId, key.Incoming,
			)
		}
		return nil, fmt.Errorf("failed to get htlc settlement: %w", err)
	}
	return data.toHtlcSettlement()
}

func (r *htlcSettlementRepository) GetByChannelId(
	ctx context.Context, channelId domain.ChannelId,
) ([]domain.HtlcSettlement, error) {
	query := badgerhold.Where("ChannelId").Eq(channelId.String()).Index("ChannelId").
		SortBy("CreatedAt")
	return r.find(query)
}

func (r *htlcSettlementRepository) AllSettled(
	ctx context.Context, channelId domain.ChannelId,
) (bool, error) {
	settlements, err := r.GetByChannelId(ctx, channelId)
	if err != nil {
		return false, err
	}
	if len(settlements) <= 0 {
		return false, nil
	}
	for _, s := range settlements {
		if !s.Settled {
			return false, nil
		}
	}
	return true, nil
}

func (r *htlcSettlementRepository) MarkSettled(
	ctx context.Context, key domain.HtlcSettlementKey,
) error {
	return r.store.Badger().Update(func(tx *badger.Txn) error {
		var data htlcSettlementData
		if err := r.store.TxGet(tx, settlementKey(key), &data); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return fmt.Errorf(
					"%w: %s %s", domain.ErrHtlcSettlementNotFound, key.ChannelId, key.Incoming,
				)
			}
			return err
		}
		data.Settled = true
		return r.store.TxUpdate(tx, data.Key, data)
	})
}

func (r *htlcSettlementRepository) MarkClaimed(
	ctx context.Context, channelIds []domain.ChannelId,
) error {
	return r.store.Badger().Update(func(tx *badger.Txn) error {
		for _, id := range channelIds {
			query := badgerhold.Where("ChannelId").Eq(id.String()).Index("ChannelId").
				And("Settled").Eq(true)
			if err := r.store.TxUpdateMatching(
				tx, &htlcSettlementData{}, query, func(record interface{}) error {
					data, ok := record.(*htlcSettlementData)
					if !ok {
						return fmt.Errorf("unexpected record type %T", record)
					}
					data.Claimed = true
					return nil
				},
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *htlcSettlementRepository) GetUnclaimed(
	ctx context.Context, pubkey string,
) ([]domain.HtlcSettlement, error) {
	requests, err := r.channelRequests.GetByPubkey(ctx, pubkey)
	if err != nil {
		return nil, err
	}
	if len(requests) <= 0 {
		return nil, nil
	}

	channelIds := make([]interface{}, 0, len(requests))
	for _, request := range requests {
		channelIds = append(channelIds, request.ChannelId.String())
	}
	query := badgerhold.Where("ChannelId").In(channelIds...).Index("ChannelId").
		And("Settled").Eq(true).
		And("Claimed").Eq(false).
		SortBy("CreatedAt")
	return r.find(query)
}

func (r *htlcSettlementRepository) Close() {
	// nolint:all
	r.store.Close()
}

func (r *htlcSettlementRepository) find(
	query *badgerhold.Query,
) ([]domain.HtlcSettlement, error) {
	var data []htlcSettlementData
	if err := r.store.Find(&data, query); err != nil {
		return nil, fmt.Errorf("failed to get htlc settlements: %w", err)
	}
	settlements := make([]domain.HtlcSettlement, 0, len(data))
	for _, d := range data {
		settlement, err := d.toHtlcSettlement()
		if err != nil {
			return nil, err
		}
		settlements = append(settlements, *settlement)
	}
	return settlements, nil
}

func settlementKey(key domain.HtlcSettlementKey) string {
	return fmt.Sprintf("%s/%s", key.ChannelId, key.Incoming)
}
