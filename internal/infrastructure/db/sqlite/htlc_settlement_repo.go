package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/ArkLabsHQ/dunder/internal/core/domain"
	"github.com/ArkLabsHQ/dunder/internal/infrastructure/db/sqlite/sqlc/queries"
)

type htlcSettlementRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewHtlcSettlementRepository(db *sql.DB) (domain.HtlcSettlementRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("cannot open htlc settlement repository: db is nil")
	}
	return &htlcSettlementRepository{db: db, querier: queries.New(db)}, nil
}

func (r *htlcSettlementRepository) Add(
	ctx context.Context, settlement domain.HtlcSettlement,
) error {
	txBody := func(querierWithTx *queries.Queries) error {
		_, err := querierWithTx.GetHtlcSettlement(ctx, toGetParams(settlement.HtlcSettlementKey))
		if err == nil {
			return fmt.Errorf(
				"%w: %s %s", domain.ErrHtlcSettlementExists,
				settlement.ChannelId, settlement.Incoming,
			)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return querierWithTx.InsertHtlcSettlement(ctx, queries.InsertHtlcSettlementParams{
			ChannelID:         settlement.ChannelId.String(),
			IncomingChannelID: strconv.FormatUint(settlement.Incoming.ChanId, 10),
			HtlcID:            int64(settlement.Incoming.HtlcId),
			AmountSat:         int64(settlement.AmountSat),
			Settled:           settlement.Settled,
			Claimed:           settlement.Claimed,
		})
	}
	return execTx(ctx, r.db, txBody)
}

func (r *htlcSettlementRepository) Get(
	ctx context.Context, key domain.HtlcSettlementKey,
) (*domain.HtlcSettlement, error) {
	row, err := r.querier.GetHtlcSettlement(ctx, toGetParams(key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf(
				"%w: %s %s", domain.ErrHtlcSettlementNotFound, key.ChannelId, key.Incoming,
			)
		}
		return nil, err
	}
	return toHtlcSettlement(row)
}

func (r *htlcSettlementRepository) GetByChannelId(
	ctx context.Context, channelId domain.ChannelId,
) ([]domain.HtlcSettlement, error) {
	rows, err := r.querier.ListHtlcSettlementsByChannelId(ctx, channelId.String())
	if err != nil {
		return nil, err
	}
	return toHtlcSettlements(rows)
}

func (r *htlcSettlementRepository) AllSettled(
	ctx context.Context, channelId domain.ChannelId,
) (bool, error) {
	count, err := r.querier.CountHtlcSettlementsByChannelId(ctx, channelId.String())
	if err != nil {
		return false, err
	}
	return count.Total > 0 && count.Total == count.Settled, nil
}

func (r *htlcSettlementRepository) MarkSettled(
	ctx context.Context, key domain.HtlcSettlementKey,
) error {
	txBody := func(querierWithTx *queries.Queries) error {
		if _, err := querierWithTx.GetHtlcSettlement(ctx, toGetParams(key)); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf(
					"%w: %s %s", domain.ErrHtlcSettlementNotFound, key.ChannelId, key.Incoming,
				)
			}
			return err
		}
		return querierWithTx.UpdateHtlcSettlementSettled(
			ctx, queries.UpdateHtlcSettlementSettledParams(toGetParams(key)),
		)
	}
	return execTx(ctx, r.db, txBody)
}

func (r *htlcSettlementRepository) MarkClaimed(
	ctx context.Context, channelIds []domain.ChannelId,
) error {
	txBody := func(querierWithTx *queries.Queries) error {
		for _, id := range channelIds {
			if err := querierWithTx.UpdateHtlcSettlementsClaimed(ctx, id.String()); err != nil {
				return err
			}
		}
		return nil
	}
	return execTx(ctx, r.db, txBody)
}

func (r *htlcSettlementRepository) GetUnclaimed(
	ctx context.Context, pubkey string,
) ([]domain.HtlcSettlement, error) {
	rows, err := r.querier.ListUnclaimedHtlcSettlementsByPubkey(ctx, pubkey)
	if err != nil {
		return nil, err
	}
	settlements := make([]queries.HtlcSettlement, 0, len(rows))
	for _, row := range rows {
		settlements = append(settlements, queries.HtlcSettlement(row))
	}
	return toHtlcSettlements(settlements)
}

func (r *htlcSettlementRepository) Close() {
	// nolint:all
	r.db.Close()
}

func toGetParams(key domain.HtlcSettlementKey) queries.GetHtlcSettlementParams {
	return queries.GetHtlcSettlementParams{
		ChannelID:         key.ChannelId.String(),
		IncomingChannelID: strconv.FormatUint(key.Incoming.ChanId, 10),
		HtlcID:            int64(key.Incoming.HtlcId),
	}
}

func toHtlcSettlement(row queries.HtlcSettlement) (*domain.HtlcSettlement, error) {
	channelId, err := domain.ParseChannelId(row.ChannelID)
	if err != nil {
		return nil, err
	}
	incomingChanId, err := strconv.ParseUint(row.IncomingChannelID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid incoming channel id %q: %w", row.IncomingChannelID, err)
	}
	return &domain.HtlcSettlement{
		HtlcSettlementKey: domain.HtlcSettlementKey{
			ChannelId: channelId,
			Incoming: domain.CircuitKey{
				ChanId: incomingChanId,
				HtlcId: uint64(row.HtlcID),
			},
		},
		AmountSat: uint64(row.AmountSat),
		Settled:   row.Settled,
		Claimed:   row.Claimed,
	}, nil
}

func toHtlcSettlements(rows []queries.HtlcSettlement) ([]domain.HtlcSettlement, error) {
	settlements := make([]domain.HtlcSettlement, 0, len(rows))
	for _, row := range rows {
		settlement, err := toHtlcSettlement(row)
		if err != nil {
			return nil, err
		}
		settlements = append(settlements, *settlement)
	}
	return settlements, nil
}
