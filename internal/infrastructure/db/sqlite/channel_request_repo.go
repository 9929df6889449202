package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ArkLabsHQ/dunder/internal/core/domain"
	"github.com/ArkLabsHQ/dunder/internal/infrastructure/db/sqlite/sqlc/queries"
)

type channelRequestRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewChannelRequestRepository(db *sql.DB) (domain.ChannelRequestRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("cannot open channel request repository: db is nil")
	}
	return &channelRequestRepository{db: db, querier: queries.New(db)}, nil
}

func (r *channelRequestRepository) Add(
	ctx context.Context, request domain.ChannelRequest,
) error {
	if _, err := r.Get(ctx, request.ChannelId); err == nil {
		return fmt.Errorf("channel request %s already exists", request.ChannelId)
	}
	var channelPoint sql.NullString
	if request.ChannelPoint != "" {
		channelPoint = sql.NullString{String: request.ChannelPoint, Valid: true}
	}
	return r.querier.InsertChannelRequest(ctx, queries.InsertChannelRequestParams{
		ChannelID:         request.ChannelId.String(),
		Pubkey:            request.Pubkey,
		Preimage:          request.Preimage,
		Status:            string(request.Status),
		Start:             request.Start,
		Expire:            request.Expire,
		ExpectedAmountSat: int64(request.ExpectedAmountSat),
		ChannelPoint:      channelPoint,
	})
}

func (r *channelRequestRepository) Get(
	ctx context.Context, channelId domain.ChannelId,
) (*domain.ChannelRequest, error) {
	row, err := r.querier.GetChannelRequest(ctx, channelId.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrChannelRequestNotFound, channelId)
		}
		return nil, err
	}
	return toChannelRequest(row)
}

func (r *channelRequestRepository) GetByPubkey(
	ctx context.Context, pubkey string,
) ([]domain.ChannelRequest, error) {
	rows, err := r.querier.ListChannelRequestsByPubkey(ctx, pubkey)
	if err != nil {
		return nil, err
	}
	requests := make([]domain.ChannelRequest, 0, len(rows))
	for _, row := range rows {
		request, err := toChannelRequest(row)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *request)
	}
	return requests, nil
}

func (r *channelRequestRepository) MarkDone(
	ctx context.Context, channelIds []domain.ChannelId, channelPoint string,
) error {
	if channelPoint == "" {
		return fmt.Errorf("missing channel point")
	}
	txBody := func(querierWithTx *queries.Queries) error {
		for _, id := range channelIds {
			if _, err := querierWithTx.GetChannelRequest(ctx, id.String()); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("%w: %s", domain.ErrChannelRequestNotFound, id)
				}
				return err
			}
			if err := querierWithTx.UpdateChannelRequestDone(
				ctx, queries.UpdateChannelRequestDoneParams{
					ChannelPoint: sql.NullString{String: channelPoint, Valid: true},
					ChannelID:    id.String(),
				},
			); err != nil {
				return err
			}
		}
		return nil
	}
	return execTx(ctx, r.db, txBody)
}

func (r *channelRequestRepository) Close() {
	// nolint:all
	r.db.Close()
}

func toChannelRequest(row queries.ChannelRequest) (*domain.ChannelRequest, error) {
	channelId, err := domain.ParseChannelId(row.ChannelID)
	if err != nil {
		return nil, err
	}
	return &domain.ChannelRequest{
		ChannelId:         channelId,
		Pubkey:            row.Pubkey,
		Preimage:          row.Preimage,
		Status:            domain.ChannelRequestStatus(row.Status),
		Start:             row.Start,
		Expire:            row.Expire,
		ExpectedAmountSat: uint64(row.ExpectedAmountSat),
		ChannelPoint:      row.ChannelPoint.String,
	}, nil
}
