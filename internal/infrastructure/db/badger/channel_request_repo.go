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

const channelRequestDir = "channel_request"

type channelRequestData struct {
	ChannelId         string
	Pubkey            string `badgerhold:"index"`
	Preimage          string
	Status            string
	Start             int64
	Expire            int64
	ExpectedAmountSat uint64
	ChannelPoint      string
	CreatedAt         int64
}

func (d channelRequestData) toChannelRequest() (*domain.ChannelRequest, error) {
	channelId, err := domain.ParseChannelId(d.ChannelId)
	if err != nil {
		return nil, err
	}
	return &domain.ChannelRequest{
		ChannelId:         channelId,
		Pubkey:            d.Pubkey,
		Preimage:          d.Preimage,
		Status:            domain.ChannelRequestStatus(d.Status),
		Start:             d.Start,
		Expire:            d.Expire,
		ExpectedAmountSat: d.ExpectedAmountSat,
		ChannelPoint:      d.ChannelPoint,
	}, nil
}

type channelRequestRepository struct {
	store *badgerhold.Store
}

func NewChannelRequestRepository(
	baseDir string, logger badger.Logger,
) (domain.ChannelRequestRepository, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, channelRequestDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open channel request store: %s", err)
	}
	return &channelRequestRepository{store}, nil
}

func (r *channelRequestRepository) Add(
	ctx context.Context, request domain.ChannelRequest,
) error {
	data := channelRequestData{
		ChannelId:         request.ChannelId.String(),
		Pubkey:            request.Pubkey,
		Preimage:          request.Preimage,
		Status:            string(request.Status),
		Start:             request.Start,
		Expire:            request.Expire,
		ExpectedAmountSat: request.ExpectedAmountSat,
		ChannelPoint:      request.ChannelPoint,
		CreatedAt:         time.Now().UnixNano(),
	}
	if err := r.store.Insert(data.ChannelId, data); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return fmt.Errorf("channel request %s already exists", request.ChannelId)
		}
		return fmt.Errorf("failed to add channel request: %w", err)
	}
	return nil
}

func (r *channelRequestRepository) Get(
	ctx context.Context, channelId domain.ChannelId,
) (*domain.ChannelRequest, error) {
	var data channelRequestData
	if err := r.store.Get(channelId.String(), &data); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrChannelRequestNotFound, channelId)
		}
		return nil, fmt.Errorf("failed to get channel request: %w", err)
	}
	return data.toChannelRequest()
}

func (r *channelRequestRepository) GetByPubkey(
	ctx context.Context, pubkey string,
) ([]domain.ChannelRequest, error) {
	var data []channelRequestData
	query := badgerhold.Where("Pubkey").Eq(pubkey).Index("Pubkey").
		SortBy("Start", "CreatedAt").Reverse()
	if err := r.store.Find(&data, query); err != nil {
		return nil, fmt.Errorf("failed to get channel requests: %w", err)
	}

	requests := make([]domain.ChannelRequest, 0, len(data))
	for _, d := range data {
		request, err := d.toChannelRequest()
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
	return r.store.Badger().Update(func(tx *badger.Txn) error {
		for _, id := range channelIds {
			var data channelRequestData
			if err := r.store.TxGet(tx, id.String(), &data); err != nil {
				if errors.Is(err, badgerhold.ErrNotFound) {
					return fmt.Errorf("%w: %s", domain.ErrChannelRequestNotFound, id)
				}
				return err
			}
			data.Status = string(domain.ChannelRequestDone)
			data.ChannelPoint = channelPoint
			if err := r.store.TxUpdate(tx, data.ChannelId, data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *channelRequestRepository) Close() {
	// nolint:all
	r.store.Close()
}
