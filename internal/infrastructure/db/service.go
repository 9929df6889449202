package db

import (
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ArkLabsHQ/dunder/internal/core/domain"
	"github.com/ArkLabsHQ/dunder/internal/core/ports"
	badgerdb "github.com/ArkLabsHQ/dunder/internal/infrastructure/db/badger"
	sqlitedb "github.com/ArkLabsHQ/dunder/internal/infrastructure/db/sqlite"
	"github.com/dgraph-io/badger/v4"
	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

const (
	sqliteDbFile = "dunder.db"
)

var (
	//go:embed sqlite/migration/*
	migrations   embed.FS
	allowedTypes = strings.Join([]string{"badger", "sqlite"}, ",")
)

type ServiceConfig struct {
	DbType   string
	DbConfig []any
}

type service struct {
	channelRequestRepo domain.ChannelRequestRepository
	htlcSettlementRepo domain.HtlcSettlementRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	var (
		channelRequestRepo domain.ChannelRequestRepository
		htlcSettlementRepo domain.HtlcSettlementRepository
		err                error
	)

	switch config.DbType {
	case "badger":
		if len(config.DbConfig) != 2 {
			return nil, fmt.Errorf("badger db config must have 2 elements, got %d", len(config.DbConfig))
		}
		baseDir, ok := config.DbConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid base directory")
		}
		var logger badger.Logger
		if config.DbConfig[1] != nil {
			logger, ok = config.DbConfig[1].(badger.Logger)
			if !ok {
				return nil, fmt.Errorf("invalid logger")
			}
		}
		channelRequestRepo, err = badgerdb.NewChannelRequestRepository(baseDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open channel request db: %s", err)
		}
		htlcSettlementRepo, err = badgerdb.NewHtlcSettlementRepository(
			baseDir, logger, channelRequestRepo,
		)
		if err != nil {
			channelRequestRepo.Close()
			return nil, fmt.Errorf("failed to open htlc settlement db: %s", err)
		}

	case "sqlite":
		if len(config.DbConfig) != 1 {
			return nil, fmt.Errorf("sqlite db config must have 1 element, got %d", len(config.DbConfig))
		}
		baseDir, ok := config.DbConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid base directory")
		}
		dbFile := filepath.Join(baseDir, sqliteDbFile)
		db, err := sqlitedb.OpenDb(dbFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite db: %s", err)
		}

		driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to init driver: %s", err)
		}

		source, err := iofs.New(migrations, "sqlite/migration")
		if err != nil {
			return nil, fmt.Errorf("failed to embed migrations: %s", err)
		}

		m, err := migrate.NewWithInstance("iofs", source, "dunderdb", driver)
		if err != nil {
			return nil, fmt.Errorf("failed to create migration instance: %s", err)
		}

		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, fmt.Errorf("failed to run migrations: %s", err)
		}

		channelRequestRepo, err = sqlitedb.NewChannelRequestRepository(db)
		if err != nil {
			return nil, fmt.Errorf("failed to open channel request db: %s", err)
		}
		htlcSettlementRepo, err = sqlitedb.NewHtlcSettlementRepository(db)
		if err != nil {
			return nil, fmt.Errorf("failed to open htlc settlement db: %s", err)
		}

	default:
		return nil, fmt.Errorf("unsupported db type %s, please select one of %s", config.DbType, allowedTypes)
	}

	return &service{
		channelRequestRepo: channelRequestRepo,
		htlcSettlementRepo: htlcSettlementRepo,
	}, nil
}

func (s *service) ChannelRequests() domain.ChannelRequestRepository {
	return s.channelRequestRepo
}

func (s *service) HtlcSettlements() domain.HtlcSettlementRepository {
	return s.htlcSettlementRepo
}

func (s *service) Close() {
	s.htlcSettlementRepo.Close()
	s.channelRequestRepo.Close()
}
