package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/ArkLabsHQ/dunder/internal/infrastructure/db/sqlite/sqlc/queries"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// OpenDb opens the sqlite database file, creating it if needed. Foreign keys
// are enforced and writers wait on a busy database instead of failing.
func OpenDb(dbPath string) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		filepath.ToSlash(dbPath),
	)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	// a single connection serializes writes and keeps WAL readers consistent
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		// nolint
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	return db, nil
}

func execTx(
	ctx context.Context, db *sql.DB, txBody func(*queries.Queries) error,
) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	qtx := queries.New(db).WithTx(tx)

	if err := txBody(qtx); err != nil {
		//nolint:errcheck
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
