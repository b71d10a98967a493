package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Table names shared by every SQL backend.
const (
	IndexTable   = "price_index"
	BatchesTable = "shop_batches"
)

// SnapshotRowID is the primary key of the single index row.
const SnapshotRowID = 1

// PostgresSchema creates the index and batch tables.
var PostgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS ` + IndexTable + ` (
		id         SMALLINT PRIMARY KEY CHECK (id = 1),
		version    BIGINT NOT NULL,
		entries    JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS ` + BatchesTable + ` (
		id           UUID PRIMARY KEY,
		batch_key    TEXT NOT NULL,
		uploader     TEXT NOT NULL,
		received_at  TIMESTAMPTZ NOT NULL,
		record_count INTEGER NOT NULL,
		records      JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS shop_batches_uploader_idx ON ` + BatchesTable + ` (uploader, received_at)`,
}

// SQLiteSchema is PostgresSchema in SQLite types.
var SQLiteSchema = []string{
	`CREATE TABLE IF NOT EXISTS ` + IndexTable + ` (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		version    INTEGER NOT NULL,
		entries    TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ` + BatchesTable + ` (
		id           TEXT PRIMARY KEY,
		batch_key    TEXT NOT NULL,
		uploader     TEXT NOT NULL,
		received_at  TEXT NOT NULL,
		record_count INTEGER NOT NULL,
		records      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS shop_batches_uploader_idx ON ` + BatchesTable + ` (uploader, received_at)`,
}

// Migrate applies PostgresSchema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range PostgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
