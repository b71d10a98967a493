package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/shoplog/internal/database"
	"github.com/rickgao/shoplog/internal/index"
	"github.com/rickgao/shoplog/internal/model"
)

// execer is satisfied by both *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore keeps the index and batches in Postgres.
type PostgresStore struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

var _ index.BatchStore = (*PostgresStore)(nil)

// NewPostgresStore wraps an open pool. The schema must already exist; see
// database.Migrate.
func NewPostgresStore(db *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, logger: logger}
}

// LoadIndex reads the index row. No row means an empty index at version 0.
func (s *PostgresStore) LoadIndex(ctx context.Context) (index.Snapshot, error) {
	var (
		version int64
		raw     []byte
	)
	err := s.db.QueryRow(ctx,
		`SELECT version, entries FROM `+database.IndexTable+` WHERE id = $1`,
		database.SnapshotRowID,
	).Scan(&version, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return index.Snapshot{Entries: model.Index{}}, nil
	}
	if err != nil {
		return index.Snapshot{}, fmt.Errorf("query index: %w", err)
	}

	entries, err := decodeEntries(raw)
	if err != nil {
		return index.Snapshot{}, err
	}
	return index.Snapshot{Entries: entries, Version: version}, nil
}

// SaveIndex conditionally replaces the index row.
func (s *PostgresStore) SaveIndex(ctx context.Context, next index.Snapshot) error {
	return s.saveSnapshot(ctx, s.db, next)
}

// Commit inserts batch and replaces the index in one transaction.
func (s *PostgresStore) Commit(ctx context.Context, batch model.Batch, next index.Snapshot) error {
	records, err := encodeRecords(batch.Records)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Index first: the row lock it takes orders concurrent commits.
	if err := s.saveSnapshot(ctx, tx, next); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO `+database.BatchesTable+` (id, batch_key, uploader, received_at, record_count, records)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, batch.ID, batch.Key(), batch.Uploader, batch.ReceivedAt, len(batch.Records), records)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Debug("committed batch",
		"batch_id", batch.ID,
		"records", len(batch.Records),
		"version", next.Version+1,
	)
	return nil
}

// Ping checks the pool.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func (s *PostgresStore) saveSnapshot(ctx context.Context, q execer, next index.Snapshot) error {
	entries, err := encodeEntries(next.Entries)
	if err != nil {
		return err
	}

	var ct pgconn.CommandTag
	if next.Version == 0 {
		ct, err = q.Exec(ctx, `
			INSERT INTO `+database.IndexTable+` (id, version, entries, updated_at)
			VALUES ($1, 1, $2, now())
			ON CONFLICT (id) DO NOTHING
		`, database.SnapshotRowID, entries)
	} else {
		ct, err = q.Exec(ctx, `
			UPDATE `+database.IndexTable+`
			SET version = version + 1, entries = $2, updated_at = now()
			WHERE id = $1 AND version = $3
		`, database.SnapshotRowID, entries, next.Version)
	}
	if err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return index.ErrVersionConflict
	}
	return nil
}
