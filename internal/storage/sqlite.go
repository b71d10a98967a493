package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rickgao/shoplog/internal/database"
	"github.com/rickgao/shoplog/internal/index"
	"github.com/rickgao/shoplog/internal/model"
)

// sqliteTimeLayout is how timestamps are stored as TEXT.
const sqliteTimeLayout = time.RFC3339Nano

// SQLiteStore keeps the index and batches in a SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ index.BatchStore = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: SQLite has a single writer anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	for i, stmt := range database.SQLiteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// LoadIndex reads the index row. No row means an empty index at version 0.
func (s *SQLiteStore) LoadIndex(ctx context.Context) (index.Snapshot, error) {
	var (
		version int64
		raw     string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT version, entries FROM `+database.IndexTable+` WHERE id = ?`,
		database.SnapshotRowID,
	).Scan(&version, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return index.Snapshot{Entries: model.Index{}}, nil
	}
	if err != nil {
		return index.Snapshot{}, fmt.Errorf("query index: %w", err)
	}

	entries, err := decodeEntries([]byte(raw))
	if err != nil {
		return index.Snapshot{}, err
	}
	return index.Snapshot{Entries: entries, Version: version}, nil
}

// SaveIndex conditionally replaces the index row.
func (s *SQLiteStore) SaveIndex(ctx context.Context, next index.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := saveSQLiteSnapshot(ctx, tx, next); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Commit inserts batch and replaces the index in one transaction.
func (s *SQLiteStore) Commit(ctx context.Context, batch model.Batch, next index.Snapshot) error {
	records, err := encodeRecords(batch.Records)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := saveSQLiteSnapshot(ctx, tx, next); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO `+database.BatchesTable+` (id, batch_key, uploader, received_at, record_count, records)
		VALUES (?, ?, ?, ?, ?, ?)
	`, batch.ID.String(), batch.Key(), batch.Uploader,
		batch.ReceivedAt.UTC().Format(sqliteTimeLayout), len(batch.Records), records)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Debug("committed batch",
		"batch_id", batch.ID,
		"records", len(batch.Records),
		"version", next.Version+1,
	)
	return nil
}

// BatchCount returns how many uploads are stored.
func (s *SQLiteStore) BatchCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+database.BatchesTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("count batches: %w", err)
	}
	return n, nil
}

// Ping checks the database.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func saveSQLiteSnapshot(ctx context.Context, tx *sql.Tx, next index.Snapshot) error {
	entries, err := encodeEntries(next.Entries)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(sqliteTimeLayout)

	var res sql.Result
	if next.Version == 0 {
		res, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO `+database.IndexTable+` (id, version, entries, updated_at)
			VALUES (?, 1, ?, ?)
		`, database.SnapshotRowID, entries, now)
	} else {
		res, err = tx.ExecContext(ctx, `
			UPDATE `+database.IndexTable+`
			SET version = version + 1, entries = ?, updated_at = ?
			WHERE id = ? AND version = ?
		`, entries, now, database.SnapshotRowID, next.Version)
	}
	if err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return index.ErrVersionConflict
	}
	return nil
}
