package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rickgao/shoplog/internal/config"
	"github.com/rickgao/shoplog/internal/database"
	"github.com/rickgao/shoplog/internal/index"
	"github.com/rickgao/shoplog/internal/model"
)

// indexRow is the single row holding the index document.
type indexRow struct {
	ID        uint8     `gorm:"primaryKey;autoIncrement:false"`
	Version   int64     `gorm:"not null"`
	Entries   string    `gorm:"type:longtext;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (indexRow) TableName() string { return database.IndexTable }

// batchRow is one stored upload.
type batchRow struct {
	ID          string    `gorm:"primaryKey;size:36"`
	BatchKey    string    `gorm:"size:255;not null"`
	Uploader    string    `gorm:"size:191;not null;index:shop_batches_uploader_idx,priority:1"`
	ReceivedAt  time.Time `gorm:"not null;index:shop_batches_uploader_idx,priority:2"`
	RecordCount int       `gorm:"not null"`
	Records     string    `gorm:"type:longtext;not null"`
}

func (batchRow) TableName() string { return database.BatchesTable }

func newBatchRow(batch model.Batch) (batchRow, error) {
	records, err := encodeRecords(batch.Records)
	if err != nil {
		return batchRow{}, err
	}
	return batchRow{
		ID:          batch.ID.String(),
		BatchKey:    batch.Key(),
		Uploader:    batch.Uploader,
		ReceivedAt:  batch.ReceivedAt.UTC(),
		RecordCount: len(batch.Records),
		Records:     records,
	}, nil
}

// MySQLStore keeps the index and batches in MySQL through gorm.
type MySQLStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ index.BatchStore = (*MySQLStore)(nil)

// OpenMySQL connects, sizes the pool and migrates the tables.
func OpenMySQL(ctx context.Context, cfg config.MySQLConfig, logger *slog.Logger) (*MySQLStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := gorm.Open(mysql.Open(database.BuildMySQLDSN(cfg)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&indexRow{}, &batchRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate mysql: %w", err)
	}

	return &MySQLStore{db: db, logger: logger}, nil
}

// LoadIndex reads the index row. No row means an empty index at version 0.
func (s *MySQLStore) LoadIndex(ctx context.Context) (index.Snapshot, error) {
	var row indexRow
	err := s.db.WithContext(ctx).Where("id = ?", database.SnapshotRowID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return index.Snapshot{Entries: model.Index{}}, nil
	}
	if err != nil {
		return index.Snapshot{}, fmt.Errorf("query index: %w", err)
	}

	entries, err := decodeEntries([]byte(row.Entries))
	if err != nil {
		return index.Snapshot{}, err
	}
	return index.Snapshot{Entries: entries, Version: row.Version}, nil
}

// SaveIndex conditionally replaces the index row.
func (s *MySQLStore) SaveIndex(ctx context.Context, next index.Snapshot) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveGormSnapshot(tx, next)
	})
}

// Commit inserts batch and replaces the index in one transaction.
func (s *MySQLStore) Commit(ctx context.Context, batch model.Batch, next index.Snapshot) error {
	row, err := newBatchRow(batch)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveGormSnapshot(tx, next); err != nil {
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("committed batch",
		"batch_id", batch.ID,
		"records", len(batch.Records),
		"version", next.Version+1,
	)
	return nil
}

// Ping checks the connection.
func (s *MySQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the connection pool.
func (s *MySQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func saveGormSnapshot(tx *gorm.DB, next index.Snapshot) error {
	entries, err := encodeEntries(next.Entries)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	var res *gorm.DB
	if next.Version == 0 {
		res = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&indexRow{
			ID:        database.SnapshotRowID,
			Version:   1,
			Entries:   entries,
			UpdatedAt: now,
		})
	} else {
		res = tx.Model(&indexRow{}).
			Where("id = ? AND version = ?", database.SnapshotRowID, next.Version).
			Updates(map[string]any{
				"version":    gorm.Expr("version + 1"),
				"entries":    entries,
				"updated_at": now,
			})
	}
	if res.Error != nil {
		return fmt.Errorf("write index: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return index.ErrVersionConflict
	}
	return nil
}
