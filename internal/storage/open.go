package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rickgao/shoplog/internal/config"
	"github.com/rickgao/shoplog/internal/database"
	"github.com/rickgao/shoplog/internal/index"
)

// Backend is a BatchStore the indexer can health-check and close.
type Backend interface {
	index.BatchStore
	Ping(ctx context.Context) error
	Close() error
}

// memoryBackend gives index.MemoryStore the Backend lifecycle.
type memoryBackend struct {
	*index.MemoryStore
}

func (memoryBackend) Ping(context.Context) error { return nil }
func (memoryBackend) Close() error               { return nil }

// Open connects to the configured driver and prepares its schema.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("driver", cfg.Driver)

	switch cfg.Driver {
	case config.DriverMemory, "":
		logger.Warn("using in-memory storage; the index is lost on restart")
		return memoryBackend{index.NewMemoryStore()}, nil

	case config.DriverPostgres:
		pool, err := database.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		logger.Info("storage ready", "host", cfg.Postgres.Host, "name", cfg.Postgres.Name)
		return NewPostgresStore(pool, logger), nil

	case config.DriverSQLite:
		s, err := OpenSQLite(ctx, cfg.SQLite.Path, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("storage ready", "path", cfg.SQLite.Path)
		return s, nil

	case config.DriverMySQL:
		s, err := OpenMySQL(ctx, cfg.MySQL, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("storage ready", "host", cfg.MySQL.Host, "name", cfg.MySQL.Name)
		return s, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
