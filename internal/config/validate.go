package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *IndexerConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.MaxBodyBytes < 1 {
		return errors.New("server.max_body_bytes must be >= 1")
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if err := c.Storage.Postgres.validate("storage.postgres"); err != nil {
			return err
		}
	case DriverMySQL:
		if err := c.Storage.MySQL.validate("storage.mysql"); err != nil {
			return err
		}
	case DriverSQLite:
		if c.Storage.SQLite.Path == "" {
			return errors.New("storage.sqlite.path is required")
		}
	default:
		return fmt.Errorf("storage.driver must be one of memory, postgres, sqlite, mysql, got %q", c.Storage.Driver)
	}

	switch c.Ingest.Discipline {
	case DisciplineConditional, DisciplineQueue:
	default:
		return fmt.Errorf("ingest.discipline must be conditional or queue, got %q", c.Ingest.Discipline)
	}
	if c.Ingest.MaxAttempts < 1 {
		return errors.New("ingest.max_attempts must be >= 1")
	}
	if c.Ingest.RetryBackoff < 0 {
		return errors.New("ingest.retry_backoff must be >= 0")
	}
	if c.Ingest.Discipline == DisciplineQueue && c.Ingest.QueueSize < 1 {
		return errors.New("ingest.queue_size must be >= 1")
	}

	if c.Publisher.Enabled {
		if c.Publisher.Interval <= 0 {
			return errors.New("publisher.interval must be > 0")
		}
		if c.Publisher.Path == "" {
			return errors.New("publisher.path is required")
		}
	}

	if c.Feed.Enabled {
		if c.Feed.PingInterval <= 0 {
			return errors.New("feed.ping_interval must be > 0")
		}
		if c.Feed.SendBuffer < 1 {
			return errors.New("feed.send_buffer must be >= 1")
		}
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

// SlogLevel maps the configured level name to a slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", l.Level)
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

func (db *MySQLConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxOpenConns < 1 {
		return fmt.Errorf("%s.max_open_conns must be >= 1", prefix)
	}
	if db.MaxIdleConns > db.MaxOpenConns {
		return fmt.Errorf("%s.max_idle_conns (%d) cannot exceed max_open_conns (%d)", prefix, db.MaxIdleConns, db.MaxOpenConns)
	}
	return nil
}
