package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultServerAddr      = ":8080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultMaxBodyBytes    = 32 << 20
	DefaultServerMode      = "release"
	DefaultStorageDriver   = DriverMemory
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 10
	DefaultMinConns        = 2
	DefaultMySQLPort       = 3306
	DefaultMaxOpenConns    = 10
	DefaultMaxIdleConns    = 2
	DefaultSQLitePath      = "shoplog.db"
	DefaultDiscipline      = DisciplineConditional
	DefaultMaxAttempts     = 5
	DefaultRetryBackoff    = 50 * time.Millisecond
	DefaultQueueSize       = 64
	DefaultUploader        = "anonymous"
	DefaultPublishInterval = 1 * time.Minute
	DefaultPublishPath     = "inventory/index.json"
	DefaultPingInterval    = 30 * time.Second
	DefaultSendBuffer      = 16
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

func (c *IndexerConfig) applyDefaults() {
	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Server.Mode == "" {
		c.Server.Mode = DefaultServerMode
	}

	// Storage defaults
	if c.Storage.Driver == "" {
		c.Storage.Driver = DefaultStorageDriver
	}
	applyDBDefaults(&c.Storage.Postgres)
	if c.Storage.MySQL.Port == 0 {
		c.Storage.MySQL.Port = DefaultMySQLPort
	}
	if c.Storage.MySQL.MaxOpenConns == 0 {
		c.Storage.MySQL.MaxOpenConns = DefaultMaxOpenConns
	}
	if c.Storage.MySQL.MaxIdleConns == 0 {
		c.Storage.MySQL.MaxIdleConns = DefaultMaxIdleConns
	}
	if c.Storage.SQLite.Path == "" {
		c.Storage.SQLite.Path = DefaultSQLitePath
	}

	// Ingest defaults
	if c.Ingest.Discipline == "" {
		c.Ingest.Discipline = DefaultDiscipline
	}
	if c.Ingest.MaxAttempts == 0 {
		c.Ingest.MaxAttempts = DefaultMaxAttempts
	}
	if c.Ingest.RetryBackoff == 0 {
		c.Ingest.RetryBackoff = DefaultRetryBackoff
	}
	if c.Ingest.QueueSize == 0 {
		c.Ingest.QueueSize = DefaultQueueSize
	}
	if c.Ingest.DefaultUploader == "" {
		c.Ingest.DefaultUploader = DefaultUploader
	}

	// Publisher defaults
	if c.Publisher.Interval == 0 {
		c.Publisher.Interval = DefaultPublishInterval
	}
	if c.Publisher.Path == "" {
		c.Publisher.Path = DefaultPublishPath
	}

	// Feed defaults
	if c.Feed.PingInterval == 0 {
		c.Feed.PingInterval = DefaultPingInterval
	}
	if c.Feed.SendBuffer == 0 {
		c.Feed.SendBuffer = DefaultSendBuffer
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
