package config

import "time"

// IndexerConfig is the root configuration for an indexer instance.
type IndexerConfig struct {
	Instance  InstanceConfig  `yaml:"instance"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Parser    ParserConfig    `yaml:"parser"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Publisher PublisherConfig `yaml:"publisher"`
	Feed      FeedConfig      `yaml:"feed"`
	Log       LogConfig       `yaml:"log"`
}

// InstanceConfig identifies this indexer.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	Mode         string        `yaml:"mode"` // gin mode: debug, release, test
}

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
)

// StorageConfig selects where the index and raw batches live.
type StorageConfig struct {
	Driver   string       `yaml:"driver"`
	Postgres DBConfig     `yaml:"postgres"`
	MySQL    MySQLConfig  `yaml:"mysql"`
	SQLite   SQLiteConfig `yaml:"sqlite"`
}

// DBConfig holds a single Postgres connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// MySQLConfig holds a MySQL connection.
type MySQLConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Name         string `yaml:"name"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// SQLiteConfig holds the database file location.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// ParserConfig holds log parsing settings.
type ParserConfig struct {
	ChatMarker string `yaml:"chat_marker"`
}

// Ingest disciplines.
const (
	DisciplineConditional = "conditional"
	DisciplineQueue       = "queue"
)

// IngestConfig controls how uploads reach the index.
type IngestConfig struct {
	Discipline      string        `yaml:"discipline"`
	MaxAttempts     int           `yaml:"max_attempts"`
	RetryBackoff    time.Duration `yaml:"retry_backoff"`
	QueueSize       int           `yaml:"queue_size"`
	DefaultUploader string        `yaml:"default_uploader"`
}

// PublisherConfig holds index file publishing settings.
type PublisherConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Path     string        `yaml:"path"`
}

// FeedConfig holds live change feed settings.
type FeedConfig struct {
	Enabled      bool          `yaml:"enabled"`
	PingInterval time.Duration `yaml:"ping_interval"`
	SendBuffer   int           `yaml:"send_buffer"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}
