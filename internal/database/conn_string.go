package database

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/rickgao/shoplog/internal/config"
)

// ApplicationName tags indexer sessions in pg_stat_activity.
const ApplicationName = "shoplog-indexer"

// BuildConnString returns a postgres:// URL for cfg. User and password are
// escaped; sslmode defaults to prefer.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("application_name", ApplicationName)

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// BuildMySQLDSN returns a go-sql-driver/mysql DSN for cfg. Times are read
// back as UTC time.Time values.
func BuildMySQLDSN(cfg config.MySQLConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.User, cfg.Password, net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)), cfg.Name)
}
