// Package config loads rowstream settings from the environment.
//
// Every setting has an environment variable and, where sensible, a default.
// Load validates the whole configuration up front and reports every
// problem at once.
package config

import "time"

// Driver names accepted by DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
	DriverCSV      = "csv"
)

// DefaultQuery is the query used when STREAM_QUERY is unset and the driver
// speaks SQL. The primary key order keeps LIMIT/OFFSET pages stable.
const DefaultQuery = "SELECT user_id, name, email, age FROM user_data ORDER BY user_id"

// Config holds all settings.
type Config struct {
	Database DatabaseConfig
	Stream   StreamConfig
	Logging  LoggingConfig
	Queries  QueriesConfig
}

// DatabaseConfig describes the row store.
type DatabaseConfig struct {
	// URL is the connection string: a PostgreSQL URL or DSN, a SQLite DSN,
	// or a CSV file path for the csv driver. DB_URL is accepted as well.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// Driver selects the provider: postgres, sqlite3 or csv (default: postgres)
	Driver string `env:"DB_DRIVER" default:"postgres"`

	// MaxConns caps the connection pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the number of idle connections kept open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// MaxConnLifetime recycles connections after this long (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime closes idle connections after this long (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// ConnectTimeout bounds a single connection attempt (default: 10s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"10s"`
}

// StreamConfig holds pipeline defaults.
type StreamConfig struct {
	BatchSize int    `env:"STREAM_BATCH_SIZE" default:"5"`
	PageSize  int    `env:"STREAM_PAGE_SIZE" default:"5"`
	Query     string `env:"STREAM_QUERY"`

	// MaxParallel caps concurrent traversals (default: 4)
	MaxParallel int `env:"STREAM_MAX_PARALLEL" default:"4"`

	// MaxWait is how long a traversal waits for a free slot (default: 30s)
	MaxWait time.Duration `env:"STREAM_MAX_WAIT" default:"30s"`

	// EmptyOnConnectError makes a failed page fetch look like the end of
	// the data instead of an error (default: false)
	EmptyOnConnectError bool `env:"PAGINATOR_EMPTY_ON_CONNECT_ERROR" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// QueriesConfig points at the named query catalog.
type QueriesConfig struct {
	// File is a YAML query catalog; empty means no named queries.
	File string `env:"QUERIES_FILE"`
}

// DefaultQuery returns the configured query, or the driver's default.
func (c *Config) DefaultQuery() string {
	if c.Stream.Query != "" {
		return c.Stream.Query
	}
	if c.Database.Driver == DriverCSV {
		return "*"
	}
	return DefaultQuery
}
