package store

import "time"

// Config selects and tunes a store backend.
type Config struct {
	Type string `toml:"type" mapstructure:"type"` // "sqlite" (default), "postgres", "memory"

	// SQLite
	Path string `toml:"path,omitempty" mapstructure:"path"`

	// PostgreSQL
	DSN string `toml:"dsn,omitempty" mapstructure:"dsn"`

	// Connection pooling shared by HTTP and the background loops.
	MaxOpenConns   int           `toml:"max_open_conns,omitempty" mapstructure:"max_open_conns"`
	MinIdleConns   int           `toml:"min_idle_conns,omitempty" mapstructure:"min_idle_conns"`
	AcquireTimeout time.Duration `toml:"acquire_timeout,omitempty" mapstructure:"acquire_timeout"`
}

// Defaults for the pool; the sqlite file default mirrors the reference
// deployment (./db.sqlite created on demand).
const (
	DefaultSQLitePath     = "./db.sqlite"
	DefaultMaxOpenConns   = 100
	DefaultMinIdleConns   = 5
	DefaultAcquireTimeout = 8 * time.Second
)

// Normalized returns a copy with defaults applied.
func (c Config) Normalized() Config {
	if c.Type == "" {
		c.Type = "sqlite"
	}
	if c.Path == "" {
		c.Path = DefaultSQLitePath
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = DefaultMaxOpenConns
	}
	if c.MinIdleConns <= 0 {
		c.MinIdleConns = DefaultMinIdleConns
	}
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = DefaultAcquireTimeout
	}
	return c
}
