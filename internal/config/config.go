// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Workbook    WorkbookConfig
	Keywords    KeywordsConfig
	Maintenance MaintenanceConfig
	Rate        RateLimitConfig
	Security    SecurityConfig
	Logging     LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds snapshot database settings.
// Leaving URL empty disables report snapshots.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// WorkbookConfig holds coverage workbook settings.
type WorkbookConfig struct {
	// Path is a workbook loaded at startup under the id "default" (optional)
	Path string `env:"WORKBOOK_PATH"`

	// Sheet is the sheet read from each workbook (default: Sheet1)
	Sheet string `env:"WORKBOOK_SHEET" default:"Sheet1"`

	// MaxFileSize is the maximum allowed upload size in bytes (default: 50MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"52428800"`

	// MaxConcurrent is the maximum number of workbooks parsed in parallel (default: 4)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a parse slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// KeywordsConfig holds the ordered report keyword slots.
type KeywordsConfig struct {
	// List is a comma-separated list of up to six keywords.
	// Blank entries keep their slot: "Delta,,United" leaves slot 2 empty.
	List []string `env:"KEYWORDS" keepEmpty:"true"`

	// File is a YAML file with a "keywords" list; overrides List when set
	File string `env:"KEYWORDS_FILE"`
}

// MaintenanceConfig holds background cleanup settings.
type MaintenanceConfig struct {
	// WorkbookTTL is how long an uploaded workbook is kept; 0 keeps uploads forever (default: 24h)
	WorkbookTTL time.Duration `env:"WORKBOOK_TTL" default:"24h"`

	// SnapshotRetention is how long report snapshots are kept; 0 keeps them forever (default: 2160h, 90 days)
	SnapshotRetention time.Duration `env:"SNAPSHOT_RETENTION" default:"2160h"`

	// Interval is how often maintenance runs (default: 1h)
	Interval time.Duration `env:"MAINTENANCE_INTERVAL" default:"1h"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key checks on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
