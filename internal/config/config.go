// Package config provides configuration management for the todo list server
// and its clients.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Default configuration values.
const (
	DefaultServerPort      = 8080
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsEnabled  = true
	DefaultStoreBackend    = BackendMemory
	DefaultSQLitePath      = "todos.db"
	DefaultRedisAddr       = "localhost:6379"
	DefaultRedisDB         = 0
	DefaultRedisPrefix     = "todos"
	DefaultPerPage         = 10
	DefaultStrictText      = true

	DefaultServerURL     = "http://localhost:8080"
	DefaultClientTimeout = time.Duration(0)
	DefaultPageSize      = 10
)

// Environment variable names.
const (
	EnvServerPort      = "APP_SERVER_PORT"
	EnvLogLevel        = "APP_LOG_LEVEL"
	EnvShutdownTimeout = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled  = "APP_METRICS_ENABLED"
	EnvStoreBackend    = "APP_STORE_BACKEND"
	EnvSQLitePath      = "APP_SQLITE_PATH"
	EnvRedisAddr       = "APP_REDIS_ADDR"
	EnvRedisDB         = "APP_REDIS_DB"
	EnvRedisPrefix     = "APP_REDIS_PREFIX"
	EnvDefaultPerPage  = "APP_DEFAULT_PER_PAGE"
	EnvStrictText      = "APP_STRICT_TEXT"

	EnvServerURL     = "TODO_SERVER_URL"
	EnvClientTimeout = "APP_CLIENT_TIMEOUT"
	EnvPageSize      = "TODO_PAGE_SIZE"
)

// Config holds the server configuration.
type Config struct {
	ServerPort      int
	LogLevel        string
	ShutdownTimeout time.Duration
	MetricsEnabled  bool

	// StoreBackend selects the item store: memory, sqlite or redis.
	StoreBackend string
	SQLitePath   string
	RedisAddr    string
	RedisDB      int
	RedisPrefix  string

	// DefaultPerPage is the page size used when a list request has none.
	DefaultPerPage int
	// StrictText rejects blank item text on create and update.
	StrictText bool
}

// ClientConfig holds the configuration of the API client and the CLI.
type ClientConfig struct {
	ServerURL string
	// Timeout bounds each request; 0 means no timeout.
	Timeout  time.Duration
	PageSize int
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidStoreBackend    = errors.New("store backend must be one of: memory, sqlite, redis")
	ErrInvalidSQLitePath      = errors.New("sqlite path must be set when store backend is sqlite")
	ErrInvalidRedisAddr       = errors.New("redis address must be set when store backend is redis")
	ErrInvalidRedisDB         = errors.New("redis db must not be negative")
	ErrInvalidDefaultPerPage  = errors.New("default per page must be positive")
	ErrInvalidServerURL       = errors.New("server URL must be an absolute http or https URL")
	ErrInvalidClientTimeout   = errors.New("client timeout must not be negative")
	ErrInvalidPageSize        = errors.New("page size must not be negative")
)

// Load reads the server configuration from environment variables with
// defaults. Environment variables have priority over default values.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:      DefaultServerPort,
		LogLevel:        DefaultLogLevel,
		ShutdownTimeout: DefaultShutdownTimeout,
		MetricsEnabled:  DefaultMetricsEnabled,
		StoreBackend:    DefaultStoreBackend,
		SQLitePath:      DefaultSQLitePath,
		RedisAddr:       DefaultRedisAddr,
		RedisDB:         DefaultRedisDB,
		RedisPrefix:     DefaultRedisPrefix,
		DefaultPerPage:  DefaultPerPage,
		StrictText:      DefaultStrictText,
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFromEnv loads configuration values from environment variables.
func (c *Config) loadFromEnv() error {
	if err := c.loadServerEnv(); err != nil {
		return err
	}

	if err := c.loadStoreEnv(); err != nil {
		return err
	}

	return nil
}

// loadServerEnv loads server-related environment variables.
func (c *Config) loadServerEnv() error {
	if val := os.Getenv(EnvServerPort); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvServerPort, err)
		}
		c.ServerPort = port
	}

	if val := os.Getenv(EnvLogLevel); val != "" {
		c.LogLevel = val
	}

	if val := os.Getenv(EnvShutdownTimeout); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvShutdownTimeout, err)
		}
		c.ShutdownTimeout = timeout
	}

	if val := os.Getenv(EnvMetricsEnabled); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvMetricsEnabled, err)
		}
		c.MetricsEnabled = enabled
	}

	if val := os.Getenv(EnvDefaultPerPage); val != "" {
		perPage, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvDefaultPerPage, err)
		}
		c.DefaultPerPage = perPage
	}

	if val := os.Getenv(EnvStrictText); val != "" {
		strict, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvStrictText, err)
		}
		c.StrictText = strict
	}

	return nil
}

// loadStoreEnv loads store backend environment variables.
func (c *Config) loadStoreEnv() error {
	if val := os.Getenv(EnvStoreBackend); val != "" {
		c.StoreBackend = val
	}

	if val := os.Getenv(EnvSQLitePath); val != "" {
		c.SQLitePath = val
	}

	if val := os.Getenv(EnvRedisAddr); val != "" {
		c.RedisAddr = val
	}

	if val := os.Getenv(EnvRedisDB); val != "" {
		db, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvRedisDB, err)
		}
		c.RedisDB = db
	}

	if val := os.Getenv(EnvRedisPrefix); val != "" {
		c.RedisPrefix = val
	}

	return nil
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateStore(); err != nil {
		return err
	}

	return nil
}

// validateServer validates server-related configuration.
func (c *Config) validateServer() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return ErrInvalidServerPort
	}

	if !ValidLogLevel(c.LogLevel) {
		return ErrInvalidLogLevel
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	if c.DefaultPerPage <= 0 {
		return ErrInvalidDefaultPerPage
	}

	return nil
}

// validateStore validates the backend selection and its settings.
func (c *Config) validateStore() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLitePath == "" {
			return ErrInvalidSQLitePath
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return ErrInvalidRedisAddr
		}
		if c.RedisDB < 0 {
			return ErrInvalidRedisDB
		}
	default:
		return ErrInvalidStoreBackend
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

// ValidLogLevel reports whether level is one of the supported log levels.
func ValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// LoadClient reads the client configuration from environment variables with
// defaults.
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{
		ServerURL: DefaultServerURL,
		Timeout:   DefaultClientTimeout,
		PageSize:  DefaultPageSize,
	}

	if val := os.Getenv(EnvServerURL); val != "" {
		cfg.ServerURL = val
	}

	if val := os.Getenv(EnvClientTimeout); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("loading client config: parsing %s: %w", EnvClientTimeout, err)
		}
		cfg.Timeout = timeout
	}

	if val := os.Getenv(EnvPageSize); val != "" {
		size, err := strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("loading client config: parsing %s: %w", EnvPageSize, err)
		}
		cfg.PageSize = size
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating client config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the client configuration values are valid.
func (c *ClientConfig) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidServerURL
	}

	if c.Timeout < 0 {
		return ErrInvalidClientTimeout
	}

	if c.PageSize < 0 {
		return ErrInvalidPageSize
	}

	return nil
}
