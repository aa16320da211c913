package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Store drivers accepted by STORE_DRIVER
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// StoreConfig selects and configures the session store backend
type StoreConfig struct {
	Driver        string `env:"STORE_DRIVER" envDefault:"file"`
	DataFile      string `env:"DATA_FILE" envDefault:"data.json"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"courtqueue:"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"courtqueue.db"`
}

// ResetConfig controls the periodic store wipe
type ResetConfig struct {
	Enabled  bool   `env:"RESET_ENABLED" envDefault:"true"`
	Schedule string `env:"RESET_SCHEDULE" envDefault:"0 0 * * *"`
}

// RateLimitConfig bounds mutating API requests per client address
type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	Burst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`
}

// NgrokConfig enables an optional public tunnel
type NgrokConfig struct {
	Enabled   bool   `env:"NGROK_ENABLED" envDefault:"false"`
	AuthToken string `env:"NGROK_AUTHTOKEN"`
	Domain    string `env:"NGROK_DOMAIN"`
}

// Config is the full server configuration
type Config struct {
	Host          string `env:"HOST" envDefault:"localhost"`
	Port          int    `env:"PORT" envDefault:"8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"text"`
	StrictReorder bool   `env:"STRICT_REORDER" envDefault:"false"`

	Store     StoreConfig
	Reset     ResetConfig
	RateLimit RateLimitConfig
	Ngrok     NgrokConfig
}

// Load reads envFile (if it exists) into the process environment and parses
// the result. An empty envFile skips the .env step.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	return Parse()
}

// Parse builds a Config from the current environment
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Addr returns the host:port listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SlogLevel converts LogLevel, defaulting to info when it cannot be parsed
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate checks that every setting is usable. All problems are reported
// together, each wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	if c.Port < 0 || c.Port > 65535 {
		invalid("port %d out of range", c.Port)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		invalid("log level %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		invalid("log format %q (expected text or json)", c.LogFormat)
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverFile:
		if strings.TrimSpace(c.Store.DataFile) == "" {
			invalid("DATA_FILE is required for the file driver")
		}
	case DriverRedis:
		if strings.TrimSpace(c.Store.RedisAddr) == "" {
			invalid("REDIS_ADDR is required for the redis driver")
		}
		if c.Store.RedisDB < 0 {
			invalid("redis db %d is negative", c.Store.RedisDB)
		}
	case DriverSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			invalid("SQLITE_PATH is required for the sqlite driver")
		}
	default:
		invalid("unknown store driver %q", c.Store.Driver)
	}

	if c.Reset.Enabled {
		if _, err := cron.ParseStandard(c.Reset.Schedule); err != nil {
			invalid("reset schedule %q: %v", c.Reset.Schedule, err)
		}
	}

	if c.RateLimit.RPS < 0 {
		invalid("rate limit %v is negative", c.RateLimit.RPS)
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		invalid("rate limit burst must be at least 1")
	}

	return errors.Join(errs...)
}
