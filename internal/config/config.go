// Package config reads process settings from the environment, with an
// optional .env file in the working directory.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/prism-xos/prism-core/internal/paths"
)

const (
	DefaultAppID           = "Prism"
	DefaultBusyTimeout     = 5 * time.Second
	DefaultMaxReadConns    = 4
	DefaultJanitorInterval = 5 * time.Minute
	DefaultMaxCacheMB      = 2048
)

type Config struct {
	AppID string
	// DataDir replaces the per-user application support directory when set.
	DataDir  string
	LogLevel zerolog.Level

	BusyTimeout  time.Duration
	MaxReadConns int

	JanitorInterval time.Duration
	// MaxCacheBytes of zero disables audio cache trimming.
	MaxCacheBytes int64
}

// Load reads .env (if present) and then PRISM_* variables. Values already
// set in the environment win over .env.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppID:         strings.TrimSpace(os.Getenv("PRISM_APP_ID")),
		DataDir:       strings.TrimSpace(os.Getenv("PRISM_DATA_DIR")),
		LogLevel:      zerolog.InfoLevel,
		MaxCacheBytes: -1,
	}

	if v := env("PRISM_LOG_LEVEL"); v != "" {
		lvl, err := zerolog.ParseLevel(strings.ToLower(v))
		if err != nil {
			return Config{}, fmt.Errorf("PRISM_LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = lvl
	}

	var err error
	if cfg.BusyTimeout, err = durationEnv("PRISM_SQLITE_BUSY_TIMEOUT"); err != nil {
		return Config{}, err
	}
	if cfg.JanitorInterval, err = durationEnv("PRISM_JANITOR_INTERVAL"); err != nil {
		return Config{}, err
	}
	if v := env("PRISM_SQLITE_MAX_READ_CONNS"); v != "" {
		if cfg.MaxReadConns, err = strconv.Atoi(v); err != nil || cfg.MaxReadConns < 1 {
			return Config{}, fmt.Errorf("PRISM_SQLITE_MAX_READ_CONNS: want a positive integer, got %q", v)
		}
	}
	if v := env("PRISM_MAX_CACHE_MB"); v != "" {
		mb, err := strconv.ParseInt(v, 10, 64)
		if err != nil || mb < 0 {
			return Config{}, fmt.Errorf("PRISM_MAX_CACHE_MB: want a non-negative integer, got %q", v)
		}
		cfg.MaxCacheBytes = mb << 20
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AppID == "" {
		c.AppID = DefaultAppID
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = DefaultBusyTimeout
	}
	if c.MaxReadConns <= 0 {
		c.MaxReadConns = DefaultMaxReadConns
	}
	if c.JanitorInterval <= 0 {
		c.JanitorInterval = DefaultJanitorInterval
	}
	if c.MaxCacheBytes < 0 {
		c.MaxCacheBytes = DefaultMaxCacheMB << 20
	}
}

// Paths returns the resolver for DataDir, or for the per-user directory
// named after AppID.
func (c Config) Paths() (*paths.Resolver, error) {
	if c.DataDir != "" {
		return paths.NewWithRoot(c.DataDir), nil
	}
	return paths.New(c.AppID)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationEnv(key string) (time.Duration, error) {
	v := env(key)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, v)
	}
	return d, nil
}
