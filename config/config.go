// Package config loads application configuration from an optional YAML file
// with environment variable overrides. Every setting has a usable default so
// the application runs with no configuration at all.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MbazzaTZ/GOnSales/errors"
	"github.com/MbazzaTZ/GOnSales/pkg/cache"
)

// Environment variable names recognized by Load. Each overrides the
// corresponding file setting.
const (
	EnvDataDir         = "GONSALES_DATA_DIR"
	EnvMaxStorageBytes = "GONSALES_MAX_STORAGE_BYTES"
	EnvNATSURL         = "GONSALES_NATS_URL"
	EnvMetricsAddr     = "GONSALES_METRICS_ADDR"
	EnvLogLevel        = "GONSALES_LOG_LEVEL"
	EnvSaveInterval    = "GONSALES_SAVE_INTERVAL"
)

// Persist configures snapshot persistence.
type Persist struct {
	// Interval between automatic snapshots.
	Interval time.Duration `yaml:"interval"`
}

// Remote configures the remote document store. An empty URL disables the
// remote entirely and the application runs offline.
type Remote struct {
	URL         string        `yaml:"url"`
	SyncWorkers int           `yaml:"sync_workers"`
	SyncQueue   int           `yaml:"sync_queue"`
	PushTimeout time.Duration `yaml:"push_timeout"`
}

// Metrics configures the Prometheus endpoint. An empty address disables it.
type Metrics struct {
	Addr string `yaml:"addr"`
	Path string `yaml:"path"`
}

// Config is the full application configuration.
type Config struct {
	// DataDir is where the durable tier and snapshots live on disk.
	DataDir string `yaml:"data_dir"`

	// MaxStorageBytes caps the durable tier's on-disk footprint.
	MaxStorageBytes int64 `yaml:"max_storage_bytes"`

	// GrowthCeiling is the maximum allowed month-over-month growth rate
	// for performance records, as a fraction (0.5 means 50%).
	GrowthCeiling float64 `yaml:"growth_ceiling"`

	// StoreCacheTTL is the TTL of the write-through collection entries the
	// CRUD layer publishes after every mutation.
	StoreCacheTTL time.Duration `yaml:"store_cache_ttl"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Cache   cache.Config `yaml:"cache"`
	Persist Persist      `yaml:"persist"`
	Remote  Remote       `yaml:"remote"`
	Metrics Metrics      `yaml:"metrics"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		DataDir:         "data",
		MaxStorageBytes: 64 * 1024 * 1024,
		GrowthCeiling:   0.5,
		StoreCacheTTL:   5 * time.Minute,
		LogLevel:        "info",
		Cache:           cache.DefaultConfig(),
		Persist: Persist{
			Interval: 30 * time.Second,
		},
		Remote: Remote{
			SyncWorkers: 2,
			SyncQueue:   256,
			PushTimeout: 10 * time.Second,
		},
		Metrics: Metrics{
			Path: "/metrics",
		},
	}
}

// Load reads configuration from path, if non-empty, then applies
// environment overrides. A missing file at an explicitly given path is an
// error; an empty path means defaults only.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.WrapFatal(err, "Config", "Load", "read "+path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.WrapInvalid(err, "Config", "Load", "parse "+path)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvMaxStorageBytes); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxStorageBytes = n
		}
	}
	if v := os.Getenv(EnvNATSURL); v != "" {
		cfg.Remote.URL = v
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvSaveInterval); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Persist.Interval = d
		}
	}
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "data_dir must not be empty")
	}
	if c.MaxStorageBytes <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "max_storage_bytes must be positive")
	}
	if c.GrowthCeiling < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "growth_ceiling must not be negative")
	}
	if c.StoreCacheTTL <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "store_cache_ttl must be positive")
	}
	if c.Persist.Interval <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "persist interval must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "unknown log level "+c.LogLevel)
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps the configured log level to its slog equivalent.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
