package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/MbazzaTZ/GOnSales/errors"
	"github.com/MbazzaTZ/GOnSales/storage"
)

// TierConfig bounds one tier.
type TierConfig struct {
	// Capacity is the maximum number of entries.
	Capacity int `yaml:"capacity"`

	// DefaultTTL applies to entries set without an explicit TTL.
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// Config contains configuration for the cache manager.
type Config struct {
	Memory  TierConfig `yaml:"memory"`
	Session TierConfig `yaml:"session"`
	Durable TierConfig `yaml:"durable"`

	// AutoMemoryMaxBytes is the exclusive upper bound on serialized size for
	// the auto strategy to place a value in the memory tier.
	AutoMemoryMaxBytes int `yaml:"auto_memory_max_bytes"`

	// AutoSessionMaxBytes is the exclusive upper bound on serialized size for
	// the auto strategy to place a value in the session tier. Anything larger
	// goes to the durable tier.
	AutoSessionMaxBytes int `yaml:"auto_session_max_bytes"`

	// CleanupInterval is how often the background sweep removes expired
	// entries from every tier.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// DefaultConfig returns a default cache configuration. The auto thresholds
// are product defaults with no deeper rationale than small/medium/large, so
// they stay configurable rather than hardcoded.
func DefaultConfig() Config {
	return Config{
		Memory:              TierConfig{Capacity: 100, DefaultTTL: 5 * time.Minute},
		Session:             TierConfig{Capacity: 500, DefaultTTL: 30 * time.Minute},
		Durable:             TierConfig{Capacity: 2000, DefaultTTL: 24 * time.Hour},
		AutoMemoryMaxBytes:  1024,
		AutoSessionMaxBytes: 10 * 1024,
		CleanupInterval:     time.Minute,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	for _, tier := range []struct {
		name string
		cfg  TierConfig
	}{
		{"memory", c.Memory},
		{"session", c.Session},
		{"durable", c.Durable},
	} {
		if tier.cfg.Capacity <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
				fmt.Sprintf("%s tier capacity must be positive, got %d", tier.name, tier.cfg.Capacity))
		}
		if tier.cfg.DefaultTTL <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
				fmt.Sprintf("%s tier default_ttl must be positive, got %v", tier.name, tier.cfg.DefaultTTL))
		}
	}

	if c.AutoMemoryMaxBytes <= 0 || c.AutoSessionMaxBytes <= c.AutoMemoryMaxBytes {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
			fmt.Sprintf("auto thresholds must satisfy 0 < memory (%d) < session (%d)",
				c.AutoMemoryMaxBytes, c.AutoSessionMaxBytes))
	}
	if c.CleanupInterval <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
			fmt.Sprintf("cleanup_interval must be positive, got %v", c.CleanupInterval))
	}
	return nil
}

// SetOptions controls where and for how long a value is cached.
// The zero value means: auto strategy, tier default TTL, normal priority.
type SetOptions struct {
	Strategy Strategy
	TTL      time.Duration
	Priority Priority
}

// Manager orchestrates the three cache tiers.
//
// The Manager never returns errors to callers: the cache is an optimization
// layered over the record stores, so serialization and storage failures are
// logged and degrade to cache misses. Set becomes a silent no-op on failure;
// Get on an undecodable entry returns the raw stored bytes rather than
// failing, and callers must tolerate a possibly-malformed hit.
type Manager struct {
	cfg    Config
	tiers  []Tier // fixed probe order: memory, session, durable
	logger *slog.Logger

	// Background sweep coordination
	shutdown chan struct{}
	done     chan struct{}
}

// NewManager creates a cache manager over the given session and durable
// backing stores and starts the background sweep.
func NewManager(ctx context.Context, cfg Config, sessionKV, durableKV storage.Store, options ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "cache", "NewManager", "config validation")
	}

	opts := applyOptions(options...)

	var memMetrics, sessMetrics, durMetrics *tierMetrics
	if opts.metricsReg != nil {
		var err error
		if memMetrics, err = newTierMetrics(opts.metricsReg, "memory"); err != nil {
			return nil, errors.WrapTransient(err, "cache", "NewManager", "metrics registration")
		}
		if sessMetrics, err = newTierMetrics(opts.metricsReg, "session"); err != nil {
			return nil, errors.WrapTransient(err, "cache", "NewManager", "metrics registration")
		}
		if durMetrics, err = newTierMetrics(opts.metricsReg, "durable"); err != nil {
			return nil, errors.WrapTransient(err, "cache", "NewManager", "metrics registration")
		}
	}

	m := &Manager{
		cfg: cfg,
		tiers: []Tier{
			newMemoryTier(cfg.Memory.Capacity, cfg.Memory.DefaultTTL, memMetrics),
			newKVTier(StrategySession, sessionKV, cfg.Session.Capacity, cfg.Session.DefaultTTL, sessMetrics),
			newKVTier(StrategyDurable, durableKV, cfg.Durable.Capacity, cfg.Durable.DefaultTTL, durMetrics),
		},
		logger:   opts.logger,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	go m.sweepLoop(ctx)

	return m, nil
}

// Set serializes value and stores it in the tier chosen by opts.Strategy.
// Failures are logged and swallowed; the value is simply not cached. Set on
// a closed manager is a logged no-op, the tier backends are already gone.
func (m *Manager) Set(key string, value any, opts SetOptions) {
	select {
	case <-m.shutdown:
		m.logger.Warn("cache set skipped", "key", key, "error", errors.ErrTierClosed)
		return
	default:
	}

	data, err := json.Marshal(value)
	if err != nil {
		m.logger.Warn("cache set skipped, value not serializable", "key", key, "error", err)
		return
	}

	tier := m.tierFor(opts.Strategy, len(data))

	entry := &Entry{
		Value:        data,
		CreatedAt:    time.Now(),
		TTL:          opts.TTL,
		Priority:     opts.Priority,
		LastAccessAt: time.Now(),
	}
	if entry.Priority == "" {
		entry.Priority = PriorityNormal
	}

	if err := tier.Set(key, entry); err != nil {
		m.logger.Warn("cache set skipped", "key", key, "tier", tier.Name(), "error", err)
	}
}

// Get returns the cached value for key, or (nil, false) on a miss.
//
// For StrategyAuto the tiers are probed in memory → session → durable order
// and the first valid hit wins; a value written under auto to a slow tier is
// still found after the faster tiers miss. If the stored bytes fail to
// decode, the raw bytes are returned uninterpreted.
func (m *Manager) Get(key string, strategy Strategy) (any, bool) {
	var tiers []Tier
	if strategy == StrategyAuto || strategy == "" {
		tiers = m.tiers
	} else {
		tiers = []Tier{m.tier(strategy)}
	}

	for _, tier := range tiers {
		entry, ok := tier.Get(key)
		if !ok {
			continue
		}

		var value any
		if err := json.Unmarshal(entry.Value, &value); err != nil {
			m.logger.Warn("cache entry not decodable, returning raw bytes",
				"key", key, "tier", tier.Name(), "error", err)
			return entry.Value, true
		}
		return value, true
	}
	return nil, false
}

// Delete removes key from every tier. Returns true if any tier held it.
func (m *Manager) Delete(key string) bool {
	removed := false
	for _, tier := range m.tiers {
		if tier.Remove(key) {
			removed = true
		}
	}
	return removed
}

// TierStats returns the statistics for the named tier, or nil for an
// unknown strategy.
func (m *Manager) TierStats(strategy Strategy) *Statistics {
	switch t := m.tier(strategy).(type) {
	case *memoryTier:
		return t.Stats()
	case *kvTier:
		return t.Stats()
	default:
		return nil
	}
}

// Sweep removes expired entries from every tier and returns the total
// number removed. The background loop calls this on CleanupInterval; it is
// exported so tests and shutdown paths can force a pass.
func (m *Manager) Sweep() int {
	now := time.Now()
	total := 0
	for _, tier := range m.tiers {
		total += tier.Sweep(now)
	}
	return total
}

// Close stops the background sweep and closes every tier.
// Closing an already-closed manager is a no-op.
func (m *Manager) Close() error {
	select {
	case <-m.shutdown:
		// Already shutting down
	default:
		close(m.shutdown)
	}

	select {
	case <-m.done:
	case <-time.After(5 * time.Second):
		return errors.WrapTransient(errors.ErrShuttingDown, "cache", "Close", "await sweep loop")
	}

	for _, tier := range m.tiers {
		if err := tier.Close(); err != nil {
			m.logger.Warn("tier close failed", "tier", tier.Name(), "error", err)
		}
	}
	return nil
}

// tierFor resolves a strategy and payload size to a tier. Auto selection is
// purely a size/latency tradeoff: larger payloads go to slower but
// higher-capacity tiers.
func (m *Manager) tierFor(strategy Strategy, size int) Tier {
	if strategy == StrategyAuto || strategy == "" {
		switch {
		case size < m.cfg.AutoMemoryMaxBytes:
			return m.tiers[0]
		case size < m.cfg.AutoSessionMaxBytes:
			return m.tiers[1]
		default:
			return m.tiers[2]
		}
	}
	return m.tier(strategy)
}

// tier returns the tier for an explicit strategy, defaulting to memory for
// anything unrecognized.
func (m *Manager) tier(strategy Strategy) Tier {
	switch strategy {
	case StrategySession:
		return m.tiers[1]
	case StrategyDurable:
		return m.tiers[2]
	default:
		return m.tiers[0]
	}
}

// sweepLoop periodically removes expired entries from every tier. Expiry by
// sweep is what bounds growth from entries that are set once and never read
// again, which LRU ordering alone would never reclaim.
func (m *Manager) sweepLoop(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.shutdown:
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
