// Package cache provides the multi-tier cache used by the GOnSales data layer.
//
// Three tiers back the cache, each a bounded key/value container with its own
// capacity and default TTL:
//   - memory: fastest, smallest, strict LRU eviction
//   - session: process-scoped kv-backed tier, batch eviction
//   - durable: file-backed kv tier that survives restarts, batch eviction
//
// The Manager orchestrates the tiers: strategy selection (explicit or
// automatic by serialized size), read fallthrough in memory → session →
// durable order, and a periodic sweep that removes expired entries
// independent of access patterns.
//
// The cache is an optimization, never the record source of truth: storage
// and serialization failures are logged and degrade to cache misses.
package cache

import (
	"time"

	"github.com/MbazzaTZ/GOnSales/errors"
)

// Priority indicates how valuable an entry is relative to its tier peers.
// The sweep and eviction paths currently treat priorities uniformly; the
// field is carried so callers can declare intent and tiers can order on it.
type Priority string

const (
	// PriorityLow marks entries that are cheap to recompute.
	PriorityLow Priority = "low"

	// PriorityNormal is the default priority.
	PriorityNormal Priority = "normal"

	// PriorityHigh marks entries that are expensive to recompute.
	PriorityHigh Priority = "high"
)

// Strategy selects which tier a Manager operation targets.
type Strategy string

const (
	// StrategyMemory targets the in-memory LRU tier.
	StrategyMemory Strategy = "memory"

	// StrategySession targets the session-scoped kv tier.
	StrategySession Strategy = "session"

	// StrategyDurable targets the durable file-backed tier.
	StrategyDurable Strategy = "durable"

	// StrategyAuto selects a tier by the serialized byte length of the value:
	// small payloads go to memory, medium to session, large to durable.
	StrategyAuto Strategy = "auto"
)

// Entry wraps a serialized value with its cache metadata. An Entry is owned
// exclusively by the tier that stores it: created on Set, touched on Get,
// destroyed by the expiry sweep or capacity eviction.
type Entry struct {
	Value        []byte        `json:"value"`
	CreatedAt    time.Time     `json:"created_at"`
	TTL          time.Duration `json:"ttl"`
	Priority     Priority      `json:"priority"`
	AccessCount  int64         `json:"access_count"`
	LastAccessAt time.Time     `json:"last_access_at"`
}

// IsValid reports whether the entry is still live at the given instant.
// An entry whose age has reached its TTL is invalid even if not yet swept.
func (e *Entry) IsValid(now time.Time) bool {
	return now.Sub(e.CreatedAt) < e.TTL
}

// Touch records an access at the given instant.
func (e *Entry) Touch(now time.Time) {
	e.AccessCount++
	e.LastAccessAt = now
}

// Tier is a bounded key/value container holding cache entries.
//
// Implementations enforce their capacity before insertion would exceed it
// (evict-then-insert, never insert-then-trim) and must be safe for
// concurrent use.
type Tier interface {
	// Name identifies the tier for logs and metrics.
	Name() Strategy

	// Set stores an entry, evicting first if the tier is at capacity.
	Set(key string, entry *Entry) error

	// Get returns the live entry for key, touching its access metadata.
	// Expired entries are treated as absent and removed opportunistically.
	Get(key string) (*Entry, bool)

	// Remove deletes the entry for key. Returns true if it existed.
	Remove(key string) bool

	// Sweep removes every entry that is no longer valid at the given
	// instant and returns the number removed.
	Sweep(now time.Time) int

	// Size returns the current number of entries.
	Size() int

	// Capacity returns the maximum number of entries.
	Capacity() int

	// Keys returns the keys of all live entries.
	Keys() []string

	// Close releases tier resources.
	Close() error
}

// validateKey validates a cache key for basic requirements.
// Returns a classified error if the key is invalid.
func validateKey(key string) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidKey, "cache", "validateKey", "key cannot be empty")
	}
	return nil
}
