package cache

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/MbazzaTZ/GOnSales/errors"
	"github.com/MbazzaTZ/GOnSales/storage"
)

// kvKeyPrefix namespaces tier entries inside the backing store so they can
// never collide with the "data-" snapshot keys owned by the persist syncer.
const kvKeyPrefix = "cache_"

// kvTier is a cache tier backed by a storage.Store. The session tier uses a
// process-scoped memory store; the durable tier uses the LevelDB store.
//
// Iterating a backing store is comparatively expensive, so capacity is
// enforced with batch eviction: when full, the oldest-by-LastAccessAt 25%
// of entries are removed in one pass. That amortizes the scan cost instead
// of paying it on every insert.
type kvTier struct {
	name       Strategy
	kv         storage.Store
	capacity   int
	defaultTTL time.Duration
	stats      *Statistics
	metrics    *tierMetrics
}

// evictFraction is the share of entries removed by one batch eviction.
const evictFraction = 0.25

// newKVTier creates a tier backed by the given store.
func newKVTier(name Strategy, kv storage.Store, capacity int, defaultTTL time.Duration, metrics *tierMetrics) *kvTier {
	return &kvTier{
		name:       name,
		kv:         kv,
		capacity:   capacity,
		defaultTTL: defaultTTL,
		stats:      NewStatistics(),
		metrics:    metrics,
	}
}

// Name identifies the tier.
func (t *kvTier) Name() Strategy {
	return t.name
}

// Set stores an entry, batch-evicting first if the tier is at capacity.
func (t *kvTier) Set(key string, entry *Entry) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if entry.TTL <= 0 {
		entry.TTL = t.defaultTTL
	}

	ctx := context.Background()
	keys, err := t.kv.List(ctx, kvKeyPrefix)
	if err != nil {
		return errors.WrapTransient(err, "kvTier", "Set", "list entries")
	}

	exists := false
	storageKey := kvKeyPrefix + key
	for _, k := range keys {
		if k == storageKey {
			exists = true
			break
		}
	}

	// Capacity is enforced before the insert, never after.
	if !exists && len(keys) >= t.capacity {
		t.evictBatch(ctx, keys)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return errors.WrapTransient(errors.ErrSerialization, "kvTier", "Set", "encode entry")
	}

	if err := t.kv.Put(ctx, storageKey, data); err != nil {
		return errors.WrapTransient(err, "kvTier", "Set", "put entry")
	}

	t.stats.Set()
	t.updateSizeStat(ctx)
	if t.metrics != nil {
		t.metrics.recordSet()
	}
	return nil
}

// Get returns the live entry for key, touching its access metadata.
func (t *kvTier) Get(key string) (*Entry, bool) {
	now := time.Now()
	ctx := context.Background()

	data, err := t.kv.Get(ctx, kvKeyPrefix+key)
	if err != nil {
		t.stats.Miss()
		if t.metrics != nil {
			t.metrics.recordMiss()
		}
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt entry is unrecoverable cache state: drop it and miss.
		_ = t.kv.Delete(ctx, kvKeyPrefix+key)
		t.stats.Miss()
		if t.metrics != nil {
			t.metrics.recordMiss()
		}
		return nil, false
	}

	if !entry.IsValid(now) {
		_ = t.kv.Delete(ctx, kvKeyPrefix+key)
		t.stats.Expired()
		t.stats.Miss()
		if t.metrics != nil {
			t.metrics.recordExpired()
			t.metrics.recordMiss()
		}
		return nil, false
	}

	entry.Touch(now)
	// Access metadata is best effort: a failed write-back only skews LRU
	// ordering, it cannot lose data.
	if touched, err := json.Marshal(&entry); err == nil {
		_ = t.kv.Put(ctx, kvKeyPrefix+key, touched)
	}

	t.stats.Hit()
	if t.metrics != nil {
		t.metrics.recordHit()
	}
	return &entry, true
}

// Remove deletes the entry for key.
func (t *kvTier) Remove(key string) bool {
	ctx := context.Background()
	if _, err := t.kv.Get(ctx, kvKeyPrefix+key); err != nil {
		return false
	}
	if err := t.kv.Delete(ctx, kvKeyPrefix+key); err != nil {
		return false
	}

	t.stats.Delete()
	t.updateSizeStat(ctx)
	if t.metrics != nil {
		t.metrics.recordDelete()
	}
	return true
}

// Sweep removes all entries that are invalid at the given instant.
func (t *kvTier) Sweep(now time.Time) int {
	ctx := context.Background()
	keys, err := t.kv.List(ctx, kvKeyPrefix)
	if err != nil {
		return 0
	}

	removed := 0
	for _, storageKey := range keys {
		data, err := t.kv.Get(ctx, storageKey)
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil || !entry.IsValid(now) {
			if t.kv.Delete(ctx, storageKey) == nil {
				removed++
			}
		}
	}

	if removed > 0 {
		for i := 0; i < removed; i++ {
			t.stats.Expired()
		}
		t.updateSizeStat(ctx)
		if t.metrics != nil {
			t.metrics.recordExpiredN(removed)
		}
	}
	return removed
}

// Size returns the current number of entries.
func (t *kvTier) Size() int {
	keys, err := t.kv.List(context.Background(), kvKeyPrefix)
	if err != nil {
		return 0
	}
	return len(keys)
}

// Capacity returns the maximum number of entries.
func (t *kvTier) Capacity() int {
	return t.capacity
}

// Keys returns the keys of all live entries.
func (t *kvTier) Keys() []string {
	now := time.Now()
	ctx := context.Background()

	storageKeys, err := t.kv.List(ctx, kvKeyPrefix)
	if err != nil {
		return nil
	}

	keys := make([]string, 0, len(storageKeys))
	for _, storageKey := range storageKeys {
		data, err := t.kv.Get(ctx, storageKey)
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		if entry.IsValid(now) {
			keys = append(keys, strings.TrimPrefix(storageKey, kvKeyPrefix))
		}
	}
	return keys
}

// Stats returns the tier statistics.
func (t *kvTier) Stats() *Statistics {
	return t.stats
}

// Close closes the backing store.
func (t *kvTier) Close() error {
	return t.kv.Close()
}

// evictBatch removes the oldest-by-LastAccessAt 25% of entries in one pass.
func (t *kvTier) evictBatch(ctx context.Context, keys []string) {
	type aged struct {
		key          string
		lastAccessAt time.Time
	}

	entries := make([]aged, 0, len(keys))
	for _, storageKey := range keys {
		data, err := t.kv.Get(ctx, storageKey)
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			// Corrupt entries are always the first to go.
			entries = append(entries, aged{key: storageKey})
			continue
		}
		entries = append(entries, aged{key: storageKey, lastAccessAt: entry.LastAccessAt})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].lastAccessAt.Before(entries[j].lastAccessAt)
	})

	count := int(float64(len(entries)) * evictFraction)
	if count < 1 {
		count = 1
	}

	evicted := 0
	for i := 0; i < count && i < len(entries); i++ {
		if t.kv.Delete(ctx, entries[i].key) == nil {
			evicted++
		}
	}

	for i := 0; i < evicted; i++ {
		t.stats.Eviction()
	}
	if t.metrics != nil && evicted > 0 {
		t.metrics.recordEvictionN(evicted)
	}
}

// updateSizeStat refreshes the size gauge from the backing store.
func (t *kvTier) updateSizeStat(ctx context.Context) {
	keys, err := t.kv.List(ctx, kvKeyPrefix)
	if err != nil {
		return
	}
	t.stats.UpdateSize(int64(len(keys)))
	if t.metrics != nil {
		t.metrics.updateSize(len(keys))
	}
}
