package cache

import (
	"container/list"
	"sync"
	"time"
)

// memoryTier is the in-memory cache tier with strict LRU eviction.
//
// A doubly-linked list tracks access recency: Get moves the element to the
// front, so the back of the list is always the entry with the oldest
// LastAccessAt. When the tier is at capacity, Set evicts that single entry
// before inserting. The memory tier is the hottest path, so single-entry
// LRU keeps insert latency flat.
type memoryTier struct {
	mu         sync.Mutex
	capacity   int
	defaultTTL time.Duration
	items      map[string]*list.Element // key → list element
	order      *list.List               // front = most recently accessed
	stats      *Statistics
	metrics    *tierMetrics
}

// memoryEntry couples a key to its entry inside the LRU list.
type memoryEntry struct {
	key   string
	entry *Entry
}

// newMemoryTier creates the in-memory LRU tier.
func newMemoryTier(capacity int, defaultTTL time.Duration, metrics *tierMetrics) *memoryTier {
	return &memoryTier{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		items:      make(map[string]*list.Element),
		order:      list.New(),
		stats:      NewStatistics(),
		metrics:    metrics,
	}
}

// Name identifies the tier.
func (t *memoryTier) Name() Strategy {
	return StrategyMemory
}

// Set stores an entry, evicting the least recently accessed entry first when
// the tier is at capacity.
func (t *memoryTier) Set(key string, entry *Entry) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if entry.TTL <= 0 {
		entry.TTL = t.defaultTTL
	}

	t.mu.Lock()

	if element, exists := t.items[key]; exists {
		element.Value.(*memoryEntry).entry = entry
		t.order.MoveToFront(element)
	} else {
		// Capacity is enforced before the insert, never after.
		if len(t.items) >= t.capacity {
			t.evictOldest()
		}
		t.items[key] = t.order.PushFront(&memoryEntry{key: key, entry: entry})
	}

	size := len(t.items)
	t.mu.Unlock()

	t.stats.Set()
	t.stats.UpdateSize(int64(size))
	if t.metrics != nil {
		t.metrics.recordSet()
		t.metrics.updateSize(size)
	}
	return nil
}

// Get returns the live entry for key and marks it most recently accessed.
func (t *memoryTier) Get(key string) (*Entry, bool) {
	now := time.Now()

	t.mu.Lock()
	element, exists := t.items[key]
	if !exists {
		t.mu.Unlock()
		t.stats.Miss()
		if t.metrics != nil {
			t.metrics.recordMiss()
		}
		return nil, false
	}

	me := element.Value.(*memoryEntry)
	if !me.entry.IsValid(now) {
		// Expired but not yet swept: treat as absent and drop it now.
		delete(t.items, key)
		t.order.Remove(element)
		size := len(t.items)
		t.mu.Unlock()

		t.stats.Expired()
		t.stats.Miss()
		t.stats.UpdateSize(int64(size))
		if t.metrics != nil {
			t.metrics.recordExpired()
			t.metrics.recordMiss()
			t.metrics.updateSize(size)
		}
		return nil, false
	}

	me.entry.Touch(now)
	t.order.MoveToFront(element)
	entry := me.entry
	t.mu.Unlock()

	t.stats.Hit()
	if t.metrics != nil {
		t.metrics.recordHit()
	}
	return entry, true
}

// Remove deletes the entry for key.
func (t *memoryTier) Remove(key string) bool {
	t.mu.Lock()
	element, exists := t.items[key]
	if exists {
		delete(t.items, key)
		t.order.Remove(element)
	}
	size := len(t.items)
	t.mu.Unlock()

	if exists {
		t.stats.Delete()
		t.stats.UpdateSize(int64(size))
		if t.metrics != nil {
			t.metrics.recordDelete()
			t.metrics.updateSize(size)
		}
	}
	return exists
}

// Sweep removes all entries that are invalid at the given instant.
func (t *memoryTier) Sweep(now time.Time) int {
	t.mu.Lock()
	removed := 0
	for element := t.order.Front(); element != nil; {
		next := element.Next()
		me := element.Value.(*memoryEntry)
		if !me.entry.IsValid(now) {
			delete(t.items, me.key)
			t.order.Remove(element)
			removed++
		}
		element = next
	}
	size := len(t.items)
	t.mu.Unlock()

	if removed > 0 {
		for i := 0; i < removed; i++ {
			t.stats.Expired()
		}
		t.stats.UpdateSize(int64(size))
		if t.metrics != nil {
			t.metrics.recordExpiredN(removed)
			t.metrics.updateSize(size)
		}
	}
	return removed
}

// Size returns the current number of entries.
func (t *memoryTier) Size() int {
	t.mu.Lock()
	size := len(t.items)
	t.mu.Unlock()
	return size
}

// Capacity returns the maximum number of entries.
func (t *memoryTier) Capacity() int {
	return t.capacity
}

// Keys returns the keys of all live entries, most recently accessed first.
func (t *memoryTier) Keys() []string {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	keys := make([]string, 0, len(t.items))
	for element := t.order.Front(); element != nil; element = element.Next() {
		me := element.Value.(*memoryEntry)
		if me.entry.IsValid(now) {
			keys = append(keys, me.key)
		}
	}
	return keys
}

// Stats returns the tier statistics.
func (t *memoryTier) Stats() *Statistics {
	return t.stats
}

// Close releases the tier. The memory tier holds no external resources.
func (t *memoryTier) Close() error {
	return nil
}

// evictOldest removes the entry at the back of the LRU list.
// Must be called with the mutex held.
func (t *memoryTier) evictOldest() {
	element := t.order.Back()
	if element == nil {
		return
	}
	me := element.Value.(*memoryEntry)
	delete(t.items, me.key)
	t.order.Remove(element)

	t.stats.Eviction()
	if t.metrics != nil {
		t.metrics.recordEviction()
	}
}
