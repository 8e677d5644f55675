package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MbazzaTZ/GOnSales/errors"
	"github.com/MbazzaTZ/GOnSales/pkg/cache"
)

// cacheKeySuffix derives the cache key for a store's collection snapshot.
const cacheKeySuffix = "-data"

// CacheKey returns the cache key under which a store's full collection is
// published after every successful mutation.
func CacheKey(storeName string) string {
	return storeName + cacheKeySuffix
}

// RemoteSink receives successful local mutations for push to the remote
// document store. Implementations must not block: the manager hands over a
// snapshot taken at issuance time and moves on.
type RemoteSink interface {
	RecordPut(collection string, record Record)
	RecordDelete(collection, id string)
}

// Manager is the CRUD coordinator. Every mutation validates against the
// store's schema and rules, mutates the in-memory record list, then
// synchronously refreshes the store's collection entry in the cache
// (write-through, never deferred) before returning. A failed mutation
// leaves records and cache exactly as they were.
type Manager struct {
	registry *Registry
	cache    *cache.Manager
	remote   RemoteSink // optional
	cacheTTL time.Duration
	logger   *slog.Logger
}

// ManagerOption configures the CRUD coordinator.
type ManagerOption func(*Manager)

// WithRemote attaches the remote document-store sink.
func WithRemote(remote RemoteSink) ManagerOption {
	return func(m *Manager) {
		m.remote = remote
	}
}

// WithCacheTTL overrides the TTL of write-through collection entries.
func WithCacheTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.cacheTTL = ttl
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a CRUD coordinator over the registry and cache.
func NewManager(registry *Registry, cacheManager *cache.Manager, opts ...ManagerOption) *Manager {
	m := &Manager{
		registry: registry,
		cache:    cacheManager,
		cacheTTL: 5 * time.Minute,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add validates and appends a new record to the named store.
//
// The id is generated when absent; supplying an id that already exists is
// an error, never a silent overwrite. Timestamps are stamped before
// validation so rules see the record exactly as it will be stored.
// Returns the stored record.
func (m *Manager) Add(ctx context.Context, storeName string, data Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapTransient(err, "Manager", "Add", "context check")
	}

	s, err := m.registry.Get(storeName)
	if err != nil {
		return nil, err
	}

	record := data.Clone()
	if record.ID() == "" {
		record[KeyID] = uuid.NewString()
	}
	now := time.Now()
	record[KeyCreatedAt] = now
	record[KeyUpdatedAt] = now

	if result := s.Validate(record); !result.Valid {
		return nil, result.Err()
	}

	s.mu.Lock()
	if _, exists := s.byID[record.ID()]; exists {
		s.mu.Unlock()
		return nil, errors.WrapInvalid(errors.ErrDuplicateID, "Manager", "Add",
			fmt.Sprintf("id %q in store %q", record.ID(), storeName))
	}
	s.byID[record.ID()] = len(s.records)
	s.records = append(s.records, record)
	// Published before the lock drops so concurrent mutators cannot
	// reorder an older snapshot over a newer one.
	m.refreshCache(storeName, s.records)
	s.mu.Unlock()

	if m.remote != nil {
		m.remote.RecordPut(storeName, record.Clone())
	}

	m.logger.Debug("record added", "store", storeName, "id", record.ID())
	return record.Clone(), nil
}

// Update shallow-merges patch over the record with the given id, re-stamps
// updatedAt, and revalidates the entire merged record: a patch that leaves
// the record in an invalid cross-field state fails and nothing changes.
// Returns the stored record.
func (m *Manager) Update(ctx context.Context, storeName, id string, patch Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapTransient(err, "Manager", "Update", "context check")
	}

	s, err := m.registry.Get(storeName)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	idx, exists := s.byID[id]
	if !exists {
		s.mu.Unlock()
		return nil, errors.WrapInvalid(errors.ErrNotFound, "Manager", "Update",
			fmt.Sprintf("id %q in store %q", id, storeName))
	}

	merged := s.records[idx].Merge(patch)
	merged[KeyID] = id // a patch cannot move a record to a new id
	merged[KeyUpdatedAt] = time.Now()

	if result := s.Validate(merged); !result.Valid {
		s.mu.Unlock()
		return nil, result.Err()
	}

	s.records[idx] = merged
	m.refreshCache(storeName, s.records)
	s.mu.Unlock()

	if m.remote != nil {
		m.remote.RecordPut(storeName, merged.Clone())
	}

	m.logger.Debug("record updated", "store", storeName, "id", id)
	return merged.Clone(), nil
}

// Delete removes the record with the given id and returns it, supporting
// undo and audit by the caller. The store's cache entry is refreshed to the
// post-delete list, not merely invalidated.
func (m *Manager) Delete(ctx context.Context, storeName, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapTransient(err, "Manager", "Delete", "context check")
	}

	s, err := m.registry.Get(storeName)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	idx, exists := s.byID[id]
	if !exists {
		s.mu.Unlock()
		return nil, errors.WrapInvalid(errors.ErrNotFound, "Manager", "Delete",
			fmt.Sprintf("id %q in store %q", id, storeName))
	}

	removed := s.records[idx]
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	delete(s.byID, id)
	for i := idx; i < len(s.records); i++ {
		s.byID[s.records[i].ID()] = i
	}
	m.refreshCache(storeName, s.records)
	s.mu.Unlock()

	if m.remote != nil {
		m.remote.RecordDelete(storeName, id)
	}

	m.logger.Debug("record deleted", "store", storeName, "id", id)
	return removed, nil
}

// Query returns a fresh result slice, never the internal list: filtered,
// stably sorted, and paginated per opts.
func (m *Manager) Query(ctx context.Context, storeName string, opts QueryOptions) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapTransient(err, "Manager", "Query", "context check")
	}

	s, err := m.registry.Get(storeName)
	if err != nil {
		return nil, err
	}

	return applyQuery(s.Snapshot(), opts), nil
}

// Get returns the record with the given id.
func (m *Manager) Get(ctx context.Context, storeName, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapTransient(err, "Manager", "Get", "context check")
	}

	s, err := m.registry.Get(storeName)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, exists := s.byID[id]
	if !exists {
		return nil, errors.WrapInvalid(errors.ErrNotFound, "Manager", "Get",
			fmt.Sprintf("id %q in store %q", id, storeName))
	}
	return s.records[idx].Clone(), nil
}

// RefreshCache republishes a store's current collection snapshot. The load
// and remote-pull paths call this after Replace.
func (m *Manager) RefreshCache(storeName string) error {
	s, err := m.registry.Get(storeName)
	if err != nil {
		return err
	}
	m.refreshCache(storeName, s.Snapshot())
	return nil
}

// refreshCache writes the collection snapshot through to the memory tier.
// The cached collection is always re-set wholesale, never read-modify-written.
// Mutators call this while still holding the store lock, which keeps the
// cache entry ordered with the record list; cache.Set serializes the records
// synchronously, so the live slice never escapes the lock.
func (m *Manager) refreshCache(storeName string, snapshot []Record) {
	if m.cache == nil {
		return
	}
	m.cache.Set(CacheKey(storeName), snapshot, cache.SetOptions{
		Strategy: cache.StrategyMemory,
		TTL:      m.cacheTTL,
	})
}
