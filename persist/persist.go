// Package persist flushes every store's record list to durable storage and
// loads it back at startup.
//
// Snapshots are whole-store and last-write-wins: LoadAll replaces a store's
// records wholesale when a snapshot exists, never merging per record.
// Corrupt or missing snapshots mean the store starts empty, never a fatal
// error, because the remote document store and fresh user input can rebuild
// state.
package persist

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/MbazzaTZ/GOnSales/errors"
	"github.com/MbazzaTZ/GOnSales/storage"
	"github.com/MbazzaTZ/GOnSales/store"
)

// snapshotKeyPrefix namespaces store snapshots in durable storage,
// disjoint from the "cache_" prefix owned by the kv cache tiers.
const snapshotKeyPrefix = "data-"

// SnapshotKey returns the durable-storage key for a store's snapshot.
func SnapshotKey(storeName string) string {
	return snapshotKeyPrefix + storeName
}

// Syncer periodically flushes store records to durable storage.
type Syncer struct {
	registry *store.Registry
	kv       storage.Store
	interval time.Duration
	logger   *slog.Logger

	// Background loop coordination
	startMu  sync.Mutex
	started  bool
	shutdown chan struct{}
	done     chan struct{}
}

// NewSyncer creates a persistence syncer flushing on the given interval.
func NewSyncer(registry *store.Registry, kv storage.Store, interval time.Duration, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		registry: registry,
		kv:       kv,
		interval: interval,
		logger:   logger,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// SaveAll serializes every store's record list independently. One store's
// failure is logged and does not block saving the others; the joined error
// is returned for observability.
func (sy *Syncer) SaveAll(ctx context.Context) error {
	var errs []error
	for _, name := range sy.registry.Names() {
		if err := sy.saveStore(ctx, name); err != nil {
			sy.logger.Warn("store snapshot failed", "store", name, "error", err)
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// saveStore flushes one store's records.
func (sy *Syncer) saveStore(ctx context.Context, name string) error {
	s, err := sy.registry.Get(name)
	if err != nil {
		return err
	}

	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		return errors.WrapTransient(errors.ErrSerialization, "Syncer", "saveStore", "encode records")
	}

	if err := sy.kv.Put(ctx, SnapshotKey(name), data); err != nil {
		return errors.WrapTransient(err, "Syncer", "saveStore", "put snapshot")
	}
	return nil
}

// LoadAll restores every store from its durable snapshot, replacing records
// wholesale. Runs once at startup before any consumer touches the stores.
func (sy *Syncer) LoadAll(ctx context.Context) {
	for _, name := range sy.registry.Names() {
		sy.loadStore(ctx, name)
	}
}

// loadStore restores one store; missing or corrupt data leaves it empty.
func (sy *Syncer) loadStore(ctx context.Context, name string) {
	s, err := sy.registry.Get(name)
	if err != nil {
		return
	}

	data, err := sy.kv.Get(ctx, SnapshotKey(name))
	if err != nil {
		if !errors.Is(err, errors.ErrKeyNotFound) {
			sy.logger.Warn("store snapshot unreadable, starting empty", "store", name, "error", err)
		}
		return
	}

	var records []store.Record
	if err := json.Unmarshal(data, &records); err != nil {
		sy.logger.Warn("store snapshot corrupt, starting empty", "store", name, "error", err)
		return
	}

	s.Replace(records)
	sy.logger.Info("store restored", "store", name, "records", len(records))
}

// Start launches the periodic flush loop. Starting twice is an error.
func (sy *Syncer) Start(ctx context.Context) error {
	sy.startMu.Lock()
	defer sy.startMu.Unlock()

	if sy.started {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Syncer", "Start", "autosave loop")
	}
	sy.started = true

	go sy.run(ctx)
	return nil
}

// run is the autosave loop. A save in flight when shutdown begins completes
// before the loop exits, and a final flush runs on the way out so teardown
// never loses the newest records.
func (sy *Syncer) run(ctx context.Context) {
	defer close(sy.done)

	ticker := time.NewTicker(sy.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sy.finalFlush()
			return
		case <-sy.shutdown:
			sy.finalFlush()
			return
		case <-ticker.C:
			if err := sy.SaveAll(ctx); err != nil {
				sy.logger.Warn("autosave incomplete", "error", err)
			}
		}
	}
}

// finalFlush saves with a fresh context: the loop context is typically
// already cancelled during teardown, and the exit-path flush must still
// complete.
func (sy *Syncer) finalFlush() {
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sy.SaveAll(flushCtx); err != nil {
		sy.logger.Warn("final flush incomplete", "error", err)
	}
}

// Close stops the autosave loop and waits for its final flush. Closing a
// syncer that was never started, or closing twice, is a no-op.
func (sy *Syncer) Close() error {
	sy.startMu.Lock()
	started := sy.started
	sy.startMu.Unlock()

	select {
	case <-sy.shutdown:
		// Already shutting down
	default:
		close(sy.shutdown)
	}

	if !started {
		return nil
	}

	select {
	case <-sy.done:
		return nil
	case <-time.After(15 * time.Second):
		return errors.WrapTransient(errors.ErrShuttingDown, "Syncer", "Close", "await final flush")
	}
}
