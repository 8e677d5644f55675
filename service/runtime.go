// Package service wires the whole application together: storage tiers, cache
// manager, store registry, persistence, remote sync, and metrics. cmd/gonsales
// is a thin shell around a Runtime.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MbazzaTZ/GOnSales/config"
	"github.com/MbazzaTZ/GOnSales/domain"
	"github.com/MbazzaTZ/GOnSales/errors"
	"github.com/MbazzaTZ/GOnSales/metric"
	"github.com/MbazzaTZ/GOnSales/persist"
	"github.com/MbazzaTZ/GOnSales/pkg/cache"
	"github.com/MbazzaTZ/GOnSales/remote"
	"github.com/MbazzaTZ/GOnSales/storage/ldbstore"
	"github.com/MbazzaTZ/GOnSales/storage/memstore"
	"github.com/MbazzaTZ/GOnSales/store"
)

const stopTimeout = 15 * time.Second

// Runtime owns every long-lived component of the application.
type Runtime struct {
	cfg    config.Config
	logger *slog.Logger

	metrics       *metric.Registry
	metricsServer *metric.Server

	cacheManager *cache.Manager
	registry     *store.Registry
	stores       *store.Manager
	persister    *persist.Syncer

	docs       remote.DocumentStore
	remoteSync *remote.Syncer

	mu      sync.Mutex
	started bool
	stopped bool
}

// New builds a fully wired Runtime from the configuration. The durable cache
// tier and the snapshot store share one on-disk KV under cfg.DataDir; the
// reserved key prefixes keep their entries apart. Nothing is running yet
// until Start.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	metrics := metric.NewRegistry()

	durableKV, err := ldbstore.Open(cfg.DataDir, cfg.MaxStorageBytes)
	if err != nil {
		return nil, errors.Wrap(err, "Runtime", "New", "open durable store")
	}

	cacheManager, err := cache.NewManager(ctx, cfg.Cache, memstore.New(), durableKV,
		cache.WithLogger(logger),
		cache.WithMetrics(metrics),
	)
	if err != nil {
		return nil, errors.Wrap(err, "Runtime", "New", "build cache manager")
	}

	registry := store.NewRegistry()
	if err := domain.RegisterAll(registry, cfg.GrowthCeiling); err != nil {
		return nil, errors.Wrap(err, "Runtime", "New", "register stores")
	}

	var docs remote.DocumentStore = remote.Noop{}
	if cfg.Remote.URL != "" {
		docs, err = remote.DialNATS(cfg.Remote.URL, logger)
		if err != nil {
			return nil, errors.Wrap(err, "Runtime", "New", "dial remote")
		}
	}

	remoteSync := remote.NewSyncer(docs, cfg.Remote.SyncWorkers, cfg.Remote.SyncQueue,
		remote.WithLogger(logger),
		remote.WithMetrics(metrics),
		remote.WithPushTimeout(cfg.Remote.PushTimeout),
	)

	stores := store.NewManager(registry, cacheManager,
		store.WithRemote(remoteSync),
		store.WithCacheTTL(cfg.StoreCacheTTL),
		store.WithLogger(logger),
	)

	persister := persist.NewSyncer(registry, durableKV, cfg.Persist.Interval, logger)

	var metricsServer *metric.Server
	if cfg.Metrics.Addr != "" {
		metricsServer = metric.NewServer(cfg.Metrics.Addr, cfg.Metrics.Path, metrics)
	}

	return &Runtime{
		cfg:           cfg,
		logger:        logger,
		metrics:       metrics,
		metricsServer: metricsServer,
		cacheManager:  cacheManager,
		registry:      registry,
		stores:        stores,
		persister:     persister,
		docs:          docs,
		remoteSync:    remoteSync,
	}, nil
}

// Stores exposes the CRUD coordinator.
func (r *Runtime) Stores() *store.Manager { return r.stores }

// Cache exposes the cache manager.
func (r *Runtime) Cache() *cache.Manager { return r.cacheManager }

// Registry exposes the store registry.
func (r *Runtime) Registry() *store.Registry { return r.registry }

// Start loads persisted snapshots, warms the cache, and launches the
// background loops. Calling Start twice is an error.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Runtime", "Start", "start runtime")
	}

	r.persister.LoadAll(ctx)
	for _, name := range r.registry.Names() {
		if err := r.stores.RefreshCache(name); err != nil {
			r.logger.Warn("cache warmup failed", "store", name, "error", err)
		}
	}

	if err := r.remoteSync.Start(ctx); err != nil {
		return errors.Wrap(err, "Runtime", "Start", "start remote sync")
	}
	if err := r.persister.Start(ctx); err != nil {
		return errors.Wrap(err, "Runtime", "Start", "start persistence")
	}
	if r.metricsServer != nil {
		if err := r.metricsServer.Start(); err != nil {
			return errors.Wrap(err, "Runtime", "Start", "start metrics server")
		}
	}

	r.started = true
	r.logger.Info("runtime started",
		"stores", r.registry.Names(),
		"data_dir", r.cfg.DataDir,
		"remote", r.cfg.Remote.URL != "")
	return nil
}

// PullRemote replaces every store's contents with the remote collections and
// refreshes the caches. The remote wins over local optimistic state.
func (r *Runtime) PullRemote(ctx context.Context) error {
	return remote.PullAll(ctx, r.docs, r.registry, r.stores.RefreshCache)
}

// Stop flushes a final snapshot and shuts everything down. It is safe to
// call more than once; later calls are no-ops.
func (r *Runtime) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return nil
	}
	r.stopped = true

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error {
		// Close includes the final flush.
		return r.persister.Close()
	})
	g.Go(func() error {
		return r.remoteSync.Stop(stopTimeout)
	})
	if r.metricsServer != nil {
		g.Go(func() error {
			return r.metricsServer.Stop(ctx)
		})
	}
	joinErr := g.Wait()

	// The cache manager closes its tier backends, including the shared
	// on-disk KV, so it goes down after the persister has flushed.
	if err := r.cacheManager.Close(); err != nil {
		joinErr = errors.Join(joinErr, err)
	}
	if err := r.docs.Close(); err != nil {
		joinErr = errors.Join(joinErr, err)
	}

	if joinErr != nil {
		return errors.Wrap(joinErr, "Runtime", "Stop", "shutdown")
	}
	r.logger.Info("runtime stopped")
	return nil
}
