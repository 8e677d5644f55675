package remote

import (
	"context"
	"log/slog"
	"time"

	"github.com/MbazzaTZ/GOnSales/errors"
	"github.com/MbazzaTZ/GOnSales/metric"
	"github.com/MbazzaTZ/GOnSales/pkg/worker"
	"github.com/MbazzaTZ/GOnSales/store"
)

// Op is the kind of remote mutation an Event carries.
type Op string

const (
	// OpPut creates or overwrites a remote document.
	OpPut Op = "put"
	// OpDelete removes a remote document.
	OpDelete Op = "delete"
)

// Event is one queued remote mutation. Doc is a snapshot taken when the
// local mutation succeeded, so later local edits never leak into an
// already-queued push.
type Event struct {
	Op         Op
	Collection string
	ID         string
	Doc        store.Record
}

// Syncer pushes local mutations to a DocumentStore through a worker pool.
// It implements store.RemoteSink. Remote failures are logged and never
// surface to the caller that performed the local mutation.
type Syncer struct {
	docs    DocumentStore
	pool    *worker.Pool[Event]
	logger  *slog.Logger
	metrics *metric.Registry
	timeout time.Duration
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithLogger sets the logger for sync activity.
func WithLogger(logger *slog.Logger) SyncerOption {
	return func(s *Syncer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPushTimeout bounds each individual remote push.
func WithPushTimeout(d time.Duration) SyncerOption {
	return func(s *Syncer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMetrics registers the sync pool's queue metrics.
func WithMetrics(registry *metric.Registry) SyncerOption {
	return func(s *Syncer) {
		s.metrics = registry
	}
}

// NewSyncer builds a Syncer around a DocumentStore. Call Start before
// attaching it to a store.Manager and Stop when shutting down.
func NewSyncer(docs DocumentStore, workers, queueSize int, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		docs:    docs,
		logger:  slog.Default(),
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	poolOpts := []worker.Option[Event]{}
	if s.metrics != nil {
		poolOpts = append(poolOpts, worker.WithMetricsRegistry[Event](s.metrics, "remote_sync"))
	}
	s.pool = worker.NewPool(workers, queueSize, s.process, poolOpts...)
	return s
}

// Start launches the sync workers.
func (s *Syncer) Start(ctx context.Context) error {
	return s.pool.Start(ctx)
}

// Stop drains queued events and stops the workers.
func (s *Syncer) Stop(timeout time.Duration) error {
	return s.pool.Stop(timeout)
}

// RecordPut queues a document push. The record is already a snapshot owned
// by this call, per the store.RemoteSink contract.
func (s *Syncer) RecordPut(collection string, record store.Record) {
	s.submit(Event{Op: OpPut, Collection: collection, ID: record.ID(), Doc: record})
}

// RecordDelete queues a document removal.
func (s *Syncer) RecordDelete(collection, id string) {
	s.submit(Event{Op: OpDelete, Collection: collection, ID: id})
}

func (s *Syncer) submit(ev Event) {
	if err := s.pool.Submit(ev); err != nil {
		s.logger.Warn("dropping remote sync event",
			"op", string(ev.Op),
			"collection", ev.Collection,
			"id", ev.ID,
			"error", err)
	}
}

func (s *Syncer) process(ctx context.Context, ev Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var err error
	switch ev.Op {
	case OpPut:
		err = s.docs.Put(ctx, ev.Collection, ev.ID, ev.Doc)
	case OpDelete:
		err = s.docs.Delete(ctx, ev.Collection, ev.ID)
	default:
		err = errors.WrapInvalid(errors.New("unknown op "+string(ev.Op)), "Syncer", "process", "dispatch event")
	}
	if err != nil {
		s.logger.Warn("remote sync failed",
			"op", string(ev.Op),
			"collection", ev.Collection,
			"id", ev.ID,
			"error", err)
		return err
	}
	return nil
}

// PullAll replaces the contents of every registered store with the remote
// collection of the same name. The remote is authoritative: empty remote
// collections clear their local stores. Stores whose pull fails keep their
// local contents and are reported in the returned error.
func PullAll(ctx context.Context, docs DocumentStore, registry *store.Registry, refresh func(storeName string) error) error {
	var errs []error
	for _, name := range registry.Names() {
		st, err := registry.Get(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		records, err := docs.ListAll(ctx, name)
		if err != nil {
			// A collection nothing was ever pushed to is an empty
			// collection, and the remote says this store holds nothing.
			if !errors.Is(err, errors.ErrCollectionNotFound) {
				errs = append(errs, errors.WrapTransient(err, "Syncer", "PullAll", "pull collection "+name))
				continue
			}
			records = nil
		}

		st.Replace(records)
		if refresh != nil {
			if err := refresh(name); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
