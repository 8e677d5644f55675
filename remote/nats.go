package remote

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/MbazzaTZ/GOnSales/errors"
	"github.com/MbazzaTZ/GOnSales/store"
)

const (
	// bucketPrefix namespaces the KV buckets this module owns.
	bucketPrefix = "gonsales_"

	dialTimeout = 5 * time.Second
)

// NATSStore is a DocumentStore backed by NATS JetStream KV, one bucket per
// collection. Buckets are created lazily on first use and named
// "gonsales_<collection>".
type NATSStore struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger

	mu      sync.Mutex
	buckets map[string]jetstream.KeyValue
}

// DialNATS connects to the given NATS URL and prepares a JetStream context.
func DialNATS(url string, logger *slog.Logger) (*NATSStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	nc, err := nats.Connect(url,
		nats.Timeout(dialTimeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, errors.WrapTransient(err, "NATSStore", "DialNATS", "connect to "+url)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, errors.WrapFatal(err, "NATSStore", "DialNATS", "create jetstream context")
	}

	return &NATSStore{
		nc:      nc,
		js:      js,
		logger:  logger,
		buckets: make(map[string]jetstream.KeyValue),
	}, nil
}

// bucket returns the KV bucket for a collection, creating it if needed.
func (s *NATSStore) bucket(ctx context.Context, collection string) (jetstream.KeyValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kv, ok := s.buckets[collection]; ok {
		return kv, nil
	}

	kv, err := s.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucketPrefix + collection,
		Description: "GOnSales collection " + collection,
		History:     1,
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "NATSStore", "bucket", "create bucket for "+collection)
	}

	s.buckets[collection] = kv
	return kv, nil
}

// readBucket returns the KV bucket for a collection without creating it.
// A collection nothing has ever pushed to reports ErrCollectionNotFound.
func (s *NATSStore) readBucket(ctx context.Context, collection string) (jetstream.KeyValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kv, ok := s.buckets[collection]; ok {
		return kv, nil
	}

	kv, err := s.js.KeyValue(ctx, bucketPrefix+collection)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrBucketNotFound) {
			return nil, errors.WrapInvalid(errors.ErrCollectionNotFound, "NATSStore", "readBucket", "look up bucket for "+collection)
		}
		return nil, errors.WrapTransient(err, "NATSStore", "readBucket", "look up bucket for "+collection)
	}

	s.buckets[collection] = kv
	return kv, nil
}

// Put creates or overwrites a document, last writer wins.
func (s *NATSStore) Put(ctx context.Context, collection, id string, doc store.Record) error {
	kv, err := s.bucket(ctx, collection)
	if err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return errors.WrapInvalid(err, "NATSStore", "Put", "encode document "+id)
	}

	if _, err := kv.Put(ctx, id, data); err != nil {
		return errors.WrapTransient(err, "NATSStore", "Put", "put "+collection+"/"+id)
	}
	return nil
}

// Delete removes a document. A missing document or collection is not an
// error.
func (s *NATSStore) Delete(ctx context.Context, collection, id string) error {
	kv, err := s.readBucket(ctx, collection)
	if err != nil {
		if errors.Is(err, errors.ErrCollectionNotFound) {
			return nil
		}
		return err
	}

	if err := kv.Delete(ctx, id); err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return nil
		}
		return errors.WrapTransient(err, "NATSStore", "Delete", "delete "+collection+"/"+id)
	}
	return nil
}

// ListAll returns every document in a collection. A collection whose bucket
// was never created reports ErrCollectionNotFound. Documents that fail to
// decode are skipped with a warning so one corrupt entry cannot block a sync.
func (s *NATSStore) ListAll(ctx context.Context, collection string) ([]store.Record, error) {
	kv, err := s.readBucket(ctx, collection)
	if err != nil {
		return nil, err
	}

	keys, err := kv.Keys(ctx)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, errors.WrapTransient(err, "NATSStore", "ListAll", "list keys in "+collection)
	}

	records := make([]store.Record, 0, len(keys))
	for _, key := range keys {
		entry, err := kv.Get(ctx, key)
		if err != nil {
			if stderrors.Is(err, jetstream.ErrKeyNotFound) {
				continue
			}
			return nil, errors.WrapTransient(err, "NATSStore", "ListAll", "get "+collection+"/"+key)
		}

		var rec store.Record
		if err := json.Unmarshal(entry.Value(), &rec); err != nil {
			s.logger.Warn("skipping undecodable remote document",
				"collection", collection,
				"id", key,
				"error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Close drains the NATS connection.
func (s *NATSStore) Close() error {
	if s.nc == nil {
		return nil
	}
	if err := s.nc.Drain(); err != nil {
		s.nc.Close()
		return errors.WrapTransient(err, "NATSStore", "Close", "drain connection")
	}
	return nil
}
