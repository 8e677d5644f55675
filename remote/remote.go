// Package remote integrates the data layer with the remote document store.
//
// For each registered store a collection of the same name is assumed to
// exist remotely. Successful local mutations are pushed through a worker
// pool as snapshots taken at issuance time; on pull, the remote response is
// authoritative and overwrites local optimistic state wholesale.
package remote

import (
	"context"

	"github.com/MbazzaTZ/GOnSales/store"
)

// DocumentStore is the remote collaborator contract. The production
// implementation is NATS JetStream KV; tests use a fake and offline mode
// uses Noop.
type DocumentStore interface {
	// Put creates or overwrites a document in a collection.
	Put(ctx context.Context, collection, id string, doc store.Record) error

	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// ListAll returns every document in a collection.
	ListAll(ctx context.Context, collection string) ([]store.Record, error)

	// Close releases the connection.
	Close() error
}

// Noop is a DocumentStore for offline mode: every operation succeeds and
// stores nothing, so the data layer runs unchanged without a remote.
type Noop struct{}

// Put discards the document.
func (Noop) Put(context.Context, string, string, store.Record) error { return nil }

// Delete does nothing.
func (Noop) Delete(context.Context, string, string) error { return nil }

// ListAll returns no documents.
func (Noop) ListAll(context.Context, string) ([]store.Record, error) { return nil, nil }

// Close does nothing.
func (Noop) Close() error { return nil }
