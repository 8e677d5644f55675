// Package storage provides pluggable key/value backends for the cache tiers
// and the persistence layer.
package storage

import "context"

// Store is the pluggable backend interface for key/value storage.
//
// Each consumer creates its own Store instance with its own configuration
// (directory, byte budget, etc.). Multiple Store instances can run
// concurrently, each backing a different cache tier or the snapshot layer.
//
// Keys are flat strings; two prefixes are reserved across the process:
//   - "cache_" for serialized cache entries owned by the kv-backed tiers
//   - "data-"  for whole-store record snapshots owned by the persist syncer
//
// Values are binary ([]byte), typically JSON. All implementations must be
// safe for concurrent use from multiple goroutines.
type Store interface {
	// Put stores binary data at the specified key, overwriting any existing
	// value. Implementations with a byte budget return ErrStorageQuota when
	// the write would exceed it.
	Put(ctx context.Context, key string, data []byte) error

	// Get retrieves binary data for the specified key.
	// Returns ErrKeyNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the value at the specified key.
	// Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all keys matching the specified prefix.
	// An empty prefix returns every key.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}
