// Package ldbstore provides a durable storage.Store backed by an embedded
// LevelDB database.
//
// LevelDB supplies the on-disk format, crash-safe writes, and ordered prefix
// iteration; this package adds the byte budget. An optional budget bounds the
// total logical size of stored keys and values; writes that would exceed it
// fail with ErrStorageQuota, which callers in the cache path treat as a
// degraded cache miss rather than data loss.
package ldbstore

import (
	"context"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/MbazzaTZ/GOnSales/errors"
)

// Store is a LevelDB-backed storage.Store implementation.
type Store struct {
	mu       sync.Mutex
	db       *leveldb.DB
	maxBytes int64 // 0 means unbounded
	used     int64 // tracked logical size of stored keys and values
	closed   bool
}

// Open opens (or creates) the database under dir. maxBytes of 0 disables the
// byte budget. The budget counter is rebuilt from the live contents so a
// restart cannot forget how full the store already is.
func Open(dir string, maxBytes int64) (*Store, error) {
	if dir == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "ldbstore", "Open", "directory cannot be empty")
	}

	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, errors.WrapTransient(err, "ldbstore", "Open", "open database at "+dir)
	}

	s := &Store{db: db, maxBytes: maxBytes}
	if err := s.rescan(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// rescan rebuilds the used-bytes counter from the database contents.
func (s *Store) rescan() error {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	var used int64
	for iter.Next() {
		used += int64(len(iter.Key()) + len(iter.Value()))
	}
	if err := iter.Error(); err != nil {
		return errors.WrapTransient(err, "ldbstore", "rescan", "iterate database")
	}

	s.mu.Lock()
	s.used = used
	s.mu.Unlock()
	return nil
}

// existingSize returns the stored size of key, or 0 when absent.
func (s *Store) existingSize(key []byte) (int64, error) {
	val, err := s.db.Get(key, nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	return int64(len(key) + len(val)), nil
}

// Put stores data under key, replacing any existing value.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidKey, "ldbstore", "Put", "key cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return errors.WrapTransient(err, "ldbstore", "Put", "context check")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := []byte(key)
	existing, err := s.existingSize(k)
	if err != nil {
		return errors.WrapTransient(err, "ldbstore", "Put", "size existing value")
	}

	incoming := int64(len(k) + len(data))
	if s.maxBytes > 0 && s.used-existing+incoming > s.maxBytes {
		return errors.WrapTransient(errors.ErrStorageQuota, "ldbstore", "Put", "byte budget check")
	}

	if err := s.db.Put(k, data, nil); err != nil {
		return errors.WrapTransient(err, "ldbstore", "Put", "write value")
	}

	s.used += incoming - existing
	return nil
}

// Get retrieves the data stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapTransient(err, "ldbstore", "Get", "context check")
	}

	data, err := s.db.Get([]byte(key), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, errors.ErrKeyNotFound
		}
		return nil, errors.WrapTransient(err, "ldbstore", "Get", "read value")
	}
	return data, nil
}

// Delete removes the value stored under key. Missing keys are a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return errors.WrapTransient(err, "ldbstore", "Delete", "context check")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := []byte(key)
	existing, err := s.existingSize(k)
	if err != nil {
		return errors.WrapTransient(err, "ldbstore", "Delete", "size existing value")
	}
	if existing == 0 {
		return nil
	}

	if err := s.db.Delete(k, nil); err != nil {
		return errors.WrapTransient(err, "ldbstore", "Delete", "delete value")
	}
	s.used -= existing
	return nil
}

// List returns all keys with the given prefix, in key order.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapTransient(err, "ldbstore", "List", "context check")
	}

	iter := s.db.NewIterator(ldb_util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	if err := iter.Error(); err != nil {
		return nil, errors.WrapTransient(err, "ldbstore", "List", "iterate prefix")
	}
	return keys, nil
}

// Close closes the database. Values remain on disk for the next open.
// Closing twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.db.Close(); err != nil {
		return errors.WrapTransient(err, "ldbstore", "Close", "close database")
	}
	return nil
}
