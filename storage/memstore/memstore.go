// Package memstore provides an in-process, session-scoped storage.Store.
// Contents live for the lifetime of the process and are never persisted.
package memstore

import (
	"context"
	"strings"
	"sync"

	"github.com/MbazzaTZ/GOnSales/errors"
)

// Store is an in-memory storage.Store implementation.
type Store struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{items: make(map[string][]byte)}
}

// Put stores a copy of data under key.
func (s *Store) Put(_ context.Context, key string, data []byte) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidKey, "memstore", "Put", "key cannot be empty")
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.items[key] = buf
	s.mu.Unlock()
	return nil
}

// Get retrieves a copy of the data stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	data, exists := s.items[key]
	s.mu.RUnlock()

	if !exists {
		return nil, errors.ErrKeyNotFound
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// Delete removes the value stored under key. Missing keys are a no-op.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// List returns all keys with the given prefix.
func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.items))
	for key := range s.items {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Close releases the backing map.
func (s *Store) Close() error {
	s.mu.Lock()
	s.items = make(map[string][]byte)
	s.mu.Unlock()
	return nil
}
