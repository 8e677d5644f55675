package store

import (
	"fmt"
	"sync"

	"github.com/MbazzaTZ/GOnSales/errors"
)

// Store is a named collection of schema-validated records. Exactly one Store
// per name exists inside a Registry for the process lifetime; the schema and
// relationships are fixed at registration, only the record list mutates.
type Store struct {
	name          string
	schema        Schema
	relationships []Relationship
	rules         []BusinessRule

	mu      sync.RWMutex
	records []Record
	byID    map[string]int // id → index into records
}

// Name returns the store name.
func (s *Store) Name() string {
	return s.name
}

// Schema returns the store's immutable schema.
func (s *Store) Schema() Schema {
	return s.schema
}

// Relationships returns the declared cross-store references.
func (s *Store) Relationships() []Relationship {
	out := make([]Relationship, len(s.relationships))
	copy(out, s.relationships)
	return out
}

// Validate runs the validation engine against a record.
func (s *Store) Validate(record Record) Result {
	return validateRecord(s.schema, s.rules, record)
}

// Len returns the current record count.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Snapshot returns a copy of the record list in insertion order.
func (s *Store) Snapshot() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecords(s.records)
}

// Replace swaps the entire record list, last-write-wins at store
// granularity. The persist load path and remote pull use this; records are
// not merged per id.
func (s *Store) Replace(records []Record) {
	replacement := cloneRecords(records)
	byID := make(map[string]int, len(replacement))
	for i, r := range replacement {
		byID[r.ID()] = i
	}

	s.mu.Lock()
	s.records = replacement
	s.byID = byID
	s.mu.Unlock()
}

// StoreOption configures a store at registration time.
type StoreOption func(*Store)

// WithRelationships declares cross-store references.
func WithRelationships(rels ...Relationship) StoreOption {
	return func(s *Store) {
		s.relationships = append(s.relationships, rels...)
	}
}

// WithBusinessRules registers cross-field invariants that run after
// field-level validation, in registration order.
func WithBusinessRules(rules ...BusinessRule) StoreOption {
	return func(s *Store) {
		s.rules = append(s.rules, rules...)
	}
}

// Registry owns the named stores. It is the explicit context object the
// rest of the system receives by reference; there are no package-level
// store singletons.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]*Store
	order  []string // registration order, for deterministic iteration
}

// NewRegistry creates an empty store registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]*Store)}
}

// Register creates a store under a unique name. Registering a duplicate
// name fails: stores are process-wide singletons per name.
func (r *Registry) Register(name string, schema Schema, opts ...StoreOption) (*Store, error) {
	if name == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidKey, "Registry", "Register", "store name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stores[name]; exists {
		return nil, errors.WrapInvalid(errors.ErrStoreExists, "Registry", "Register",
			fmt.Sprintf("store %q", name))
	}

	s := &Store{
		name:   name,
		schema: schema,
		byID:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	r.stores[name] = s
	r.order = append(r.order, name)
	return s, nil
}

// Get returns the named store.
func (r *Registry) Get(name string) (*Store, error) {
	r.mu.RLock()
	s, exists := r.stores[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.WrapInvalid(errors.ErrStoreNotFound, "Registry", "Get",
			fmt.Sprintf("store %q", name))
	}
	return s, nil
}

// Names returns the registered store names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
