package remote

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MbazzaTZ/GOnSales/errors"
	"github.com/MbazzaTZ/GOnSales/store"
)

// fakeDocs is an in-memory DocumentStore for tests.
type fakeDocs struct {
	mu          sync.Mutex
	collections map[string]map[string]store.Record
	putErr      error
	listErr     error
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{collections: make(map[string]map[string]store.Record)}
}

func (f *fakeDocs) Put(_ context.Context, collection, id string, doc store.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	if f.collections[collection] == nil {
		f.collections[collection] = make(map[string]store.Record)
	}
	f.collections[collection][id] = doc.Clone()
	return nil
}

func (f *fakeDocs) Delete(_ context.Context, collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.collections[collection], id)
	return nil
}

func (f *fakeDocs) ListAll(_ context.Context, collection string) ([]store.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	docs := make([]store.Record, 0, len(f.collections[collection]))
	for _, doc := range f.collections[collection] {
		docs = append(docs, doc.Clone())
	}
	return docs, nil
}

func (f *fakeDocs) Close() error { return nil }

func (f *fakeDocs) get(collection, id string) (store.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.collections[collection][id]
	return doc, ok
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSyncerDeliversPuts(t *testing.T) {
	docs := newFakeDocs()
	sy := NewSyncer(docs, 1, 16)
	require.NoError(t, sy.Start(context.Background()))
	defer func() { _ = sy.Stop(time.Second) }()

	sy.RecordPut("dsr", store.Record{"id": "DSR001", "name": "John"})

	waitFor(t, func() bool {
		_, ok := docs.get("dsr", "DSR001")
		return ok
	})

	doc, _ := docs.get("dsr", "DSR001")
	assert.Equal(t, "John", doc["name"])
}

func TestSyncerDeliversDeletes(t *testing.T) {
	docs := newFakeDocs()
	require.NoError(t, docs.Put(context.Background(), "dsr", "DSR001", store.Record{"id": "DSR001"}))

	sy := NewSyncer(docs, 1, 16)
	require.NoError(t, sy.Start(context.Background()))
	defer func() { _ = sy.Stop(time.Second) }()

	sy.RecordDelete("dsr", "DSR001")

	waitFor(t, func() bool {
		_, ok := docs.get("dsr", "DSR001")
		return !ok
	})
}

func TestSyncerSnapshotSemantics(t *testing.T) {
	docs := newFakeDocs()
	sy := NewSyncer(docs, 1, 16)
	require.NoError(t, sy.Start(context.Background()))
	defer func() { _ = sy.Stop(time.Second) }()

	record := store.Record{"id": "DSR001", "name": "before"}
	sy.RecordPut("dsr", record.Clone())
	record["name"] = "after"

	waitFor(t, func() bool {
		_, ok := docs.get("dsr", "DSR001")
		return ok
	})

	doc, _ := docs.get("dsr", "DSR001")
	assert.Equal(t, "before", doc["name"], "queued push must carry the snapshot, not later edits")
}

func TestSyncerDrainsQueueOnStop(t *testing.T) {
	docs := newFakeDocs()
	sy := NewSyncer(docs, 1, 64)
	require.NoError(t, sy.Start(context.Background()))

	for i := 0; i < 20; i++ {
		sy.RecordPut("dsr", store.Record{"id": fmt.Sprintf("DSR%03d", i)})
	}
	require.NoError(t, sy.Stop(2*time.Second))

	all, err := docs.ListAll(context.Background(), "dsr")
	require.NoError(t, err)
	assert.Len(t, all, 20)
}

func TestSyncerSurvivesRemoteFailure(t *testing.T) {
	docs := newFakeDocs()
	docs.putErr = fmt.Errorf("remote down")

	sy := NewSyncer(docs, 1, 16)
	require.NoError(t, sy.Start(context.Background()))

	// Failed pushes are logged and dropped; the caller is never blocked.
	sy.RecordPut("dsr", store.Record{"id": "DSR001"})
	require.NoError(t, sy.Stop(time.Second))

	_, ok := docs.get("dsr", "DSR001")
	assert.False(t, ok)
}

func TestPullAllReplacesLocalState(t *testing.T) {
	registry := store.NewRegistry()
	schema := store.NewSchema(
		store.Field{Name: "name", Rule: store.FieldRule{Type: store.FieldString}},
	)
	s, err := registry.Register("dsr", schema)
	require.NoError(t, err)
	s.Replace([]store.Record{{"id": "local", "name": "stale"}})

	docs := newFakeDocs()
	ctx := context.Background()
	require.NoError(t, docs.Put(ctx, "dsr", "DSR001", store.Record{"id": "DSR001", "name": "fresh"}))

	var refreshed []string
	err = PullAll(ctx, docs, registry, func(name string) error {
		refreshed = append(refreshed, name)
		return nil
	})
	require.NoError(t, err)

	records := s.Snapshot()
	require.Len(t, records, 1)
	assert.Equal(t, "DSR001", records[0].ID())
	assert.Equal(t, []string{"dsr"}, refreshed)
}

func TestPullAllEmptyRemoteClearsLocal(t *testing.T) {
	registry := store.NewRegistry()
	schema := store.NewSchema(
		store.Field{Name: "name", Rule: store.FieldRule{Type: store.FieldString}},
	)
	s, err := registry.Register("dsr", schema)
	require.NoError(t, err)
	s.Replace([]store.Record{{"id": "local"}})

	err = PullAll(context.Background(), newFakeDocs(), registry, nil)
	require.NoError(t, err)

	assert.Empty(t, s.Snapshot())
}

func TestPullAllMissingCollectionReadsAsEmpty(t *testing.T) {
	registry := store.NewRegistry()
	schema := store.NewSchema(
		store.Field{Name: "name", Rule: store.FieldRule{Type: store.FieldString}},
	)
	s, err := registry.Register("dsr", schema)
	require.NoError(t, err)
	s.Replace([]store.Record{{"id": "local"}})

	docs := newFakeDocs()
	docs.listErr = errors.ErrCollectionNotFound

	var refreshed []string
	err = PullAll(context.Background(), docs, registry, func(name string) error {
		refreshed = append(refreshed, name)
		return nil
	})
	require.NoError(t, err)

	assert.Empty(t, s.Snapshot(), "a collection never pushed to is authoritative emptiness")
	assert.Equal(t, []string{"dsr"}, refreshed)
}

func TestNoopDocumentStore(t *testing.T) {
	var docs DocumentStore = Noop{}
	ctx := context.Background()

	assert.NoError(t, docs.Put(ctx, "dsr", "id", store.Record{}))
	assert.NoError(t, docs.Delete(ctx, "dsr", "id"))

	all, err := docs.ListAll(ctx, "dsr")
	assert.NoError(t, err)
	assert.Empty(t, all)
	assert.NoError(t, docs.Close())
}
