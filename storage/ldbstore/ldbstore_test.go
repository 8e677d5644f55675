package ldbstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MbazzaTZ/GOnSales/errors"
)

func TestPutGetRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir(), 0)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "data-sales", []byte(`[{"id":"1"}]`)))

	got, err := s.Get(ctx, "data-sales")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"id":"1"}]`), got)
}

func TestGetMissingKey(t *testing.T) {
	s, err := Open(t.TempDir(), 0)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, errors.ErrKeyNotFound)
}

func TestPutEmptyKey(t *testing.T) {
	s, err := Open(t.TempDir(), 0)
	require.NoError(t, err)
	defer s.Close()

	err = s.Put(context.Background(), "", []byte("v"))
	assert.ErrorIs(t, err, errors.ErrInvalidKey)
}

func TestPutOverwrite(t *testing.T) {
	s, err := Open(t.TempDir(), 0)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "key", []byte("first")))
	require.NoError(t, s.Put(ctx, "key", []byte("second")))

	got, err := s.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s, err := Open(t.TempDir(), 0)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "key", []byte("v")))
	require.NoError(t, s.Delete(ctx, "key"))
	require.NoError(t, s.Delete(ctx, "key"))

	_, err = s.Get(ctx, "key")
	assert.ErrorIs(t, err, errors.ErrKeyNotFound)
}

func TestListByPrefix(t *testing.T) {
	s, err := Open(t.TempDir(), 0)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "cache_a", []byte("1")))
	require.NoError(t, s.Put(ctx, "cache_b", []byte("2")))
	require.NoError(t, s.Put(ctx, "data-sales", []byte("3")))

	cacheKeys, err := s.List(ctx, "cache_")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cache_a", "cache_b"}, cacheKeys)

	dataKeys, err := s.List(ctx, "data-")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"data-sales"}, dataKeys)
}

func TestByteBudget(t *testing.T) {
	// The budget counts key bytes plus value bytes.
	s, err := Open(t.TempDir(), 10)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "a", []byte("12345")))

	err = s.Put(ctx, "b", []byte("123456"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrStorageQuota)

	// Overwriting an existing value counts the freed bytes.
	require.NoError(t, s.Put(ctx, "a", []byte("123456789")))

	// Deleting frees budget again.
	require.NoError(t, s.Delete(ctx, "a"))
	require.NoError(t, s.Put(ctx, "b", []byte("123456")))
}

func TestReopenRecoversState(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir, 10)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "key", []byte("12345")))
	require.NoError(t, s.Close())

	reopened, err := Open(dir, 10)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("12345"), got)

	// The byte budget is rebuilt from the live contents, so the quota
	// still binds.
	err = reopened.Put(ctx, "other", []byte("123456"))
	assert.ErrorIs(t, err, errors.ErrStorageQuota)
}

func TestKeysWithSpecialCharacters(t *testing.T) {
	s, err := Open(t.TempDir(), 0)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	key := "data-sales/2026?region=north"
	require.NoError(t, s.Put(ctx, key, []byte("v")))

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	keys, err := s.List(ctx, "data-")
	require.NoError(t, err)
	assert.Contains(t, keys, key)
}

func TestCloseIsIdempotent(t *testing.T) {
	s, err := Open(t.TempDir(), 0)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
