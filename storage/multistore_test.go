package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensurety/flightsurety-backend/interfaces"
)

// flakyStore simulates a backend that can be taken offline or made to fail
// writes.
type flakyStore struct {
	interfaces.LedgerStore
	offline   bool
	failSaves bool
}

func (s *flakyStore) Available(ctx context.Context) bool {
	return !s.offline && s.LedgerStore.Available(ctx)
}

func (s *flakyStore) SaveSnapshot(ctx context.Context, data []byte) error {
	if s.failSaves {
		return errors.New("write rejected")
	}
	return s.LedgerStore.SaveSnapshot(ctx, data)
}

func newFlakyPair(t *testing.T) (*flakyStore, *flakyStore, *MultiStore) {
	t.Helper()
	a, err := NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	b, err := NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)

	fa := &flakyStore{LedgerStore: a}
	fb := &flakyStore{LedgerStore: b}
	return fa, fb, NewMultiStore([]interfaces.LedgerStore{fa, fb}, testLogger())
}

func TestMultiStoreWritesToAllBackends(t *testing.T) {
	ctx := context.Background()
	a, b, multi := newFlakyPair(t)

	require.NoError(t, multi.SaveSnapshot(ctx, []byte("state")))

	for _, store := range []*flakyStore{a, b} {
		data, err := store.LoadSnapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte("state"), data)
	}
}

func TestMultiStoreToleratesPartialFailure(t *testing.T) {
	ctx := context.Background()
	a, b, multi := newFlakyPair(t)

	a.offline = true
	require.NoError(t, multi.SaveSnapshot(ctx, []byte("state")))
	require.NoError(t, multi.AppendEvent(ctx, []byte(`{"seq":1}`)))

	// Loading falls through to the backend that has the snapshot.
	a.offline = false
	_, err := a.LoadSnapshot(ctx)
	assert.ErrorIs(t, err, interfaces.ErrNoSnapshot)

	data, err := multi.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("state"), data)
	_ = b
}

func TestMultiStoreFailsWhenNoBackendAccepts(t *testing.T) {
	ctx := context.Background()
	a, b, multi := newFlakyPair(t)

	a.failSaves = true
	b.offline = true
	assert.Error(t, multi.SaveSnapshot(ctx, []byte("state")))

	a.offline = true
	assert.False(t, multi.Available(ctx))
	_, err := multi.LoadSnapshot(ctx)
	assert.ErrorIs(t, err, interfaces.ErrNoSnapshot)
}

func TestMultiStoreIdentity(t *testing.T) {
	a, err := NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	b, err := NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)

	multi := NewMultiStore([]interfaces.LedgerStore{a, b}, testLogger())
	assert.Contains(t, multi.Name(), a.Name())
	assert.Contains(t, multi.Name(), b.Name())
	assert.Contains(t, multi.LocationURI(), a.LocationURI())
	assert.Contains(t, multi.LocationURI(), b.LocationURI())
}
