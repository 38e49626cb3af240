package storage

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensurety/flightsurety-backend/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileStoreSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)

	_, err = store.LoadSnapshot(ctx)
	assert.ErrorIs(t, err, interfaces.ErrNoSnapshot)

	require.NoError(t, store.SaveSnapshot(ctx, []byte(`{"seq":1}`)))
	data, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"seq":1}`), data)

	// Saving again replaces the previous snapshot.
	require.NoError(t, store.SaveSnapshot(ctx, []byte(`{"seq":2}`)))
	data, err = store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"seq":2}`), data)
}

func TestFileStoreJournalAppendOrder(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)

	events := []string{`{"seq":1}`, `{"seq":2}`, `{"seq":3}`}
	for _, ev := range events {
		require.NoError(t, store.AppendEvent(ctx, []byte(ev)))
	}

	f, err := os.Open(filepath.Join(dir, "events.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, events, lines, "journal preserves append order, one record per line")
}

func TestFileStoreAvailability(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)

	assert.True(t, store.Available(ctx))
	assert.Equal(t, "file-"+filepath.Base(dir), store.Name())
	assert.Equal(t, "file://"+dir, store.LocationURI())

	require.NoError(t, os.RemoveAll(dir))
	assert.False(t, store.Available(ctx))
}
