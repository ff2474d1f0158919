package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/designgridgo/internal/model"
	"github.com/vk/designgridgo/internal/table"
)

const testKey = model.CacheKey("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
const otherKey = model.CacheKey("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

func testEntry(key model.CacheKey) *Entry {
	// Cell values survive a JSON round trip unchanged only as float64,
	// string and bool, so the fixture sticks to those.
	sims := table.New("sim", "estimate")
	sims.AppendRow(float64(0), 0.42)
	diag := table.New("diagnosand", "estimate")
	diag.AppendRow("power", 0.8)
	return &Entry{
		Key:         key,
		Simulations: sims,
		Diagnosands: diag,
		Failures:    []model.PointFailure{{Index: 3, Message: "boom"}},
		CreatedAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

// roundTrip exercises the Store contract shared by every backend.
func roundTrip(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, ok := store.Lookup(ctx, testKey)
	assert.False(t, ok, "empty store must miss")

	entry := testEntry(testKey)
	require.NoError(t, store.Put(ctx, entry))

	got, ok := store.Lookup(ctx, testKey)
	require.True(t, ok)
	assert.Equal(t, entry.Key, got.Key)
	assert.Equal(t, entry.Simulations, got.Simulations)
	assert.Equal(t, entry.Diagnosands, got.Diagnosands)
	assert.Equal(t, entry.Failures, got.Failures)
	assert.True(t, entry.CreatedAt.Equal(got.CreatedAt))

	_, ok = store.Lookup(ctx, otherKey)
	assert.False(t, ok, "different key must miss")

	// Entries are immutable: a second Put under the same key is a no-op.
	changed := testEntry(testKey)
	changed.Diagnosands = table.New("diagnosand")
	require.NoError(t, store.Put(ctx, changed))
	got, ok = store.Lookup(ctx, testKey)
	require.True(t, ok)
	assert.Equal(t, entry.Diagnosands, got.Diagnosands, "existing entry must not be overwritten")
}

func TestFSStore_RoundTrip(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()
	roundTrip(t, store)
}

func TestFSStore_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "cache")
	store, err := NewFSStore(root)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put(context.Background(), testEntry(testKey)))
	info, err := os.Stat(filepath.Join(root, string(testKey)+".json"))
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestFSStore_CorruptFileReadsAsAbsent(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSStore(root)
	require.NoError(t, err)
	defer store.Close()

	path := filepath.Join(root, string(testKey)+".json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, ok := store.Lookup(context.Background(), testKey)
	assert.False(t, ok)
}

func TestFSStore_KeyMismatchReadsAsAbsent(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSStore(root)
	require.NoError(t, err)
	defer store.Close()

	// A valid entry stored under the wrong file name must not be served.
	entry := testEntry(otherKey)
	require.NoError(t, store.Put(context.Background(), entry))
	require.NoError(t, os.Rename(
		filepath.Join(root, string(otherKey)+".json"),
		filepath.Join(root, string(testKey)+".json")))

	_, ok := store.Lookup(context.Background(), testKey)
	assert.False(t, ok)
}

func TestFSStore_NoTempFilesLeftBehind(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSStore(root)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put(context.Background(), testEntry(testKey)))
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, string(testKey)+".json", entries[0].Name())
}

func TestMemStore_RoundTrip(t *testing.T) {
	store := NewMemStore()
	defer store.Close()
	roundTrip(t, store)
	assert.Equal(t, 1, store.Len())
}

func TestBadgerStore_RoundTrip(t *testing.T) {
	store, err := NewBadgerStore(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	defer store.Close()
	roundTrip(t, store)
}

func TestBadgerStore_OnDisk(t *testing.T) {
	dir := t.TempDir()
	store, err := NewBadgerStore(BadgerConfig{Path: dir})
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), testEntry(testKey)))
	require.NoError(t, store.Close())

	// The entry survives a reopen.
	store, err = NewBadgerStore(BadgerConfig{Path: dir})
	require.NoError(t, err)
	defer store.Close()
	got, ok := store.Lookup(context.Background(), testKey)
	require.True(t, ok)
	assert.Equal(t, testKey, got.Key)
}
