// ABOUTME: Tests for the SQLite-backed KV store
// ABOUTME: Round trips, overwrites, missing keys, and reopen durability

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestKV(t *testing.T) *SQLiteKV {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	kv, err := NewSQLiteKV(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return kv
}

func TestSQLiteKV_PutGet(t *testing.T) {
	kv := createTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "k", []byte("v")))

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestSQLiteKV_GetMissingKey(t *testing.T) {
	kv := createTestKV(t)

	_, err := kv.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteKV_Overwrite(t *testing.T) {
	kv := createTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "k", []byte("first")))
	require.NoError(t, kv.Put(ctx, "k", []byte("second")))

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestSQLiteKV_Delete(t *testing.T) {
	kv := createTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "k", []byte("v")))
	require.NoError(t, kv.Delete(ctx, "k"))

	_, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again is not an error.
	assert.NoError(t, kv.Delete(ctx, "k"))
}

func TestSQLiteKV_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	kv, err := NewSQLiteKV(dbPath)
	require.NoError(t, err)
	require.NoError(t, kv.Put(ctx, "k", []byte("durable")))
	require.NoError(t, kv.Close())

	reopened, err := NewSQLiteKV(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("durable"), got)
}
