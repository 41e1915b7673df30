package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestDB(t *testing.T) *EntryRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	db, err := NewDB(path, zap.NewNop())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return NewEntryRepository(db)
}

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, found, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Set(ctx, "k", "v1"))
	v, found, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v1", v)

	// second write to the same key replaces the value
	require.NoError(t, kv.Set(ctx, "k", "v2"))
	v, _, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)

	require.NoError(t, kv.Delete(ctx, "k"))
	_, found, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	// deleting a missing key is not an error
	require.NoError(t, kv.Delete(ctx, "k"))
}

func TestEntryRepository(t *testing.T) {
	exerciseKV(t, setupTestDB(t))
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemoryKV())
}

func TestNewDBRequiresDSN(t *testing.T) {
	_, err := NewDB("", zap.NewNop())
	assert.ErrorContains(t, err, "empty DATABASE_URL")
}

func TestEnsureDirForSQLite(t *testing.T) {
	assert.NoError(t, ensureDirForSQLite(":memory:"))
	assert.NoError(t, ensureDirForSQLite("file::memory:?cache=shared"))
	assert.NoError(t, ensureDirForSQLite("plain.db"))

	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, ensureDirForSQLite("file:"+filepath.Join(dir, "x.db")+"?_fk=1"))
	assert.DirExists(t, dir)
}
