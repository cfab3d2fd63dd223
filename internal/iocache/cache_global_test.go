package iocache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/huangsam/kmetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetManager(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &CacheStoreManager{}
	t.Cleanup(CloseCaching)
}

func TestInitCaching(t *testing.T) {
	t.Run("sqlite stores", func(t *testing.T) {
		resetManager(t)
		outputDir := t.TempDir()
		historyPath := filepath.Join(t.TempDir(), "history.db")

		require.NoError(t, InitCaching(StoreOptions{
			OutputDir:      outputDir,
			CacheBackend:   schema.SQLiteBackend,
			HistoryBackend: schema.SQLiteBackend,
			HistoryConnStr: historyPath,
		}))
		assert.NotNil(t, Manager.GetBundleStore())
		assert.NotNil(t, Manager.GetHistoryStore())
		assert.FileExists(t, GetCacheDBFilePath(outputDir))
		assert.FileExists(t, historyPath)
	})

	t.Run("idempotent", func(t *testing.T) {
		resetManager(t)
		opts := StoreOptions{CacheBackend: schema.NoneBackend, HistoryBackend: schema.NoneBackend}
		assert.NoError(t, InitCaching(opts))
		assert.NoError(t, InitCaching(opts))
		CloseCaching()
		CloseCaching()
	})

	t.Run("empty backends leave stores unset", func(t *testing.T) {
		resetManager(t)
		require.NoError(t, InitCaching(StoreOptions{}))
		assert.Nil(t, Manager.GetBundleStore())
		assert.Nil(t, Manager.GetHistoryStore())
	})

	t.Run("history failure closes the cache", func(t *testing.T) {
		resetManager(t)
		err := InitCaching(StoreOptions{
			CacheBackend:   schema.NoneBackend,
			HistoryBackend: schema.DatabaseBackend("oracle"),
		})
		assert.ErrorContains(t, err, "failed to initialize history store")
		assert.Nil(t, Manager.GetBundleStore())
	})
}

func TestClearCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linux-features.db")
	store, err := NewCacheStore(bundleTable, schema.SQLiteBackend, path, "")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearCache(schema.SQLiteBackend, path, ""))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Removing twice is fine
	assert.NoError(t, ClearCache(schema.SQLiteBackend, path, ""))
	assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
	assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	assert.Error(t, ClearHistory(schema.DatabaseBackend("oracle"), "", ""))
}
