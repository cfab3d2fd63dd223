// Package iocache persists the classification checkpoint and the run history
// in SQL databases.
package iocache

import (
	"sync"

	"github.com/huangsam/kmetrics/internal/contract"
)

// CacheStoreManager manages the checkpoint and history stores.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	bundle       contract.CacheStore
	history      contract.HistoryStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetBundleStore returns the checkpoint CacheStore.
func (mgr *CacheStoreManager) GetBundleStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.bundle
}

// GetHistoryStore returns the run-history store.
func (mgr *CacheStoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
