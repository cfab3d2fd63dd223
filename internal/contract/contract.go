// Package contract has the interfaces, configuration and shared helpers of kmetrics.
package contract

import (
	"time"

	"github.com/huangsam/kmetrics/schema"
)

// CacheManager interface provides access to the checkpoint and run-history stores.
type CacheManager interface {
	GetBundleStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore is a versioned key/value store for checkpoint blobs.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore records each pipeline run along with its descriptors and model counts.
type HistoryStore interface {
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)
	EndRun(runID int64, endTime time.Time, totalVariants int, cachedFeatures bool) error
	RecordDescriptors(runID int64, descriptors []schema.FeatureDescriptor) error
	RecordModelCounts(runID int64, records []schema.ModelCountRecord) error
	GetStatus() (schema.HistoryStatus, error)
	GetAllRuns() ([]schema.RunRecord, error)
	GetAllDescriptors() ([]schema.DescriptorRecord, error)
	GetAllModelCounts() ([]schema.ModelCountRow, error)
	Close() error
}
