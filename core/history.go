package core

import (
	"context"
	"time"

	"github.com/huangsam/kmetrics/internal/contract"
	"github.com/huangsam/kmetrics/schema"
)

// historyRecorder writes one run to the history store. Recording failures are
// logged and never fail the run.
type historyRecorder struct {
	store contract.HistoryStore
	runID int64
}

// beginRun starts tracking a run when a history store is configured.
func beginRun(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (context.Context, *historyRecorder) {
	rec := &historyRecorder{}
	if mgr == nil {
		return ctx, rec
	}
	rec.store = mgr.GetHistoryStore()
	if rec.store == nil {
		return ctx, rec
	}

	runID, err := rec.store.BeginRun(time.Now(), cfg.Params())
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		rec.store = nil
		return ctx, rec
	}
	rec.runID = runID
	if runID > 0 {
		ctx = withRunID(ctx, runID)
	}
	return ctx, rec
}

func (r *historyRecorder) active() bool {
	return r.store != nil && r.runID > 0
}

func (r *historyRecorder) descriptors(descriptors []schema.FeatureDescriptor) {
	if !r.active() {
		return
	}
	if err := r.store.RecordDescriptors(r.runID, descriptors); err != nil {
		contract.LogWarn("Failed to record feature descriptors", err)
	}
}

func (r *historyRecorder) modelCounts(records []schema.ModelCountRecord) {
	if !r.active() {
		return
	}
	if err := r.store.RecordModelCounts(r.runID, records); err != nil {
		contract.LogWarn("Failed to record model counts", err)
	}
}

func (r *historyRecorder) end(totalVariants int, cachedFeatures bool) {
	if !r.active() {
		return
	}
	if err := r.store.EndRun(r.runID, time.Now(), totalVariants, cachedFeatures); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}
