package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/kmetrics/core/aggregate"
	"github.com/huangsam/kmetrics/internal/artifact"
	"github.com/huangsam/kmetrics/internal/contract"
	"github.com/huangsam/kmetrics/internal/observability"
	"github.com/huangsam/kmetrics/schema"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// checkpoint is the cached result of the classification pass.
type checkpoint struct {
	Bundle schema.Bundle   `json:"bundle"`
	Stats  aggregate.Stats `json:"stats"`
}

// cachedBundle returns the classification bundle, reusing the checkpoint store
// unless a refresh was requested. The boolean reports a cache hit.
func cachedBundle(ctx context.Context, cfg *contract.Config, reader *artifact.Reader, in aggregate.Inputs, mgr contract.CacheManager) (checkpoint, bool, error) {
	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetBundleStore()
	}
	if store == nil {
		// Fallback to direct computation
		cp, err := computeBundle(ctx, cfg, reader, in)
		return cp, false, err
	}

	key := generateCacheKey(cfg)
	if !cfg.Refresh {
		if cp, ok := checkCacheHit(store, key); ok {
			observability.CacheRequests.WithLabelValues("hit").Inc()
			contract.Log.WithField("cache_backend", cfg.CacheBackend).Info("Reusing cached feature classification")
			return cp, true, nil
		}
	}
	observability.CacheRequests.WithLabelValues("miss").Inc()
	cp, err := computeAndStore(ctx, cfg, reader, in, store, key)
	return cp, false, err
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(store contract.CacheStore, key string) (checkpoint, bool) {
	data, version, _, err := store.Get(key)
	if err != nil {
		return checkpoint{}, false // Cache miss
	}
	if version != currentCacheVersion {
		return checkpoint{}, false // Written by another schema
	}
	var cp checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return checkpoint{}, false
	}
	return cp, true
}

// computeAndStore computes the result and stores it in cache
func computeAndStore(ctx context.Context, cfg *contract.Config, reader *artifact.Reader, in aggregate.Inputs, store contract.CacheStore, key string) (checkpoint, error) {
	cp, err := computeBundle(ctx, cfg, reader, in)
	if err != nil {
		return checkpoint{}, err
	}

	data, err := json.Marshal(cp)
	if err != nil {
		contract.LogWarn("Failed to encode feature checkpoint", err)
		return cp, nil
	}
	if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
		contract.LogWarn("Failed to store feature checkpoint", err)
	}
	return cp, nil
}

func computeBundle(ctx context.Context, cfg *contract.Config, reader *artifact.Reader, in aggregate.Inputs) (checkpoint, error) {
	agg := aggregate.New(reader, in, contract.Log)
	bundle, err := agg.Run(ctx, cfg.Extractors)
	if err != nil {
		return checkpoint{}, fmt.Errorf("failed to classify features: %w", err)
	}
	return checkpoint{Bundle: bundle, Stats: agg.Stats()}, nil
}

// generateCacheKey creates a unique key based on the classification parameters
func generateCacheKey(cfg *contract.Config) string {
	outputDir := cfg.OutputDir
	if abs, err := filepath.Abs(outputDir); err == nil {
		outputDir = abs
	}
	extractors := make([]string, len(cfg.Extractors))
	for i, e := range cfg.Extractors {
		extractors[i] = string(e)
	}

	key := fmt.Sprintf("%s:%s:%s:%d",
		outputDir,
		strings.Join(extractors, ","),
		strings.Join(cfg.ExcludedKconfigPaths, ","),
		cfg.MinFeatureCount,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
