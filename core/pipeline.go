package core

import (
	"context"
	"time"

	"github.com/huangsam/kmetrics/core/aggregate"
	"github.com/huangsam/kmetrics/core/normalize"
	"github.com/huangsam/kmetrics/internal/artifact"
	"github.com/huangsam/kmetrics/internal/contract"
	"github.com/huangsam/kmetrics/internal/observability"
	"github.com/huangsam/kmetrics/schema"
	"github.com/sirupsen/logrus"
)

// stage is how far a pipeline run goes.
type stage int

const (
	featuresStage stage = iota // classification only
	countsStage                // plus model-count normalization
	snapshotStage              // plus the kconfig stage for the summary
)

// pipelineOutput holds every table a run computed.
type pipelineOutput struct {
	RunID       int64
	Configs     []schema.ConfigRecord
	ConfigTypes []schema.ConfigTypeRecord
	Kconfig     []schema.KconfigRecord
	Bundle      schema.Bundle
	Stats       aggregate.Stats
	Cached      bool
	Counts      *normalize.Result
}

// runPipeline computes the tables up to the given stage and records the run
// in the history store when one is configured.
func runPipeline(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, until stage) (*pipelineOutput, error) {
	ctx, rec := beginRun(ctx, cfg, mgr)
	out, err := computePipeline(ctx, cfg, mgr, until, rec)
	if err != nil {
		return nil, err
	}
	out.RunID = rec.runID
	rec.end(len(out.Bundle.Descriptors), out.Cached)
	return out, nil
}

func computePipeline(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, until stage, rec *historyRecorder) (*pipelineOutput, error) {
	log := contract.Log.WithFields(logrus.Fields{
		"output_dir": cfg.OutputDir,
		"run_id":     runIDFromContext(ctx),
	})
	reader := artifact.NewReader(fsFromContext(ctx), cfg.OutputDir, contract.Log)

	// --- 1. Revision-level tables ---
	archs, err := reader.Architectures()
	if err != nil {
		return nil, err
	}
	configs, err := reader.Configs(cfg.ExcludedKconfigPaths)
	if err != nil {
		return nil, err
	}
	types, err := reader.ConfigTypes(cfg.ExcludedKconfigPaths)
	if err != nil {
		return nil, err
	}
	dates := artifact.RevisionDates(archs)

	// --- 2. Classification (with caching) ---
	start := time.Now()
	cp, cached, err := cachedBundle(ctx, cfg, reader, aggregate.Inputs{
		Configs:         configs,
		ConfigTypes:     types,
		RevisionDates:   dates,
		MinFeatureCount: cfg.MinFeatureCount,
	}, mgr)
	if err != nil {
		return nil, err
	}
	observability.ObserveStage("features", start)
	observability.RecordDescriptors(cp.Bundle.Descriptors)
	rec.descriptors(cp.Bundle.Descriptors)
	log.WithFields(logrus.Fields{
		"revisions":  cp.Stats.Revisions,
		"models":     cp.Stats.Models,
		"classified": cp.Stats.Classified,
		"no_dimacs":  cp.Stats.NoDIMACS,
		"cached":     cached,
	}).Info("Feature classification done")

	out := &pipelineOutput{
		Configs:     configs,
		ConfigTypes: types,
		Bundle:      cp.Bundle,
		Stats:       cp.Stats,
		Cached:      cached,
	}
	if until < countsStage {
		return out, nil
	}

	// --- 3. Model-count normalization ---
	start = time.Now()
	primary, err := reader.SolveRecords()
	if err != nil {
		return nil, err
	}
	rerun, ok, err := reader.RerunRecords(cfg.RerunFile, dates)
	if err != nil {
		return nil, err
	}
	if ok {
		log.WithField("rows", len(rerun)).Info("Superseding solve results with the rerun table")
	}
	result := normalize.Compute(primary, rerun, cp.Bundle.Descriptors, cfg.SolveMaxYear, contract.Log)
	observability.ObserveStage("counts", start)
	observability.RecordModelCounts(result.Records, result.Failures)
	rec.modelCounts(result.Records)
	out.Counts = &result
	if until < snapshotStage {
		return out, nil
	}

	// --- 4. Inputs of the summary ---
	kconfig, err := reader.Kconfig()
	if err != nil {
		return nil, err
	}
	out.Kconfig = kconfig
	return out, nil
}
