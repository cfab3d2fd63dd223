// Package core orchestrates kmetrics runs: it reads the artifact tree,
// classifies every extracted model, normalizes the model counts and renders
// the dashboard metrics.
package core

import (
	"context"
	"time"

	"github.com/huangsam/kmetrics/core/aggregate"
	"github.com/huangsam/kmetrics/core/summary"
	"github.com/huangsam/kmetrics/internal/contract"
	"github.com/huangsam/kmetrics/internal/observability"
	"github.com/huangsam/kmetrics/internal/outwriter"
	"github.com/huangsam/kmetrics/schema"
)

// writer renders every command's results.
var writer = outwriter.NewOutWriter()

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// GetFeaturesResults runs the classification pass and returns the descriptors,
// the extractor agreement and, when requested, the potential-miss report.
func GetFeaturesResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.FeaturesReport, time.Duration, error) {
	start := time.Now()
	out, err := runPipeline(ctx, cfg, mgr, featuresStage)
	if err != nil {
		return schema.FeaturesReport{}, 0, err
	}
	return featuresReport(cfg, out), time.Since(start), nil
}

func featuresReport(cfg *contract.Config, out *pipelineOutput) schema.FeaturesReport {
	report := schema.FeaturesReport{
		Descriptors:         out.Bundle.Descriptors,
		ExtractorComparison: out.Bundle.ExtractorComparison,
		Configurability:     out.Bundle.Configurability,
		Cached:              out.Cached,
	}
	if cfg.ShowMisses {
		misses := aggregate.BuildMissReport(out.Bundle, out.Configs, out.ConfigTypes)
		report.Misses = &misses
	}
	return report
}

// GetCountsResults runs the classification and the model-count normalization.
func GetCountsResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.CountsReport, time.Duration, error) {
	start := time.Now()
	out, err := runPipeline(ctx, cfg, mgr, countsStage)
	if err != nil {
		return schema.CountsReport{}, 0, err
	}
	return countsReport(cfg, out), time.Since(start), nil
}

func countsReport(cfg *contract.Config, out *pipelineOutput) schema.CountsReport {
	return schema.CountsReport{
		Records:  out.Counts.Records,
		Failures: out.Counts.Failures,
		Totals:   out.Counts.Totals,
		MaxYear:  cfg.SolveMaxYear,
	}
}

// GetSnapshotResults runs the whole pipeline and renders the dashboard metrics.
func GetSnapshotResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.ProjectMetrics, time.Duration, error) {
	start := time.Now()
	out, err := runPipeline(ctx, cfg, mgr, snapshotStage)
	if err != nil {
		return nil, 0, err
	}
	return buildMetrics(cfg, out), time.Since(start), nil
}

func buildMetrics(cfg *contract.Config, out *pipelineOutput) schema.ProjectMetrics {
	start := time.Now()
	defer observability.ObserveStage("snapshot", start)
	return summary.Build(summary.Inputs{
		Descriptors:  out.Bundle.Descriptors,
		Kconfig:      out.Kconfig,
		ModelCounts:  out.Counts.Slice,
		Totals:       out.Counts.Totals,
		HistoryYears: cfg.HistoryYears,
	})
}

// ExecuteRun runs the whole pipeline, merges the metrics into the metrics
// document and prints a summary of the run.
func ExecuteRun(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	out, err := runPipeline(ctx, cfg, mgr, snapshotStage)
	if err != nil {
		return err
	}

	metrics := buildMetrics(cfg, out)
	if cfg.MetricsDocument != "" {
		if err := summary.MergeDocument(fsFromContext(ctx), cfg.MetricsDocument, metrics); err != nil {
			return err
		}
		contract.Log.WithField("path", cfg.MetricsDocument).Info("Merged metrics document")
	}

	result := schema.RunSummary{
		RunID:           out.RunID,
		Started:         start,
		Revisions:       out.Stats.Revisions,
		Models:          out.Stats.Models,
		Classified:      out.Stats.Classified,
		CachedFeatures:  out.Cached,
		ModelCounts:     len(out.Counts.Records),
		Totals:          out.Counts.Totals,
		MetricsDocument: cfg.MetricsDocument,
	}
	if err := finishRun(cfg); err != nil {
		return err
	}
	result.Duration = time.Since(start)
	return writer.WriteRunSummary(result, cfg, result.Duration)
}

// ExecuteFeatures prints the feature descriptors and the extractor agreement.
func ExecuteFeatures(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	report, duration, err := GetFeaturesResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	if err := finishRun(cfg); err != nil {
		return err
	}
	return writer.WriteFeatures(report, cfg, duration)
}

// ExecuteCounts prints the normalized model counts and the revision totals.
func ExecuteCounts(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	report, duration, err := GetCountsResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	if err := finishRun(cfg); err != nil {
		return err
	}
	return writer.WriteCounts(report, cfg, duration)
}

// ExecuteSnapshot prints the dashboard metrics without touching the metrics document.
func ExecuteSnapshot(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	metrics, duration, err := GetSnapshotResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	if err := finishRun(cfg); err != nil {
		return err
	}
	return writer.WriteSnapshot(metrics, cfg, duration)
}

// finishRun writes the Prometheus textfile when one is configured.
func finishRun(cfg *contract.Config) error {
	if cfg.MetricsFile == "" {
		return nil
	}
	if err := observability.WriteTextfile(cfg.MetricsFile, time.Now()); err != nil {
		return err
	}
	contract.Log.WithField("path", cfg.MetricsFile).Debug("Wrote metrics textfile")
	return nil
}
