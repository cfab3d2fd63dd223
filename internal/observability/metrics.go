// Package observability exposes the Prometheus metrics of a pipeline run and
// writes them to a node-exporter textfile once the run is over.
package observability

import (
	"time"

	"github.com/huangsam/kmetrics/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every kmetrics metric. It is separate from the default
// registry so textfiles only carry kmetrics series.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// ModelsTotal counts classified models by outcome
	ModelsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kmetrics_models_total",
			Help: "Total number of extracted models described",
		},
		[]string{"extractor", "status"}, // status: classified, unclassified
	)

	// ModelCountsTotal counts normalized model counts
	ModelCountsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kmetrics_model_counts_total",
			Help: "Total number of solver results normalized",
		},
		[]string{"extractor", "backend", "status"}, // status: counted, failed
	)

	// CacheRequests counts checkpoint lookups
	CacheRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kmetrics_cache_requests_total",
			Help: "Total number of feature checkpoint lookups",
		},
		[]string{"result"}, // result: hit, miss
	)

	// StageDuration measures pipeline stage duration in seconds
	StageDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kmetrics_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10), // 10ms to ~45min
		},
		[]string{"stage"},
	)

	// RevisionFailures tracks architectures without a model count per revision
	RevisionFailures = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kmetrics_revision_failures",
			Help: "Architectures of a revision that produced no model count",
		},
		[]string{"extractor", "revision"},
	)

	// LastRunTimestamp is the completion time of the last run
	LastRunTimestamp = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "kmetrics_last_run_timestamp_seconds",
			Help: "Completion time of the last pipeline run (unix timestamp)",
		},
	)
)

// ObserveStage records the time elapsed since start for a stage.
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordDescriptors counts the described models per extractor.
func RecordDescriptors(descriptors []schema.FeatureDescriptor) {
	for _, d := range descriptors {
		status := "unclassified"
		if d.UnconstrainedBools.State != schema.NotComputed {
			status = "classified"
		}
		ModelsTotal.WithLabelValues(string(d.Extractor), status).Inc()
	}
}

// RecordModelCounts counts normalized records and sets the per-revision failures.
func RecordModelCounts(records []schema.ModelCountRecord, failures []schema.RevisionFailures) {
	for _, r := range records {
		status := "failed"
		if r.HasLog10() {
			status = "counted"
		}
		ModelCountsTotal.WithLabelValues(string(r.Extractor), r.Backend, status).Inc()
	}
	for _, f := range failures {
		RevisionFailures.WithLabelValues(string(f.Extractor), f.Revision).Set(float64(f.Failures))
	}
}
