// Package parquet provides data structures and functions for exporting kmetrics
// run history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/kmetrics/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single pipeline run with metadata.
// This struct maps to the kmetrics_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalVariants is the number of (extractor, revision, architecture) models described
	TotalVariants int32 `parquet:"total_variants,snappy"`

	// CachedFeatures is true when the classification came from the checkpoint
	CachedFeatures bool `parquet:"cached_features,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// FeatureDescriptor holds the headline counts of one extracted model.
// This struct maps to the kmetrics_feature_descriptors database table.
// Counts that were suppressed or not computed are null.
type FeatureDescriptor struct {
	RunID         int64     `parquet:"run_id,snappy"`
	Extractor     string    `parquet:"extractor,dict,snappy"`
	Revision      string    `parquet:"revision,dict,snappy"`
	Architecture  string    `parquet:"architecture,dict,snappy"`
	CommitterDate time.Time `parquet:"committer_date,snappy"`

	ExtractedFeatures      *int32   `parquet:"extracted_features,optional,snappy"`
	FeatureVariables       *int32   `parquet:"feature_variables,optional,snappy"`
	Features               *int32   `parquet:"features,optional,snappy"`
	CoreFeatures           *int32   `parquet:"core_features,optional,snappy"`
	UnconstrainedFeatures  *int32   `parquet:"unconstrained_features,optional,snappy"`
	ConstrainedFeatures    *int32   `parquet:"constrained_features,optional,snappy"`
	AddedFeatures          *int32   `parquet:"added_features,optional,snappy"`
	RemovedFeatures        *int32   `parquet:"removed_features,optional,snappy"`
	TotalFeatures          *int32   `parquet:"total_features,optional,snappy"`
	UnconstrainedBools     *int32   `parquet:"unconstrained_bools,optional,snappy"`
	UnconstrainedTristates *int32   `parquet:"unconstrained_tristates,optional,snappy"`
	ExtractedJaccard       *float64 `parquet:"extracted_features_jaccard,optional,snappy"`
}

// ModelCount is the normalized model count of one model and solver backend.
// This struct maps to the kmetrics_model_counts database table.
type ModelCount struct {
	RunID         int64     `parquet:"run_id,snappy"`
	Extractor     string    `parquet:"extractor,dict,snappy"`
	Revision      string    `parquet:"revision,dict,snappy"`
	Architecture  string    `parquet:"architecture,dict,snappy"`
	Backend       string    `parquet:"backend,dict,snappy"`
	CommitterDate time.Time `parquet:"committer_date,snappy"`

	// ModelCount and Unconstrained are decimal strings, they exceed every integer type
	ModelCount         *string  `parquet:"model_count,optional,snappy"`
	Unconstrained      *string  `parquet:"model_count_unconstrained,optional,snappy"`
	UnconstrainedLog10 *float64 `parquet:"model_count_unconstrained_log10,optional,snappy"`
	Similarity         *float64 `parquet:"similarity,optional,snappy"`
	TimeNanos          *int64   `parquet:"time_ns,optional,snappy"`
}

// write writes rows to a Parquet file whose schema is inferred from T's struct tags.
func write[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteRunsParquet writes runs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return write(data, outputPath)
}

// WriteFeatureDescriptorsParquet writes descriptors to a Parquet file.
func WriteFeatureDescriptorsParquet(data []FeatureDescriptor, outputPath string) error {
	return write(data, outputPath)
}

// WriteModelCountsParquet writes model counts to a Parquet file.
func WriteModelCountsParquet(data []ModelCount, outputPath string) error {
	return write(data, outputPath)
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:          record.RunID,
			StartTime:      record.StartTime,
			EndTime:        record.EndTime,
			RunDurationMs:  record.RunDurationMs,
			TotalVariants:  record.TotalVariants,
			CachedFeatures: record.CachedFeatures,
			ConfigParams:   record.ConfigParams,
		}
	}
	return result
}

// ConvertDescriptorRecords converts schema.DescriptorRecord to FeatureDescriptor for Parquet export.
func ConvertDescriptorRecords(records []schema.DescriptorRecord) []FeatureDescriptor {
	result := make([]FeatureDescriptor, len(records))
	for i, r := range records {
		result[i] = FeatureDescriptor{
			RunID:                  r.RunID,
			Extractor:              r.Extractor,
			Revision:               r.Revision,
			Architecture:           r.Architecture,
			CommitterDate:          r.CommitterDate,
			ExtractedFeatures:      r.ExtractedFeatures,
			FeatureVariables:       r.FeatureVariables,
			Features:               r.Features,
			CoreFeatures:           r.CoreFeatures,
			UnconstrainedFeatures:  r.UnconstrainedFeatures,
			ConstrainedFeatures:    r.ConstrainedFeatures,
			AddedFeatures:          r.AddedFeatures,
			RemovedFeatures:        r.RemovedFeatures,
			TotalFeatures:          r.TotalFeatures,
			UnconstrainedBools:     r.UnconstrainedBools,
			UnconstrainedTristates: r.UnconstrainedTristates,
			ExtractedJaccard:       r.ExtractedJaccard,
		}
	}
	return result
}

// ConvertModelCountRows converts schema.ModelCountRow to ModelCount for Parquet export.
func ConvertModelCountRows(records []schema.ModelCountRow) []ModelCount {
	result := make([]ModelCount, len(records))
	for i, r := range records {
		result[i] = ModelCount{
			RunID:              r.RunID,
			Extractor:          r.Extractor,
			Revision:           r.Revision,
			Architecture:       r.Architecture,
			Backend:            r.Backend,
			CommitterDate:      r.CommitterDate,
			ModelCount:         r.ModelCount,
			Unconstrained:      r.Unconstrained,
			UnconstrainedLog10: r.UnconstrainedLog10,
			Similarity:         r.Similarity,
			TimeNanos:          r.TimeNanos,
		}
	}
	return result
}
