package parquet

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/kmetrics/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err, "Should be able to open output file")
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err, "Should be able to read data")
	}
	return rows[:n]
}

func ptr[T any](v T) *T {
	return &v
}

func TestStructTags(t *testing.T) {
	tests := []struct {
		name    string
		model   any
		columns []string
	}{
		{"runs", new(Run), []string{
			"run_id", "start_time", "end_time", "run_duration_ms", "total_variants", "cached_features", "config_params",
		}},
		{"descriptors", new(FeatureDescriptor), []string{
			"run_id", "extractor", "revision", "architecture", "committer_date", "extracted_features",
			"feature_variables", "features", "core_features", "unconstrained_features", "constrained_features",
			"added_features", "removed_features", "total_features", "unconstrained_bools",
			"unconstrained_tristates", "extracted_features_jaccard",
		}},
		{"model counts", new(ModelCount), []string{
			"run_id", "extractor", "revision", "architecture", "backend", "committer_date", "model_count",
			"model_count_unconstrained", "model_count_unconstrained_log10", "similarity", "time_ns",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parquet.SchemaOf(tt.model)
			require.NotNil(t, s)
			for _, colName := range tt.columns {
				_, ok := s.Lookup(colName)
				assert.True(t, ok, "Column %s should exist in schema", colName)
			}
		})
	}
}

func TestWriteRunsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "runs.parquet")

	start := time.Date(2024, time.March, 1, 10, 0, 0, 123, time.UTC)
	end := start.Add(90 * time.Second)
	data := []Run{
		{RunID: 1, StartTime: start, EndTime: &end, RunDurationMs: ptr(int32(90000)), TotalVariants: 120, CachedFeatures: true, ConfigParams: ptr(`{"min_feature_count":2}`)},
		{RunID: 2, StartTime: start},
	}
	require.NoError(t, WriteRunsParquet(data, outputPath))

	got := readAll[Run](t, outputPath)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].RunID)
	assert.True(t, got[0].CachedFeatures)
	assert.Equal(t, int32(120), got[0].TotalVariants)
	require.NotNil(t, got[0].EndTime)
	assert.WithinDuration(t, end, *got[0].EndTime, time.Nanosecond)
	assert.Equal(t, `{"min_feature_count":2}`, *got[0].ConfigParams)

	assert.Nil(t, got[1].EndTime)
	assert.Nil(t, got[1].RunDurationMs)
	assert.Nil(t, got[1].ConfigParams)
	assert.False(t, got[1].CachedFeatures)
}

func TestWriteFeatureDescriptorsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "descriptors.parquet")
	date := time.Date(2015, time.April, 12, 0, 0, 0, 0, time.UTC)
	data := []FeatureDescriptor{
		{RunID: 1, Extractor: "KClause", Revision: "v4.0", Architecture: "x86", CommitterDate: date, Features: ptr(int32(4)), ExtractedJaccard: ptr(0.8)},
		{RunID: 1, Extractor: "KClause", Revision: "v4.0", Architecture: "arm", CommitterDate: date},
	}
	require.NoError(t, WriteFeatureDescriptorsParquet(data, outputPath))

	got := readAll[FeatureDescriptor](t, outputPath)
	require.Len(t, got, 2)
	assert.Equal(t, "x86", got[0].Architecture)
	assert.Equal(t, int32(4), *got[0].Features)
	assert.InDelta(t, 0.8, *got[0].ExtractedJaccard, 1e-12)
	assert.Nil(t, got[1].Features)
	assert.Nil(t, got[1].AddedFeatures)
}

func TestWriteModelCountsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "counts.parquet")
	huge := "1" + strings.Repeat("0", 42)
	data := []ModelCount{
		{RunID: 3, Extractor: "KConfigReader", Revision: "v4.1", Architecture: "x86", Backend: "sharpsat",
			ModelCount: ptr("48"), Unconstrained: &huge, UnconstrainedLog10: ptr(42.0), TimeNanos: ptr(int64(7e9))},
	}
	require.NoError(t, WriteModelCountsParquet(data, outputPath))

	got := readAll[ModelCount](t, outputPath)
	require.Len(t, got, 1)
	assert.Equal(t, huge, *got[0].Unconstrained)
	assert.Equal(t, "sharpsat", got[0].Backend)
	assert.Nil(t, got[0].Similarity)
}

func TestWriteEmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteRunsParquet([]Run{}, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should contain schema even if empty")
}

func TestWriteInvalidPath(t *testing.T) {
	err := WriteModelCountsParquet(nil, "/nonexistent/directory/output.parquet")
	require.Error(t, err, "Writing to invalid path should produce error")
}

func TestConvertRecords(t *testing.T) {
	date := time.Date(2015, time.June, 21, 0, 0, 0, 0, time.UTC)
	runs := ConvertRunRecords([]schema.RunRecord{{RunID: 7, StartTime: date, TotalVariants: 3, CachedFeatures: true}})
	require.Len(t, runs, 1)
	assert.Equal(t, Run{RunID: 7, StartTime: date, TotalVariants: 3, CachedFeatures: true}, runs[0])

	descriptors := ConvertDescriptorRecords([]schema.DescriptorRecord{{RunID: 7, Extractor: "KClause", Revision: "v4.1", Architecture: "arm", CommitterDate: date, Features: ptr(int32(9))}})
	require.Len(t, descriptors, 1)
	assert.Equal(t, "arm", descriptors[0].Architecture)
	assert.Equal(t, int32(9), *descriptors[0].Features)

	counts := ConvertModelCountRows([]schema.ModelCountRow{{RunID: 7, Backend: "d4", Unconstrained: ptr("5")}})
	require.Len(t, counts, 1)
	assert.Equal(t, "d4", counts[0].Backend)
	assert.Equal(t, "5", *counts[0].Unconstrained)
}
