package iocache

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/kmetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportPaths(t *testing.T) {
	assert.Equal(t, ExportFiles{
		Runs:        "out/h.runs.parquet",
		Descriptors: "out/h.feature_descriptors.parquet",
		ModelCounts: "out/h.model_counts.parquet",
	}, ExportPaths("out/h"))
}

func TestExecuteHistoryExport(t *testing.T) {
	store := newSQLiteHistory(t)
	id, err := store.BeginRun(time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordDescriptors(id, sampleDescriptors(time.Now())))
	require.NoError(t, store.EndRun(id, time.Now(), 2, false))

	prefix := filepath.Join(t.TempDir(), "history")
	var out bytes.Buffer
	files, err := ExecuteHistoryExport(&out, store, prefix)
	require.NoError(t, err)

	assert.FileExists(t, files.Runs)
	assert.FileExists(t, files.Descriptors)
	assert.FileExists(t, files.ModelCounts)
	assert.Contains(t, out.String(), "Exported 2 descriptors")
	assert.Contains(t, out.String(), "Exported 0 model counts")
}

func TestExecuteHistoryExportErrors(t *testing.T) {
	_, err := ExecuteHistoryExport(&bytes.Buffer{}, newSQLiteHistory(t), "")
	assert.ErrorContains(t, err, "--output-file")

	_, err = ExecuteHistoryExport(&bytes.Buffer{}, newSQLiteHistory(t), filepath.Join(t.TempDir(), "x"))
	assert.ErrorIs(t, err, ErrNoHistory)

	failing := &MockHistoryStore{}
	failing.On("GetStatus").Return(schema.HistoryStatus{Backend: "mysql", TotalRuns: 1}, nil)
	failing.On("GetAllRuns").Return(nil, errors.New("connection reset"))
	_, err = ExecuteHistoryExport(&bytes.Buffer{}, failing, filepath.Join(t.TempDir(), "x"))
	assert.ErrorContains(t, err, "connection reset")
	failing.AssertExpectations(t)
}
