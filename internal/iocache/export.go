package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/kmetrics/internal/contract"
	"github.com/huangsam/kmetrics/internal/parquet"
)

// ErrNoHistory is returned when an export finds no recorded runs.
var ErrNoHistory = errors.New("no run history found to export")

// ExportFiles are the Parquet files written by an export.
type ExportFiles struct {
	Runs        string
	Descriptors string
	ModelCounts string
}

// ExportPaths derives the Parquet file names from an output prefix.
func ExportPaths(prefix string) ExportFiles {
	return ExportFiles{
		Runs:        prefix + ".runs.parquet",
		Descriptors: prefix + ".feature_descriptors.parquet",
		ModelCounts: prefix + ".model_counts.parquet",
	}
}

// ExecuteHistoryExport exports every table of the history store to Parquet
// files named after prefix, reporting progress to w.
func ExecuteHistoryExport(w io.Writer, store contract.HistoryStore, prefix string) (ExportFiles, error) {
	if prefix == "" {
		return ExportFiles{}, errors.New("--output-file is required for export command")
	}
	if store == nil {
		return ExportFiles{}, errors.New("history store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return ExportFiles{}, fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return ExportFiles{}, ErrNoHistory
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total descriptor records: %d\n", status.TotalDescriptors)

	runs, err := store.GetAllRuns()
	if err != nil {
		return ExportFiles{}, fmt.Errorf("failed to retrieve runs: %w", err)
	}
	descriptors, err := store.GetAllDescriptors()
	if err != nil {
		return ExportFiles{}, fmt.Errorf("failed to retrieve descriptors: %w", err)
	}
	counts, err := store.GetAllModelCounts()
	if err != nil {
		return ExportFiles{}, fmt.Errorf("failed to retrieve model counts: %w", err)
	}

	files := ExportPaths(prefix)
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), files.Runs); err != nil {
		return files, fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), files.Runs)

	if err := parquet.WriteFeatureDescriptorsParquet(parquet.ConvertDescriptorRecords(descriptors), files.Descriptors); err != nil {
		return files, fmt.Errorf("failed to write descriptors: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d descriptors to: %s\n", len(descriptors), files.Descriptors)

	if err := parquet.WriteModelCountsParquet(parquet.ConvertModelCountRows(counts), files.ModelCounts); err != nil {
		return files, fmt.Errorf("failed to write model counts: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d model counts to: %s\n", len(counts), files.ModelCounts)

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be used with DuckDB, Pandas (via pyarrow) or Spark.")
	return files, nil
}
