package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/kmetrics/internal/contract"
	"github.com/huangsam/kmetrics/schema"
)

// WriteSnapshot outputs the dashboard metrics, one row per project, metric and extractor.
func WriteSnapshot(metrics schema.ProjectMetrics, cfg *contract.Config, duration time.Duration) error {
	rows := metrics.Rows()
	historyKeys := make([]string, 0, len(cfg.HistoryYears))
	for _, y := range cfg.HistoryYears {
		historyKeys = append(historyKeys, fmt.Sprintf("%d-years-before", y))
	}

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, metrics)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSnapshotCSV(w, rows, historyKeys)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSnapshotTable(w, rows, historyKeys, cfg, duration)
		}, "Wrote table")
	}
	return nil
}

func writeSnapshotTable(w io.Writer, rows []schema.SnapshotRow, historyKeys []string, cfg *contract.Config, duration time.Duration) error {
	headers := append([]string{"Project", "Metric", "Extractor", "Current", "Date"}, historyKeys...)
	valueWidth := getMaxTableTextWidth(cfg, 60)
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		line := []string{
			r.Project,
			string(r.Metric),
			displayExtractor(r.Extractor),
			contract.TruncateText(r.Snapshot.CurrentValue.Value, valueWidth),
			r.Snapshot.CurrentValue.Date,
		}
		for _, k := range historyKeys {
			line = append(line, historyCell(r.Snapshot, k))
		}
		data = append(data, line)
	}
	if err := renderTable(w, headers, data); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Rendered %d metric snapshots in %v\n", len(rows), duration)
	return err
}

func writeSnapshotCSV(w io.Writer, rows []schema.SnapshotRow, historyKeys []string) error {
	header := []string{"project", "metric", "extractor", "current_value", "current_date"}
	for _, k := range historyKeys {
		header = append(header, k, k+"-date")
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range rows {
			rec := []string{
				r.Project, string(r.Metric), string(r.Extractor),
				r.Snapshot.CurrentValue.Value, r.Snapshot.CurrentValue.Date,
			}
			for _, k := range historyKeys {
				v := r.Snapshot.History[k]
				rec = append(rec, v.Value, v.Date)
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// historyCell renders a history value with its date, or "-" when there is none.
func historyCell(s schema.MetricSnapshot, key string) string {
	v, ok := s.History[key]
	if !ok || v.Value == "" {
		return missingValue
	}
	return fmt.Sprintf("%s (%s)", v.Value, v.Date)
}

func displayExtractor(e schema.Extractor) string {
	if e == "" {
		return missingValue
	}
	return string(e)
}
