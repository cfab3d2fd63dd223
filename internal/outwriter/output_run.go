package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/kmetrics/internal/contract"
	"github.com/huangsam/kmetrics/schema"
)

// WriteRunSummary outputs the summary of a complete pipeline run.
func WriteRunSummary(summary schema.RunSummary, cfg *contract.Config, duration time.Duration) error {
	_, fmtCount := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, summary)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTotalsCSV(w, summary.Totals)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunText(w, summary, cfg, fmtCount, duration)
		}, "Wrote summary")
	}
	return nil
}

func writeRunText(w io.Writer, summary schema.RunSummary, cfg *contract.Config, fmtCount func(schema.Count) string, duration time.Duration) error {
	lines := [][2]string{
		{"Revisions", strconv.Itoa(summary.Revisions)},
		{"Models", strconv.Itoa(summary.Models)},
		{"Classified", strconv.Itoa(summary.Classified)},
		{"Cached features", strconv.FormatBool(summary.CachedFeatures)},
		{"Model counts", strconv.Itoa(summary.ModelCounts)},
	}
	if summary.RunID > 0 {
		lines = append([][2]string{{"Run", strconv.FormatInt(summary.RunID, 10)}}, lines...)
	}
	if summary.MetricsDocument != "" {
		lines = append(lines, [2]string{"Metrics document", summary.MetricsDocument})
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%-17s %s\n", l[0]+":", l[1]); err != nil {
			return err
		}
	}

	if len(summary.Totals) > 0 {
		rows := make([][]string, 0, len(summary.Totals))
		for _, t := range summary.Totals {
			label := contract.GetPlainBoundLabel(t.IsUpperBound, t.Digits.IsMeasured())
			if cfg.UseColors {
				label = contract.GetColorBoundLabel(t.IsUpperBound, t.Digits.IsMeasured())
			}
			rows = append(rows, []string{string(t.Extractor), t.Revision, formatDate(t.CommitterDate), fmtCount(t.Digits), label})
		}
		if err := renderTable(w, []string{"Extractor", "Revision", "Date", "Digits", "Bound"}, rows); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Run completed in %v\n", duration)
	return err
}

// writeTotalsCSV writes the revision totals, the only tabular part of a run summary.
func writeTotalsCSV(w io.Writer, totals []schema.AggregateTotal) error {
	header := []string{"extractor", "revision", "committer_date", "model-count-unconstrained", "failures", "is-upper-bound", "bound"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, t := range totals {
			digits := ""
			if n, ok := t.Digits.Value(); ok {
				digits = strconv.Itoa(n)
			}
			rec := []string{
				string(t.Extractor), t.Revision, formatDate(t.CommitterDate), digits,
				strconv.Itoa(t.Failures), strconv.FormatBool(t.IsUpperBound),
				contract.GetPlainBoundLabel(t.IsUpperBound, t.Digits.IsMeasured()),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
