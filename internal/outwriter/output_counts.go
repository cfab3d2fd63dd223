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

// WriteCounts outputs the normalized model counts and the revision totals.
func WriteCounts(report schema.CountsReport, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, fmtCount := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeModelCountsCSV(w, report.Records, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCountsTables(w, report, cfg, fmtFloat, fmtCount, duration)
		}, "Wrote table")
	}
	return nil
}

func writeCountsTables(w io.Writer, report schema.CountsReport, cfg *contract.Config, fmtFloat func(*float64) string, fmtCount func(schema.Count) string, duration time.Duration) error {
	headers := []string{"Extractor", "Revision", "Arch", "Backend", "log10", "Unconstr log10", "Similarity", "Time"}
	rows := make([][]string, 0, len(report.Records))
	for _, r := range report.Records {
		rows = append(rows, []string{
			string(r.Extractor),
			r.Revision,
			r.Architecture,
			r.Backend,
			fmtFloat(r.RawLog10),
			fmtFloat(r.UnconstrainedLog10),
			fmtFloat(r.Similarity),
			formatNanos(r.TimeNanos),
		})
	}
	if err := renderTable(w, headers, rows); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "\nRevision totals"); err != nil {
		return err
	}
	rows = make([][]string, 0, len(report.Totals))
	for _, t := range report.Totals {
		label := contract.GetPlainBoundLabel(t.IsUpperBound, t.Digits.IsMeasured())
		if cfg.UseColors {
			label = contract.GetColorBoundLabel(t.IsUpperBound, t.Digits.IsMeasured())
		}
		rows = append(rows, []string{
			string(t.Extractor),
			t.Revision,
			formatDate(t.CommitterDate),
			fmtCount(t.Digits),
			strconv.Itoa(t.Failures),
			label,
		})
	}
	if err := renderTable(w, []string{"Extractor", "Revision", "Date", "Digits", "Failures", "Bound"}, rows); err != nil {
		return err
	}

	capNote := ""
	if report.MaxYear > 0 {
		capNote = fmt.Sprintf(" up to %d", report.MaxYear)
	}
	if _, err := fmt.Fprintf(w, "Normalized %d model counts, %d revision totals%s in %v\n",
		len(report.Records), len(report.Totals), capNote, duration); err != nil {
		return err
	}
	return nil
}

// formatNanos renders a solver time rounded to milliseconds.
func formatNanos(ns *int64) string {
	if ns == nil {
		return missingValue
	}
	return time.Duration(*ns).Round(time.Millisecond).String()
}

var modelCountHeader = []string{
	"extractor", "revision", "architecture", "backend", "committer_date", "time_ns",
	"model_count", "model_count_log10", "unconstrained_bools", "unconstrained_tristates",
	"model_count_unconstrained", "model_count_unconstrained_log10",
	"model_count_unconstrained_digits", "similarity", "similarity_log10",
}

// writeModelCountsCSV writes the normalized records. Counts are written in full decimal.
func writeModelCountsCSV(w io.Writer, records []schema.ModelCountRecord, fmtFloat func(*float64) string) error {
	ratio := func(v *float64) string {
		if v == nil {
			return ""
		}
		return fmtFloat(v)
	}
	count := func(c schema.Count) string {
		if n, ok := c.Value(); ok {
			return strconv.Itoa(n)
		}
		return ""
	}
	return writeCSVWithHeader(w, modelCountHeader, func(cw *csv.Writer) error {
		for _, r := range records {
			ns := ""
			if r.TimeNanos != nil {
				ns = strconv.FormatInt(*r.TimeNanos, 10)
			}
			raw, unconstrained := "", ""
			if r.Raw != nil {
				raw = r.Raw.String()
			}
			if r.Unconstrained != nil {
				unconstrained = r.Unconstrained.String()
			}
			rec := []string{
				string(r.Extractor), r.Revision, r.Architecture, r.Backend, formatDate(r.CommitterDate), ns,
				raw, ratio(r.RawLog10), count(r.UnconstrainedBools), count(r.UnconstrainedTristates),
				unconstrained, ratio(r.UnconstrainedLog10),
				count(r.Digits), ratio(r.Similarity), ratio(r.SimilarityLog10),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
