package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/kmetrics/internal/contract"
	"github.com/huangsam/kmetrics/schema"
)

// WriteFeatures outputs the classification results, dispatching based on the output format configured.
func WriteFeatures(report schema.FeaturesReport, cfg *contract.Config, duration time.Duration) error {
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
			return writeDescriptorsCSV(w, report.Descriptors, fmtFloat, fmtCount)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		// Default to human-readable tables
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFeaturesTables(w, report, cfg, fmtFloat, fmtCount, duration)
		}, "Wrote table")
	}
	return nil
}

// writeFeaturesTables writes the per-model table, the revision totals and the diagnostics.
func writeFeaturesTables(w io.Writer, report schema.FeaturesReport, cfg *contract.Config, fmtFloat func(*float64) string, fmtCount func(schema.Count) string, duration time.Duration) error {
	headers := []string{"Extractor", "Revision", "Arch", "Extracted", "Features", "Core", "Unconstr", "Added", "Removed", "Jaccard"}
	rows := make([][]string, 0, len(report.Descriptors))
	for _, d := range report.Descriptors {
		rows = append(rows, []string{
			string(d.Extractor),
			d.Revision,
			d.Architecture,
			fmtCount(d.ExtractedFeatures),
			fmtCount(d.Features),
			fmtCount(d.CoreFeatures),
			fmtCount(d.UnconstrainedFeatures),
			fmtCount(d.AddedFeatures),
			fmtCount(d.RemovedFeatures),
			fmtFloat(d.ExtractedFeaturesJaccard),
		})
	}
	if err := renderTable(w, headers, rows); err != nil {
		return err
	}

	totals := schema.RevisionTotals(report.Descriptors)
	rows = make([][]string, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []string{
			string(t.Extractor),
			t.Revision,
			formatDate(t.CommitterDate),
			fmt.Sprintf("%d/%d", t.Classified, t.Architectures),
			fmtCount(t.TotalFeatures),
			fmtCount(t.TotalAddedFeatures),
			fmtCount(t.TotalRemovedFeatures),
		})
	}
	if _, err := fmt.Fprintln(w, "\nRevision totals"); err != nil {
		return err
	}
	if err := renderTable(w, []string{"Extractor", "Revision", "Date", "Classified", "Total", "Added", "Removed"}, rows); err != nil {
		return err
	}

	compared, mean := agreementSummary(report.ExtractorComparison)
	if _, err := fmt.Fprintf(w, "Extractor agreement: %d of %d models compared, mean Jaccard %s\n",
		compared, len(report.ExtractorComparison), fmtFloat(mean)); err != nil {
		return err
	}

	if report.Misses != nil {
		if err := writeMissTables(w, *report.Misses, cfg); err != nil {
			return err
		}
	}

	cached := ""
	if report.Cached {
		cached = " (cached)"
	}
	if _, err := fmt.Fprintf(w, "Described %d models across %d revisions in %v%s. Cache backend: %s\n",
		len(report.Descriptors), len(totals), duration, cached, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// agreementSummary returns how many (revision, architecture) pairs both extractors
// classified and their mean Jaccard similarity, nil when none was compared.
func agreementSummary(comparisons []schema.ExtractorComparison) (int, *float64) {
	var sum float64
	compared := 0
	for _, c := range comparisons {
		if c.Jaccard == nil {
			continue
		}
		sum += *c.Jaccard
		compared++
	}
	if compared == 0 {
		return 0, nil
	}
	mean := sum / float64(compared)
	return compared, &mean
}

// writeMissTables writes both potential-miss reports.
func writeMissTables(w io.Writer, misses schema.MissReport, cfg *contract.Config) error {
	sections := []struct {
		title string
		count int
		rows  []schema.PotentialMiss
	}{
		{"Feature variables missed by the config grep", misses.GrepCount, misses.Grep},
		{"Declared configs missed by KClause", misses.ModelCount, misses.Model},
	}
	pathWidth := getMaxTableTextWidth(cfg, 40)
	for _, s := range sections {
		if _, err := fmt.Fprintf(w, "\n%s: %d\n", s.title, s.count); err != nil {
			return err
		}
		if len(s.rows) == 0 {
			continue
		}
		rows := make([][]string, 0, len(s.rows))
		for _, m := range s.rows {
			rows = append(rows, []string{m.Config, contract.TruncateText(m.KconfigFile, pathWidth), string(m.Type)})
		}
		if err := renderTable(w, []string{"Config", "Kconfig file", "Type"}, rows); err != nil {
			return err
		}
	}
	return nil
}

// descriptorHeader lists the CSV columns of a feature descriptor.
var descriptorHeader = []string{
	"extractor", "revision", "architecture", "committer_date",
	"config_features", "extracted_features", "unconstrained_feature_variables",
	"all_variables", "variables", "feature_variables", "core_feature_variables",
	"dead_feature_variables", "constrained_feature_variables", "undead_feature_variables",
	"all_feature_variables", "ALL_feature_variables", "features", "core_features",
	"unconstrained_features", "constrained_features", "added_features", "removed_features",
	"total_features", "total_added_features", "total_removed_features",
	"extracted_features_jaccard", "all_variables_jaccard", "variables_jaccard",
	"feature_variables_jaccard", "undead_feature_variables_jaccard",
	"all_feature_variables_jaccard", "features_jaccard",
	"unconstrained_bools", "unconstrained_tristates",
}

// writeDescriptorsCSV writes every descriptor column. Missing counts and ratios are empty.
func writeDescriptorsCSV(w io.Writer, descriptors []schema.FeatureDescriptor, fmtFloat func(*float64) string, fmtCount func(schema.Count) string) error {
	count := func(c schema.Count) string {
		if !c.IsMeasured() {
			return ""
		}
		return fmtCount(c)
	}
	ratio := func(v *float64) string {
		if v == nil {
			return ""
		}
		return fmtFloat(v)
	}
	return writeCSVWithHeader(w, descriptorHeader, func(cw *csv.Writer) error {
		for _, d := range descriptors {
			rec := []string{
				string(d.Extractor), d.Revision, d.Architecture, formatDate(d.CommitterDate),
				count(d.ConfigFeatures), count(d.ExtractedFeatures), count(d.UnconstrainedFeatureVariables),
				count(d.AllVariables), count(d.Variables), count(d.FeatureVariables), count(d.CoreFeatureVariables),
				count(d.DeadFeatureVariables), count(d.ConstrainedFeatureVariables), count(d.UndeadFeatureVariables),
				count(d.AllFeatureVariables), count(d.CombinedFeatureVariables), count(d.Features), count(d.CoreFeatures),
				count(d.UnconstrainedFeatures), count(d.ConstrainedFeatures), count(d.AddedFeatures), count(d.RemovedFeatures),
				count(d.TotalFeatures), count(d.TotalAddedFeatures), count(d.TotalRemovedFeatures),
				ratio(d.ExtractedFeaturesJaccard), ratio(d.AllVariablesJaccard), ratio(d.VariablesJaccard),
				ratio(d.FeatureVariablesJaccard), ratio(d.UndeadFeatureVariablesJaccard),
				ratio(d.AllFeatureVariablesJaccard), ratio(d.FeaturesJaccard),
				count(d.UnconstrainedBools), count(d.UnconstrainedTristates),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
