// Package summary renders the latest value and the multi-year history of each
// dashboard metric per project, and merges them into the metrics document.
package summary

import (
	"slices"
	"time"

	"github.com/huangsam/kmetrics/schema"
)

// Inputs are the computed tables a summary is built from.
type Inputs struct {
	Descriptors []schema.FeatureDescriptor
	Kconfig     []schema.KconfigRecord
	// ModelCounts are the normalized records counted into Totals.
	ModelCounts []schema.ModelCountRecord
	Totals      []schema.AggregateTotal
	// HistoryYears defaults to DefaultHistoryYears when empty.
	HistoryYears []int
}

var (
	featuresFormat   = Format{Unit: "features", Apply: Truncate}
	linesFormat      = Format{Unit: "loc", Apply: Truncate}
	modelCountFormat = Format{Prefix: "10^", Unit: "models", Apply: Truncate}
	solveTimeFormat  = Format{Unit: "s", Apply: NanosToSeconds}
)

// extractorSeries collects observations per extractor, remembering first-seen order.
type extractorSeries struct {
	order []schema.Extractor
	obs   map[schema.Extractor][]Observation
}

func newExtractorSeries() *extractorSeries {
	return &extractorSeries{obs: make(map[schema.Extractor][]Observation)}
}

func (e *extractorSeries) add(ext schema.Extractor, date time.Time, v *float64) {
	if _, ok := e.obs[ext]; !ok {
		e.order = append(e.order, ext)
	}
	e.obs[ext] = append(e.obs[ext], Observation{Date: date, Value: v})
}

func (e *extractorSeries) snapshots(f Format, years []int) schema.ExtractorSnapshots {
	out := schema.ExtractorSnapshots{CurrentValue: make(map[schema.Extractor]schema.MetricSnapshot, len(e.order))}
	for _, ext := range e.order {
		out.CurrentValue[ext] = Snapshot(NewSeries(e.obs[ext]), f, years)
	}
	return out
}

// Architectures lists the architectures seen in the kconfig stage or in the descriptors.
func Architectures(in Inputs) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(arch string) {
		if _, ok := seen[arch]; ok || arch == "" {
			return
		}
		seen[arch] = struct{}{}
		out = append(out, arch)
	}
	for _, k := range in.Kconfig {
		add(k.Architecture)
	}
	for _, d := range in.Descriptors {
		add(d.Architecture)
	}
	slices.Sort(out)
	return out
}

// Build renders every metric of every project.
func Build(in Inputs) schema.ProjectMetrics {
	years := in.HistoryYears
	if len(years) == 0 {
		years = DefaultHistoryYears
	}
	archs := Architectures(in)

	out := schema.ProjectMetrics{schema.AllProject: {}}
	for _, arch := range archs {
		out[schema.ProjectKey(arch)] = map[schema.MetricName]any{}
	}

	out[schema.AllProject][schema.TotalFeaturesMetric] = totalFeatures(in.Descriptors).snapshots(featuresFormat, years)
	out[schema.AllProject][schema.SourceLinesMetric] = Snapshot(sourceLines(in.Kconfig, ""), linesFormat, years)
	out[schema.AllProject][schema.ModelCountMetric] = totalModelCounts(in.Totals).snapshots(modelCountFormat, years)

	for _, arch := range archs {
		project := out[schema.ProjectKey(arch)]

		features := newExtractorSeries()
		for _, d := range in.Descriptors {
			if d.Architecture == arch {
				features.add(d.Extractor, d.CommitterDate, d.Features.Float())
			}
		}
		project[schema.FeaturesMetric] = features.snapshots(featuresFormat, years)
		project[schema.SourceLinesMetric] = Snapshot(sourceLines(in.Kconfig, arch), linesFormat, years)

		counts, times := newExtractorSeries(), newExtractorSeries()
		for _, rec := range in.ModelCounts {
			if rec.Architecture != arch {
				continue
			}
			counts.add(rec.Extractor, rec.CommitterDate, rec.UnconstrainedLog10)
			var t *float64
			if rec.TimeNanos != nil {
				t = ptr(float64(*rec.TimeNanos))
			}
			times.add(rec.Extractor, rec.CommitterDate, t)
		}
		project[schema.ModelCountMetric] = counts.snapshots(modelCountFormat, years)
		project[schema.ModelCountTimeMetric] = times.snapshots(solveTimeFormat, years)
	}
	return out
}

// totalFeatures takes the smallest total per (extractor, revision).
func totalFeatures(descriptors []schema.FeatureDescriptor) *extractorSeries {
	type key struct {
		ext schema.Extractor
		rev string
	}
	var order []key
	smallest := make(map[key]*float64)
	dates := make(map[key]time.Time)
	for _, d := range descriptors {
		k := key{ext: d.Extractor, rev: d.Revision}
		cur, seen := smallest[k]
		if !seen {
			order = append(order, k)
			dates[k] = d.CommitterDate
		}
		if v := d.TotalFeatures.Float(); v != nil && (cur == nil || *v < *cur) {
			cur = v
		}
		smallest[k] = cur
	}
	s := newExtractorSeries()
	for _, k := range order {
		s.add(k.ext, dates[k], smallest[k])
	}
	return s
}

// sourceLines returns the source-lines series of an architecture, or of every
// architecture when arch is empty.
func sourceLines(records []schema.KconfigRecord, arch string) Series {
	var obs []Observation
	for _, k := range records {
		if arch == "" || k.Architecture == arch {
			obs = append(obs, Observation{Date: k.CommitterDate, Value: k.SourceLinesOfCode})
		}
	}
	return NewSeries(obs)
}

func totalModelCounts(totals []schema.AggregateTotal) *extractorSeries {
	s := newExtractorSeries()
	for _, t := range totals {
		s.add(t.Extractor, t.CommitterDate, t.Digits.Float())
	}
	return s
}
