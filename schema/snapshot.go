package schema

import (
	"cmp"
	"slices"
)

// SnapshotValue is one rendered metric value with its provenance date.
type SnapshotValue struct {
	Value string `json:"value"`
	Date  string `json:"date"`
}

// MetricSnapshot is the latest value of a metric plus values from earlier years.
type MetricSnapshot struct {
	CurrentValue SnapshotValue            `json:"currentValue"`
	History      map[string]SnapshotValue `json:"history"`
}

// ExtractorSnapshots holds one snapshot per extractor, as nested by the dashboard.
type ExtractorSnapshots struct {
	CurrentValue map[Extractor]MetricSnapshot `json:"currentValue"`
}

// ProjectMetrics maps project -> metric -> rendered document fragment.
// Fragments are either MetricSnapshot or ExtractorSnapshots.
type ProjectMetrics map[string]map[MetricName]any

// SnapshotRow is one rendered snapshot of a project metric. Extractor is empty
// for metrics that are not differentiated by extractor.
type SnapshotRow struct {
	Project   string         `json:"project"`
	Metric    MetricName     `json:"metric"`
	Extractor Extractor      `json:"extractor,omitempty"`
	Snapshot  MetricSnapshot `json:"snapshot"`
}

// Rows flattens the metrics into rows ordered by project, metric and extractor.
func (pm ProjectMetrics) Rows() []SnapshotRow {
	var out []SnapshotRow
	for project, metrics := range pm {
		for name, fragment := range metrics {
			switch v := fragment.(type) {
			case MetricSnapshot:
				out = append(out, SnapshotRow{Project: project, Metric: name, Snapshot: v})
			case ExtractorSnapshots:
				for ext, snap := range v.CurrentValue {
					out = append(out, SnapshotRow{Project: project, Metric: name, Extractor: ext, Snapshot: snap})
				}
			}
		}
	}
	slices.SortFunc(out, func(a, b SnapshotRow) int {
		return cmp.Or(
			cmp.Compare(a.Project, b.Project),
			cmp.Compare(a.Metric, b.Metric),
			cmp.Compare(a.Extractor, b.Extractor),
		)
	})
	return out
}
