package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevisionTotals(t *testing.T) {
	d40 := time.Date(2015, time.April, 12, 0, 0, 0, 0, time.UTC)
	descriptors := []FeatureDescriptor{
		{VariantKey: VariantKey{Extractor: KClause, Revision: "v4.0", Architecture: "x86"}, CommitterDate: d40, TotalFeatures: Measure(5, 2), UnconstrainedBools: Measure(1, 0)},
		{VariantKey: VariantKey{Extractor: KClause, Revision: "v4.0", Architecture: "arm"}, CommitterDate: d40, TotalFeatures: Measure(5, 2)},
		{VariantKey: VariantKey{Extractor: KClause, Revision: "v4.1", Architecture: "x86"}, TotalFeatures: Measure(6, 2), TotalAddedFeatures: Measure(1, 0), UnconstrainedBools: Measure(0, 0)},
		{VariantKey: VariantKey{Extractor: KConfigReader, Revision: "v4.0", Architecture: "x86"}, TotalFeatures: Measure(1, 2)},
	}

	totals := RevisionTotals(descriptors)
	require.Len(t, totals, 3)

	assert.Equal(t, RevisionTotal{
		Extractor: KClause, Revision: "v4.0", CommitterDate: d40,
		Architectures: 2, Classified: 1, TotalFeatures: Measure(5, 2),
	}, totals[0])
	assert.Equal(t, "v4.1", totals[1].Revision)
	assert.Equal(t, 1, totals[1].Classified)
	assert.Equal(t, Measure(1, 0), totals[1].TotalAddedFeatures)
	assert.Equal(t, KConfigReader, totals[2].Extractor)
	assert.Equal(t, Suppressed, totals[2].TotalFeatures.State)

	assert.Empty(t, RevisionTotals(nil))
}

func TestProjectMetricsRows(t *testing.T) {
	snap := func(v string) MetricSnapshot {
		return MetricSnapshot{CurrentValue: SnapshotValue{Value: v}}
	}
	pm := ProjectMetrics{
		"linux/x86": {
			FeaturesMetric:    ExtractorSnapshots{CurrentValue: map[Extractor]MetricSnapshot{KConfigReader: snap("4 features"), KClause: snap("3 features")}},
			SourceLinesMetric: snap("1100 loc"),
		},
		AllProject: {
			SourceLinesMetric: snap("1950 loc"),
		},
	}

	rows := pm.Rows()
	require.Len(t, rows, 4)
	assert.Equal(t, SnapshotRow{Project: AllProject, Metric: SourceLinesMetric, Snapshot: snap("1950 loc")}, rows[0])
	assert.Equal(t, "linux/x86", rows[1].Project)
	assert.Equal(t, FeaturesMetric, rows[1].Metric)
	assert.Equal(t, KClause, rows[1].Extractor)
	assert.Equal(t, KConfigReader, rows[2].Extractor)
	assert.Equal(t, SourceLinesMetric, rows[3].Metric)
	assert.Empty(t, rows[3].Extractor)
}
