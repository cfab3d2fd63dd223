package normalize

import (
	"math"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/kmetrics/internal/artifact"
	"github.com/huangsam/kmetrics/internal/artifact/artifacttest"
	"github.com/huangsam/kmetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawCount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"blank", "", "", false},
		{"spaces", "  ", "", false},
		{"failure sentinel", "1", "", false},
		{"small", "48", "48", false},
		{"huge", "1" + strings.Repeat("0", 400), "1" + strings.Repeat("0", 400), false},
		{"float", "4.5", "", true},
		{"negative", "-3", "", true},
		{"garbage", "timeout", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRawCount(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCount)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestUnconstrainedExample(t *testing.T) {
	got := Unconstrained(big.NewInt(4), 2, 1)
	assert.Equal(t, "48", got.String())
	assert.Equal(t, schema.Measure(2, 0), DigitLength(got))

	ratio, ratioLog10 := Similarity(2, 1)
	assert.InDelta(t, 4.0/48.0, ratio, 1e-15)
	assert.InDelta(t, math.Log10(1.0/12.0), ratioLog10, 1e-12)

	assert.Nil(t, Unconstrained(nil, 2, 1))
}

func TestUnconstrainedMatchesFormula(t *testing.T) {
	for _, raw := range []int64{2, 7, 1000003} {
		for b := 0; b < 5; b++ {
			for tri := 0; tri < 5; tri++ {
				want := big.NewInt(raw)
				for range b {
					want.Mul(want, big.NewInt(2))
				}
				for range tri {
					want.Mul(want, big.NewInt(3))
				}
				got := Unconstrained(big.NewInt(raw), b, tri)
				require.Equal(t, 0, want.Cmp(got))

				ratio, _ := Similarity(b, tri)
				assert.Greater(t, ratio, 0.0)
				assert.LessOrEqual(t, ratio, 1.0)
				exact, _ := new(big.Rat).SetFrac(big.NewInt(raw), got).Float64()
				assert.InDelta(t, exact, ratio, 1e-15)
			}
		}
	}
}

func TestLog10(t *testing.T) {
	assert.Nil(t, Log10(nil))
	assert.Nil(t, Log10(big.NewInt(0)))
	assert.Nil(t, Log10(big.NewInt(1)))
	assert.InDelta(t, 2.0, *Log10(big.NewInt(100)), 1e-12)

	// Beyond float64 range
	huge, _ := new(big.Int).SetString("3"+strings.Repeat("0", 999), 10)
	assert.InDelta(t, 999+math.Log10(3), *Log10(huge), 1e-9)
	assert.Equal(t, schema.Measure(1000, 0), DigitLength(huge))
	assert.Equal(t, schema.NotComputed, DigitLength(big.NewInt(0)).State)
}

func TestSimilarityLog10WhenRatioUnderflows(t *testing.T) {
	ratio, ratioLog10 := Similarity(2000, 1000)
	assert.Equal(t, 0.0, ratio)
	assert.InDelta(t, -(2000*math.Log10(2) + 1000*math.Log10(3)), ratioLog10, 1e-9)
	assert.False(t, math.IsInf(ratioLog10, 0))
}

func descriptor(e schema.Extractor, rev, arch string, bools, tristates schema.Count) schema.FeatureDescriptor {
	return schema.FeatureDescriptor{
		VariantKey:             artifacttest.Key(e, rev, arch),
		UnconstrainedBools:     bools,
		UnconstrainedTristates: tristates,
	}
}

func solve(e schema.Extractor, rev, arch, backend, raw string, date time.Time) schema.SolveRecord {
	return schema.SolveRecord{
		VariantKey:    artifacttest.Key(e, rev, arch),
		Backend:       backend,
		RawCount:      raw,
		CommitterDate: date,
	}
}

func TestNormalizeMissingPropagation(t *testing.T) {
	date := time.Unix(artifacttest.DateV40, 0).UTC()
	m := schema.Measure
	descriptors := []schema.FeatureDescriptor{
		descriptor(schema.KClause, "v4.0", "x86", m(2, 0), m(1, 0)),
		descriptor(schema.KClause, "v4.0", "arm", m(2, 0), m(1, 0)),
		descriptor(schema.KClause, "v4.0", "mips", schema.Missing(), schema.Missing()),
	}
	records := Normalize([]schema.SolveRecord{
		solve(schema.KClause, "v4.0", "x86", "sharpsat", "4", date),
		solve(schema.KClause, "v4.0", "arm", "sharpsat", "", date),
		solve(schema.KClause, "v4.0", "arm", "d4", "1", date),
		solve(schema.KClause, "v4.0", "mips", "sharpsat", "7", date),
		solve(schema.KClause, "v4.0", "sparc", "sharpsat", "7", date),
		solve(schema.KClause, "v4.0", "s390", "sharpsat", "oops", date),
	}, descriptors, artifacttest.Logger())
	require.Len(t, records, 6)

	ok := records[0]
	assert.Equal(t, "48", ok.Unconstrained.String())
	assert.Equal(t, schema.Measure(2, 0), ok.Digits)
	require.NotNil(t, ok.Similarity)
	assert.InDelta(t, 1.0/12.0, *ok.Similarity, 1e-15)
	require.NotNil(t, ok.UnconstrainedLog10)
	assert.InDelta(t, math.Log10(48), *ok.UnconstrainedLog10, 1e-12)
	assert.InDelta(t, math.Log10(4), *ok.RawLog10, 1e-12)
	assert.Equal(t, date, ok.CommitterDate)

	for _, rec := range records[1:] {
		assert.Nil(t, rec.Unconstrained, rec.Architecture)
		assert.Nil(t, rec.UnconstrainedLog10, rec.Architecture)
		assert.Nil(t, rec.Similarity, rec.Architecture)
		assert.Nil(t, rec.SimilarityLog10, rec.Architecture)
		assert.False(t, rec.Digits.IsMeasured(), rec.Architecture)
		assert.False(t, rec.HasLog10(), rec.Architecture)
	}
	// A raw count without type counts keeps its raw log10
	assert.NotNil(t, records[3].RawLog10)
}

func TestSupersede(t *testing.T) {
	date := time.Unix(artifacttest.DateV40, 0).UTC()
	primary := []schema.SolveRecord{
		solve(schema.KClause, "v4.0", "x86", "sharpsat", "3", date),
		solve(schema.KClause, "v4.0", "arm", "sharpsat", "", date),
		solve(schema.KClause, "v4.0", "arm", "d4", "", date),
		solve(schema.KConfigReader, "v4.0", "arm", "sharpsat", "2", date),
	}
	rerun := []schema.SolveRecord{
		solve(schema.KClause, "v4.0", "arm", "sharpsat", "5", time.Time{}),
	}
	got := Supersede(primary, rerun)
	require.Len(t, got, 4)
	assert.Equal(t, primary[0], got[0])
	assert.Equal(t, primary[2], got[1])
	assert.Equal(t, primary[3], got[2])
	assert.Equal(t, "5", got[3].RawCount)

	assert.Equal(t, primary, Supersede(primary, nil))
}

func TestCapYear(t *testing.T) {
	records := []schema.ModelCountRecord{
		{CommitterDate: time.Date(2012, 5, 1, 0, 0, 0, 0, time.UTC)},
		{CommitterDate: time.Date(2013, 12, 31, 0, 0, 0, 0, time.UTC)},
		{CommitterDate: time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	assert.Len(t, CapYear(records, 2013), 2)
	assert.Len(t, CapYear(records, 0), 3)
}

func modelCount(e schema.Extractor, rev, arch string, date time.Time, unconstrained string) schema.ModelCountRecord {
	rec := schema.ModelCountRecord{VariantKey: artifacttest.Key(e, rev, arch), CommitterDate: date}
	if unconstrained != "" {
		n, ok := new(big.Int).SetString(unconstrained, 10)
		if !ok {
			panic(unconstrained)
		}
		rec.Unconstrained = n
		rec.UnconstrainedLog10 = Log10(n)
	}
	return rec
}

func TestFailuresAndBoundAggregation(t *testing.T) {
	d40 := time.Unix(artifacttest.DateV40, 0).UTC()
	d41 := time.Unix(artifacttest.DateV41, 0).UTC()
	records := []schema.ModelCountRecord{
		modelCount(schema.KClause, "v4.0", "x86", d40, "60"),
		modelCount(schema.KClause, "v4.0", "arm", d40, ""),
		modelCount(schema.KClause, "v4.1", "x86", d41, "50"),
		modelCount(schema.KClause, "v4.1", "x86", d41, ""),
		modelCount(schema.KClause, "v4.1", "x86", d41, "70"),
		modelCount(schema.KClause, "v4.1", "arm", d41, "40"),
		modelCount(schema.KConfigReader, "v4.0", "x86", d40, ""),
	}

	failures := Failures(records)
	assert.Equal(t, []schema.RevisionFailures{
		{Extractor: schema.KClause, Revision: "v4.0", Attempted: 2, Failures: 1, IsUpperBound: false},
		{Extractor: schema.KClause, Revision: "v4.1", Attempted: 2, Failures: 0, IsUpperBound: true},
		{Extractor: schema.KConfigReader, Revision: "v4.0", Attempted: 1, Failures: 1, IsUpperBound: false},
	}, failures)

	totals := Totals(records, failures)
	require.Len(t, totals, 3)

	// KConfigReader sorts first; its only model failed
	assert.Equal(t, schema.KConfigReader, totals[0].Extractor)
	assert.False(t, totals[0].Digits.IsMeasured())
	assert.False(t, totals[0].IsUpperBound)

	assert.Equal(t, "v4.0", totals[1].Revision)
	assert.Equal(t, schema.Measure(2, 0), totals[1].Digits)
	assert.False(t, totals[1].IsUpperBound)
	assert.Equal(t, 1, totals[1].Failures)

	// 70 (largest x86 backend) + 40 = 110
	assert.Equal(t, "v4.1", totals[2].Revision)
	assert.Equal(t, schema.Measure(3, 0), totals[2].Digits)
	assert.True(t, totals[2].IsUpperBound)
	assert.Equal(t, 0, totals[2].Failures)
}

func TestTotalsCombineRevisionsSharingADate(t *testing.T) {
	date := time.Unix(artifacttest.DateV40, 0).UTC()
	records := []schema.ModelCountRecord{
		modelCount(schema.KClause, "v4.0", "x86", date, "5"),
		modelCount(schema.KClause, "v4.0-dup", "x86", date, ""),
	}
	failures := Failures(records)
	totals := Totals(records, failures)
	require.Len(t, totals, 1)
	assert.False(t, totals[0].IsUpperBound)
	assert.Equal(t, 0, totals[0].Failures)
	assert.Equal(t, schema.Measure(1, 0), totals[0].Digits)
}

func TestTotalsSkipUndatedRecords(t *testing.T) {
	date := time.Unix(artifacttest.DateV40, 0).UTC()
	records := []schema.ModelCountRecord{
		modelCount(schema.KClause, "v4.0", "x86", date, "5"),
		modelCount(schema.KClause, "v9.9", "x86", time.Time{}, "7"),
		modelCount(schema.KClause, "v9.8", "arm", time.Time{}, "3"),
	}
	totals := Totals(records, Failures(records))
	require.Len(t, totals, 1)
	assert.Equal(t, "v4.0", totals[0].Revision)
	for _, total := range totals {
		assert.False(t, total.CommitterDate.IsZero())
	}
}

func TestComputeFixture(t *testing.T) {
	f := artifacttest.Linux(t).WithRerun()
	r := f.Reader()
	primary, err := r.SolveRecords()
	require.NoError(t, err)
	archs, err := r.Architectures()
	require.NoError(t, err)
	rerun, ok, err := r.RerunRecords("model-count-with-6h-timeout.csv", artifact.RevisionDates(archs))
	require.NoError(t, err)
	require.True(t, ok)

	m := schema.Measure
	descriptors := []schema.FeatureDescriptor{
		descriptor(schema.KClause, "v4.0", "x86", m(1, 0), m(0, 0)),
		descriptor(schema.KClause, "v4.0", "arm", m(0, 0), m(0, 0)),
		descriptor(schema.KClause, "v4.1", "x86", m(0, 0), m(0, 0)),
	}
	res := Compute(primary, rerun, descriptors, 0, artifacttest.Logger())
	require.Len(t, res.Records, len(primary))

	var recovered *schema.ModelCountRecord
	for i := range res.Records {
		rec := &res.Records[i]
		if rec.Extractor == schema.KClause && rec.Revision == "v4.0" && rec.Architecture == "arm" {
			require.Nil(t, recovered, "superseded record survived")
			recovered = rec
		}
	}
	require.NotNil(t, recovered)
	assert.Equal(t, "5", recovered.Unconstrained.String())
	assert.Equal(t, int64(artifacttest.DateV40), recovered.CommitterDate.Unix())

	var v40 schema.RevisionFailures
	for _, fl := range res.Failures {
		if fl.Extractor == schema.KClause && fl.Revision == "v4.0" {
			v40 = fl
		}
	}
	assert.Equal(t, 2, v40.Attempted)
	assert.Equal(t, 0, v40.Failures)
	assert.True(t, v40.IsUpperBound)
}
