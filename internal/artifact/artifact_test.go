package artifact

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/kmetrics/schema"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const root = "out"

// newTestReader builds a reader over an in-memory fs seeded with files.
func newTestReader(t *testing.T, files map[string]string) *Reader {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(root, name), []byte(content), 0o644))
	}
	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return NewReader(fs, root, log)
}

func TestReadStageParsesDatesAndExtractors(t *testing.T) {
	r := newTestReader(t, map[string]string{
		"kconfig/output.csv": "revision,architecture,extractor,committer_date_unix,source_lines_of_code\n" +
			"v4.0,x86,kmax,1428854400,120000\n" +
			"v4.0,arm,kconfigreader,1428854400,\n",
	})

	table, err := r.ReadStage(schema.KconfigStage, "")
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.True(t, table.HasDates)
	assert.Equal(t, "KClause", table.Rows[0].Get("extractor"))
	assert.Equal(t, "KConfigReader", table.Rows[1].Get("extractor"))
	assert.Equal(t, time.Date(2015, 4, 12, 16, 0, 0, 0, time.UTC), table.Rows[0].CommitterDate)

	records, err := r.Kconfig()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, schema.KClause, records[0].Extractor)
	require.NotNil(t, records[0].SourceLinesOfCode)
	assert.InDelta(t, 120000, *records[0].SourceLinesOfCode, 1e-9)
	assert.Nil(t, records[1].SourceLinesOfCode)
}

func TestReadStageMissingFile(t *testing.T) {
	r := newTestReader(t, nil)
	_, err := r.ReadStage(schema.ArchitecturesStage, "")
	assert.Error(t, err)
}

func TestRequireMissingColumn(t *testing.T) {
	r := newTestReader(t, map[string]string{
		"read-linux-architectures/output.csv": "revision,committer_date_unix\nv4.0,0\n",
	})
	_, err := r.Architectures()
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadOptionalTableAbsent(t *testing.T) {
	r := newTestReader(t, nil)
	table, err := r.ReadOptionalTable("model-count-with-6h-timeout.csv")
	require.NoError(t, err)
	assert.Nil(t, table)

	recs, ok, err := r.RerunRecords("model-count-with-6h-timeout.csv", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, recs)
}

func TestConfigsExcludesPaths(t *testing.T) {
	r := newTestReader(t, map[string]string{
		"read-linux-configs/output.csv": "revision,config,kconfig-file\n" +
			"v4.0,SMP,arch/x86/Kconfig\n" +
			"v4.0,HOSTFS,arch/um/Kconfig\n",
		"read-linux-configs/output.types.csv": "revision,config,kconfig-file,type\n" +
			"v4.0,SMP,arch/x86/Kconfig,bool\n" +
			"v4.0,HOSTFS,arch/um/Kconfig,tristate\n",
	})

	configs, err := r.Configs([]string{"/um/"})
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, "SMP", configs[0].Config)

	types, err := r.ConfigTypes([]string{"/um/"})
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, schema.BoolType, types[0].Type)
}

func TestSolveAndRerunRecords(t *testing.T) {
	r := newTestReader(t, map[string]string{
		"solve_model-count/output.csv": "revision,architecture,extractor,backbone.dimacs-analyzer,model-count,backbone.dimacs-analyzer-time,committer_date_unix\n" +
			"v4.0,x86,kmax,d4,123456789012345678901234567890,1500000000,1428854400\n" +
			"v4.0,arm,kmax,d4,,,1428854400\n",
		"model-count-with-6h-timeout.csv": "revision,architecture,extractor,backbone.dimacs-analyzer,model-count,backbone.dimacs-analyzer-time\n" +
			"v4.0,arm,kmax,d4,42,2.5e10\n",
	})

	solve, err := r.SolveRecords()
	require.NoError(t, err)
	require.Len(t, solve, 2)
	assert.Equal(t, "123456789012345678901234567890", solve[0].RawCount)
	require.NotNil(t, solve[0].TimeNanos)
	assert.Equal(t, int64(1500000000), *solve[0].TimeNanos)
	assert.Nil(t, solve[1].TimeNanos)

	date := time.Date(2015, 4, 12, 0, 0, 0, 0, time.UTC)
	rerun, ok, err := r.RerunRecords("model-count-with-6h-timeout.csv", map[string]time.Time{"v4.0": date})
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, rerun, 1)
	assert.Equal(t, date, rerun[0].CommitterDate)
	assert.Equal(t, schema.KClause, rerun[0].Extractor)
	require.NotNil(t, rerun[0].TimeNanos)
	assert.Equal(t, int64(25000000000), *rerun[0].TimeNanos)
}

func TestModelFiles(t *testing.T) {
	key := schema.VariantKey{Extractor: schema.KClause, Revision: "v4.0", Architecture: "x86"}
	r := newTestReader(t, map[string]string{
		"kconfig/kmax/linux/v4.0[x86].features":                          "CONFIG_SMP\nCONFIG_NUMA\n\nPCI\n",
		"backbone-dimacs/kmax/linux/v4.0[x86].backbone.dimacs":           "c 1 SMP\r\nc 2 NUMA\np cnf 2 0\n",
		"backbone-features/kmax/linux/v4.0[x86].backbone.features":       "+SMP\n-NUMA\n",
		"unconstrained-features/kmax/linux/v4.0[x86].unconstrained.features": "CONFIG_PCI\n",
	})

	extracted, ok, err := r.ExtractedFeatures(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]struct{}{"SMP": {}, "NUMA": {}, "PCI": {}}, extracted)

	unconstrained, err := r.UnconstrainedFeatures(key)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"PCI": {}}, unconstrained)

	m, err := r.ReadModel(key)
	require.NoError(t, err)
	assert.True(t, m.HasDIMACS)
	assert.Equal(t, []string{"c 1 SMP", "c 2 NUMA", "p cnf 2 0"}, m.DIMACS)
	assert.True(t, m.HasBackbone)
	assert.Len(t, m.Backbone, 2)

	other := schema.VariantKey{Extractor: schema.KClause, Revision: "v4.0", Architecture: "arm"}
	m, err = r.ReadModel(other)
	require.NoError(t, err)
	assert.False(t, m.HasDIMACS)
	assert.False(t, m.HasBackbone)

	unconstrained, err = r.UnconstrainedFeatures(other)
	require.NoError(t, err)
	assert.Empty(t, unconstrained)
}

func TestDiscoverModels(t *testing.T) {
	r := newTestReader(t, map[string]string{
		"kconfig/kconfigreader/linux/v2.6.10[x86].features": "",
		"kconfig/kconfigreader/linux/v2.6.9[x86].features":  "",
		"kconfig/kconfigreader/linux/v2.6.9[arm].features":  "",
		"kconfig/kconfigreader/linux/v2.6.9[arm].model":     "",
		"kconfig/kmax/linux/v3.0[mips].features":            "",
	})

	revisions, err := r.DiscoverRevisions(schema.KConfigReader)
	require.NoError(t, err)
	assert.Equal(t, []string{"v2.6.10", "v2.6.9"}, revisions)

	archs, err := r.DiscoverArchitectures(schema.KConfigReader, "v2.6.9")
	require.NoError(t, err)
	assert.Equal(t, []string{"arm", "x86"}, archs)

	revisions, err = r.DiscoverRevisions(schema.KClause)
	require.NoError(t, err)
	assert.Equal(t, []string{"v3.0"}, revisions)
}

func TestDiscoverMissingDirectory(t *testing.T) {
	r := newTestReader(t, nil)
	revisions, err := r.DiscoverRevisions(schema.KClause)
	require.NoError(t, err)
	assert.Empty(t, revisions)
}

func TestParseEpoch(t *testing.T) {
	d, err := ParseEpoch("0")
	require.NoError(t, err)
	assert.Equal(t, time.Unix(0, 0).UTC(), d)

	d, err = ParseEpoch("1.5")
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1, 500000000).UTC(), d)

	_, err = ParseEpoch("yesterday")
	assert.Error(t, err)
}

func TestRevisionDates(t *testing.T) {
	d := time.Date(2015, 4, 12, 0, 0, 0, 0, time.UTC)
	dates := RevisionDates([]schema.ArchitectureRecord{
		{Revision: "v4.0", Architecture: "x86", CommitterDate: d},
		{Revision: "v4.0", Architecture: "arm", CommitterDate: d.Add(time.Hour)},
		{Revision: "v4.1", Architecture: "arm"},
	})
	assert.Equal(t, map[string]time.Time{"v4.0": d}, dates)
}
