// Package artifacttest builds pipeline output trees on an in-memory filesystem.
package artifacttest

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/kmetrics/internal/artifact"
	"github.com/huangsam/kmetrics/schema"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// Root is the output directory of every fixture.
const Root = "output-linux"

// Committer dates (Unix seconds) of the fixture revisions.
const (
	DateV314 = 1396137600 // 2014-03-30
	DateV40  = 1428854400 // 2015-04-12 16:00
	DateV41  = 1434844800 // 2015-06-21
)

// Fixture is a pipeline output tree under Root.
type Fixture struct {
	t  testing.TB
	Fs afero.Fs
}

// New creates an empty fixture.
func New(t testing.TB) *Fixture {
	t.Helper()
	return &Fixture{t: t, Fs: afero.NewMemMapFs()}
}

// Write stores a file relative to Root.
func (f *Fixture) Write(name, content string) {
	f.t.Helper()
	require.NoError(f.t, afero.WriteFile(f.Fs, filepath.Join(Root, name), []byte(content), 0o644))
}

// Table stores a CSV file relative to Root.
func (f *Fixture) Table(name string, header string, rows ...string) {
	f.t.Helper()
	f.Write(name, header+"\n"+strings.Join(rows, "\n")+"\n")
}

// Model describes the artifacts of one extracted model.
type Model struct {
	Extracted     []string // written with CONFIG_ prefix
	Variables     []string // DIMACS comment names; nil means no DIMACS file
	Backbone      []string // raw backbone lines
	Unconstrained []string // written with CONFIG_ prefix
}

// Model writes the per-model files of key.
func (f *Fixture) Model(key schema.VariantKey, m Model) {
	f.t.Helper()
	base := fmt.Sprintf("%s/linux/%s[%s]", key.Extractor.Raw(), key.Revision, key.Architecture)
	f.Write(filepath.Join(artifact.FeaturesDir, base+artifact.FeaturesSuffix), prefixed(m.Extracted))
	if m.Variables != nil {
		var b strings.Builder
		for i, v := range m.Variables {
			fmt.Fprintf(&b, "c %d %s\n", i+1, v)
		}
		fmt.Fprintf(&b, "p cnf %d 0\n", len(m.Variables))
		f.Write(filepath.Join(artifact.DIMACSDir, base+artifact.DIMACSSuffix), b.String())
	}
	if m.Backbone != nil {
		f.Write(filepath.Join(artifact.BackboneDir, base+artifact.BackboneSuffix), strings.Join(m.Backbone, "\n")+"\n")
	}
	if m.Unconstrained != nil {
		f.Write(filepath.Join(artifact.UnconstrainedDir, base+artifact.UnconstrainedSuffix), prefixed(m.Unconstrained))
	}
}

// Reader returns a reader over the fixture with a discarding logger.
func (f *Fixture) Reader() *artifact.Reader {
	return artifact.NewReader(f.Fs, Root, Logger())
}

// Logger returns a logger that discards output.
func Logger() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}

func prefixed(names []string) string {
	var b strings.Builder
	for _, n := range names {
		b.WriteString("CONFIG_" + n + "\n")
	}
	return b.String()
}

// Key is shorthand for a variant key.
func Key(e schema.Extractor, rev, arch string) schema.VariantKey {
	return schema.VariantKey{Extractor: e, Revision: rev, Architecture: arch}
}

// Linux builds a small three-revision tree with both extractors:
//
//	v3.14 x86 only; v4.0 and v4.1 x86 and arm.
//	KClause failed to extract v4.0[arm] (no DIMACS, one extracted feature).
//	Solve counts are complete except KClause v4.0[arm], which timed out.
func Linux(t testing.TB) *Fixture {
	t.Helper()
	f := New(t)

	f.Table("read-linux-architectures/output.csv", "revision,architecture,committer_date_unix",
		fmt.Sprintf("v3.14,x86,%d", DateV314),
		fmt.Sprintf("v4.0,x86,%d", DateV40),
		fmt.Sprintf("v4.0,arm,%d", DateV40),
		fmt.Sprintf("v4.1,x86,%d", DateV41),
		fmt.Sprintf("v4.1,arm,%d", DateV41),
	)

	f.Table("read-linux-configs/output.csv", "revision,config,kconfig-file",
		"v3.14,A,arch/x86/Kconfig",
		"v3.14,B,init/Kconfig",
		"v4.0,A,arch/x86/Kconfig",
		"v4.0,B,init/Kconfig",
		"v4.0,C,init/Kconfig",
		"v4.0,U1,init/Kconfig",
		"v4.0,U2,drivers/Kconfig",
		"v4.0,T,Documentation/Kconfig",
		"v4.0,R,arch/arm/Kconfig",
		"v4.0,H,arch/um/Kconfig",
		"v4.1,A,arch/x86/Kconfig",
		"v4.1,B,init/Kconfig",
		"v4.1,C,init/Kconfig",
		"v4.1,D,init/Kconfig",
		"v4.1,U1,init/Kconfig",
		"v4.1,U2,drivers/Kconfig",
	)
	f.Table("read-linux-configs/output.types.csv", "revision,config,kconfig-file,type",
		"v3.14,A,arch/x86/Kconfig,bool",
		"v3.14,B,init/Kconfig,bool",
		"v4.0,A,arch/x86/Kconfig,bool",
		"v4.0,B,init/Kconfig,bool",
		"v4.0,C,init/Kconfig,tristate",
		"v4.0,U1,init/Kconfig,bool",
		"v4.0,U2,drivers/Kconfig,tristate",
		"v4.0,T,Documentation/Kconfig,bool",
		"v4.0,R,arch/arm/Kconfig,bool",
		"v4.0,H,arch/um/Kconfig,bool",
		"v4.1,A,arch/x86/Kconfig,bool",
		"v4.1,B,init/Kconfig,bool",
		"v4.1,C,init/Kconfig,tristate",
		"v4.1,D,init/Kconfig,bool",
		"v4.1,U1,init/Kconfig,bool",
		"v4.1,U2,drivers/Kconfig,tristate",
	)

	var kconfigRows []string
	for _, e := range []string{"kconfigreader", "kmax"} {
		kconfigRows = append(kconfigRows,
			fmt.Sprintf("v3.14,x86,%s,%d,2014-03-30 00:00:00,900", e, DateV314),
			fmt.Sprintf("v4.0,x86,%s,%d,2015-04-12 16:00:00,1000", e, DateV40),
			fmt.Sprintf("v4.0,arm,%s,%d,2015-04-12 16:00:00,800", e, DateV40),
			fmt.Sprintf("v4.1,x86,%s,%d,2015-06-21 00:00:00,1100", e, DateV41),
			fmt.Sprintf("v4.1,arm,%s,%d,2015-06-21 00:00:00,850", e, DateV41),
		)
	}
	f.Table("kconfig/output.csv", "revision,architecture,extractor,committer_date_unix,committer_date_readable,source_lines_of_code", kconfigRows...)

	kcr := schema.KConfigReader
	f.Model(Key(kcr, "v3.14", "x86"), Model{Extracted: []string{"A", "B"}, Variables: []string{"A", "B"}})
	f.Model(Key(kcr, "v4.0", "x86"), Model{
		Extracted:     []string{"A", "B", "C", "U1"},
		Variables:     []string{"A", "B", "C"},
		Unconstrained: []string{"U1"},
	})
	f.Model(Key(kcr, "v4.0", "arm"), Model{
		Extracted:     []string{"B", "C", "U2"},
		Variables:     []string{"B", "C"},
		Backbone:      []string{"+B", "-C"},
		Unconstrained: []string{"U2"},
	})
	f.Model(Key(kcr, "v4.1", "x86"), Model{
		Extracted:     []string{"A", "B", "C", "D", "U1"},
		Variables:     []string{"A", "B", "C", "D"},
		Unconstrained: []string{"U1"},
	})
	f.Model(Key(kcr, "v4.1", "arm"), Model{
		Extracted:     []string{"B", "C", "U2"},
		Variables:     []string{"B", "C"},
		Unconstrained: []string{"U2"},
	})

	kc := schema.KClause
	f.Model(Key(kc, "v3.14", "x86"), Model{Extracted: []string{"A", "B"}, Variables: []string{"A", "B"}})
	f.Model(Key(kc, "v4.0", "x86"), Model{
		Extracted:     []string{"A", "B", "U1"},
		Variables:     []string{"A", "B", "k!1"},
		Unconstrained: []string{"U1"},
	})
	f.Model(Key(kc, "v4.0", "arm"), Model{Extracted: []string{"B"}})
	f.Model(Key(kc, "v4.1", "x86"), Model{
		Extracted: []string{"A", "B", "C", "D"},
		Variables: []string{"A", "B", "C", "D", "E"},
	})
	f.Model(Key(kc, "v4.1", "arm"), Model{Extracted: []string{"B", "C"}, Variables: []string{"B", "C"}})

	f.Table("solve_model-count/output.csv",
		"revision,architecture,extractor,backbone.dimacs-analyzer,model-count,backbone.dimacs-analyzer-time,committer_date_unix",
		fmt.Sprintf("v3.14,x86,kconfigreader,sharpsat,3,1000000000,%d", DateV314),
		fmt.Sprintf("v4.0,x86,kconfigreader,sharpsat,4,2000000000,%d", DateV40),
		fmt.Sprintf("v4.0,arm,kconfigreader,sharpsat,2,3000000000,%d", DateV40),
		fmt.Sprintf("v4.1,x86,kconfigreader,sharpsat,6,4000000000,%d", DateV41),
		fmt.Sprintf("v4.1,arm,kconfigreader,sharpsat,3,5000000000,%d", DateV41),
		fmt.Sprintf("v3.14,x86,kmax,sharpsat,3,1000000000,%d", DateV314),
		fmt.Sprintf("v4.0,x86,kmax,sharpsat,3,2000000000,%d", DateV40),
		fmt.Sprintf("v4.0,arm,kmax,sharpsat,,,%d", DateV40),
		fmt.Sprintf("v4.1,x86,kmax,sharpsat,1,,%d", DateV41),
		fmt.Sprintf("v4.1,x86,kmax,d4,9,7000000000,%d", DateV41),
		fmt.Sprintf("v4.1,arm,kmax,sharpsat,3,6000000000,%d", DateV41),
	)
	return f
}

// WithRerun adds an extended-timeout table that recovers KClause v4.0[arm].
func (f *Fixture) WithRerun() *Fixture {
	f.Table("model-count-with-6h-timeout.csv",
		"revision,architecture,extractor,backbone.dimacs-analyzer,model-count,backbone.dimacs-analyzer-time",
		"v4.0,arm,kmax,sharpsat,5,20000000000",
	)
	return f
}
