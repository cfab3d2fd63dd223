package classify

import (
	"strconv"
	"testing"

	"github.com/huangsam/kmetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = schema.VariantKey{Extractor: schema.KClause, Revision: "v4.0", Architecture: "x86"}

func dimacs(names ...string) []string {
	lines := make([]string, 0, len(names)+1)
	for i, n := range names {
		lines = append(lines, "c "+strconv.Itoa(i+1)+" "+n)
	}
	return append(lines, "p cnf 0 0")
}

func TestParseDIMACSComments(t *testing.T) {
	vm := ParseDIMACSComments([]string{
		"c 1 SMP",
		"c 2 k!choice",
		"c 3 True",
		"c 4 __VISIBILITY__CONFIG_SMP",
		"c 5 USB_MODULE",
		"c 6 <unsupported>",
		"c 7 PREDICATE_Compare",
		"c 8 NUMA",
		"c x BAD",
		"c 9 has space",
		"1 -2 0",
	})
	assert.Len(t, vm.All, 8)
	assert.Len(t, vm.Variable, 7)
	assert.Equal(t, map[int]string{1: "SMP", 8: "NUMA"}, vm.Feature)
}

func TestVariablesOfCollapsesSingleton(t *testing.T) {
	assert.Empty(t, variablesOf(map[int]string{1: "True"}))
	assert.Empty(t, variablesOf(map[int]string{1: "A", 2: "A"}))
	assert.Len(t, variablesOf(map[int]string{1: "A", 2: "B"}), 2)
}

func TestBackboneRequiresMoreThanOneLine(t *testing.T) {
	fv := NewSet("A", "B", "C")
	core, dead := backbone([]string{"+A"}, fv)
	assert.Empty(t, core)
	assert.Empty(t, dead)

	core, dead = backbone([]string{"+A", "-B", "+Z"}, fv)
	assert.Equal(t, NewSet("A"), core)
	assert.Equal(t, NewSet("B"), dead)
}

func TestJaccard(t *testing.T) {
	assert.InDelta(t, 0.5, Jaccard(NewSet("A", "B", "C"), NewSet("B", "C", "D")), 1e-12)
	assert.InDelta(t, 1.0/3.0, Jaccard(NewSet("A", "B"), NewSet("B", "C")), 1e-12)
	assert.Equal(t, 0.0, Jaccard(NewSet(), NewSet()))
}

func fullInput() Input {
	types := TypeIndex{}
	types.Add("U1", schema.BoolType)
	types.Add("U2", schema.TristateType)
	types.Add("U3", schema.BoolType)
	types.Add("U3", schema.BoolType)
	return Input{
		Key:            testKey,
		ConfigFeatures: NewSet("A", "B", "C", "D", "U1", "U2", "U3", "X"),
		ConfigTypes:    types,
		Extracted:      NewSet("A", "B", "C", "X"),
		Unconstrained:  NewSet("U1", "U2", "U3", "CHOICE__CONFIG_1"),
		Model: Model{
			HasDIMACS: true,
			DIMACS:    dimacs("A", "B", "C", "D", "E", "k!1", "True", "D_MODULE"),
			Backbone:  []string{"+A", "-D", "+E"},
		},
		MinFeatureCount: 2,
	}
}

func TestClassifyFullModel(t *testing.T) {
	res := Classify(fullInput())
	d := res.Descriptor
	assert.True(t, res.Classified)

	// feature variables {A,B,C,D,E}; core {A,E}; dead {D}
	assert.Equal(t, NewSet("A", "B", "C", "U1", "U2", "U3"), res.Features)
	assert.Equal(t, schema.Measure(8, 2), d.AllVariables)
	assert.Equal(t, schema.Measure(7, 2), d.Variables)
	assert.Equal(t, schema.Measure(5, 2), d.FeatureVariables)
	assert.Equal(t, schema.Measure(2, 1), d.CoreFeatureVariables)
	assert.Equal(t, schema.Measure(1, 1), d.DeadFeatureVariables)
	assert.Equal(t, schema.Measure(4, 2), d.UndeadFeatureVariables)
	assert.Equal(t, schema.Measure(2, 2), d.ConstrainedFeatureVariables)
	assert.Equal(t, schema.Measure(8, 2), d.AllFeatureVariables)
	assert.Equal(t, schema.Measure(9, 2), d.CombinedFeatureVariables)
	assert.Equal(t, schema.Measure(1, 1), d.CoreFeatures)
	assert.Equal(t, schema.Measure(3, 1), d.UnconstrainedFeatures)
	assert.Equal(t, schema.Measure(2, 2), d.ConstrainedFeatures)
	assert.Equal(t, schema.Measure(2, 0), d.UnconstrainedBools)
	assert.Equal(t, schema.Measure(1, 0), d.UnconstrainedTristates)

	require.NotNil(t, d.FeaturesJaccard)
	assert.Equal(t, 1.0, *d.FeaturesJaccard)
	require.NotNil(t, d.ExtractedFeaturesJaccard)
	assert.InDelta(t, 3.0/7.0, *d.ExtractedFeaturesJaccard, 1e-12)

	// First sighting of the architecture
	assert.Equal(t, schema.NotComputed, d.AddedFeatures.State)
	assert.Equal(t, schema.NotComputed, d.RemovedFeatures.State)

	assert.Equal(t, NewSet("E"), res.GrepMissCandidates)
	assert.Len(t, res.FeatureVariablesAll, 9)
}

func TestClassifyPartitionInvariant(t *testing.T) {
	in := fullInput()
	res := Classify(in)
	vm := ParseDIMACSComments(in.Model.DIMACS)
	core, dead := backbone(in.Model.Backbone, variablesOf(vm.Feature))
	assert.Empty(t, Intersect(core, dead))

	constrained := Difference(Difference(res.Features, Intersect(res.Features, core)), Intersect(res.Features, in.Unconstrained))
	n, ok := res.Descriptor.ConstrainedFeatures.Value()
	require.True(t, ok)
	assert.Equal(t, len(constrained), n)
}

func TestClassifyAddedRemoved(t *testing.T) {
	in := fullInput()
	in.Previous = NewSet("A", "B", "Z")
	d := Classify(in).Descriptor
	assert.Equal(t, schema.Measure(4, 0), d.AddedFeatures)
	assert.Equal(t, schema.Measure(1, 0), d.RemovedFeatures)

	in.Previous = NewSet()
	d = Classify(in).Descriptor
	assert.Equal(t, schema.NotComputed, d.AddedFeatures.State)
}

func TestClassifyMissingDIMACS(t *testing.T) {
	in := fullInput()
	in.Model = Model{}
	res := Classify(in)
	d := res.Descriptor

	assert.False(t, res.Classified)
	assert.Empty(t, res.Features)
	assert.Nil(t, d.ExtractedFeaturesJaccard)
	assert.Nil(t, d.FeaturesJaccard)
	assert.Equal(t, schema.NotComputed, d.UnconstrainedBools.State)
	assert.Equal(t, schema.Suppressed, d.Features.State)
	assert.Equal(t, schema.Suppressed, d.FeatureVariables.State)
	assert.True(t, d.ExtractedFeatures.IsMeasured())
	assert.True(t, d.UnconstrainedFeatureVariables.IsMeasured())
	assert.Empty(t, res.GrepMissCandidates)
}

func TestClassifyDegenerateModel(t *testing.T) {
	in := fullInput()
	in.Model = Model{HasDIMACS: true, DIMACS: dimacs("True", "A")}
	res := Classify(in)
	assert.Equal(t, schema.Suppressed, res.Descriptor.FeatureVariables.State)
	assert.Nil(t, res.Descriptor.FeaturesJaccard)
	assert.Equal(t, schema.Measure(2, 2), res.Descriptor.AllVariables)
}

func TestClassifyThresholdConfigurable(t *testing.T) {
	in := fullInput()
	in.MinFeatureCount = 7
	d := Classify(in).Descriptor
	assert.Equal(t, schema.Suppressed, d.Features.State)
	assert.Equal(t, 6, d.Features.N)
	assert.True(t, d.ConfigFeatures.IsMeasured())
}
