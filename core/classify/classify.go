// Package classify partitions the variables of one extracted model into features,
// core, dead, constrained and unconstrained buckets and scores them against the
// declared config symbols.
package classify

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/kmetrics/schema"
)

// Thresholds below which a count is reported as suppressed.
// The default threshold applies to every other count and is configurable.
const (
	DefaultMinimum = 2
	SparseMinimum  = 1 // core, dead, unconstrained buckets
	DeltaMinimum   = 0 // added and removed features
)

// syntheticMarker is part of every variable introduced by the KClause encoding.
const syntheticMarker = "k!"

// visibilityPrefix marks visibility-wrapper variables.
const visibilityPrefix = "__VISIBILITY__CONFIG_"

// moduleSuffix marks the module half of a tristate.
const moduleSuffix = "_MODULE"

// grepMissExclusion marks choice and other encoding artifacts in KClause names.
const grepMissExclusion = "__CONFIG_"

var nonFeatureNames = map[string]struct{}{
	"True":              {},
	"<unsupported>":     {},
	"PREDICATE_Compare": {},
}

var commentPattern = regexp.MustCompile(`^c ([^ ]+) ([^ ]+)$`)

// TypeIndex maps a config symbol to the types it is declared with at one revision.
type TypeIndex map[string]map[schema.ConfigType]struct{}

// Add records a declaration.
func (t TypeIndex) Add(config string, typ schema.ConfigType) {
	if t[config] == nil {
		t[config] = make(map[schema.ConfigType]struct{})
	}
	t[config][typ] = struct{}{}
}

// countOfType counts the distinct configs of s declared with typ.
func (t TypeIndex) countOfType(s Set, typ schema.ConfigType) int {
	n := 0
	for name := range s {
		if _, ok := t[name][typ]; ok {
			n++
		}
	}
	return n
}

// Model holds the lines of a DIMACS file and its backbone file.
type Model struct {
	DIMACS    []string
	HasDIMACS bool
	Backbone  []string
}

// Input is everything the classifier needs for one (extractor, revision, architecture).
type Input struct {
	Key           schema.VariantKey
	CommitterDate time.Time

	ConfigFeatures Set       // declared configs of the revision
	ConfigTypes    TypeIndex // declared types of the revision
	Extracted      Set       // grep-derived features, CONFIG_ stripped
	Unconstrained  Set       // unconstrained feature variables, CONFIG_ stripped
	Model          Model

	// Previous is the architecture's features at the previous revision, nil on first sighting.
	Previous Set

	MinFeatureCount int
}

// Result is the classification of one model.
type Result struct {
	Descriptor schema.FeatureDescriptor
	// Classified is false when the model yielded no feature variables.
	Classified bool
	// FeatureVariablesAll is feature_variables ∪ unconstrained.
	FeatureVariablesAll Set
	Features            Set
	// GrepMissCandidates are feature variables not declared as configs.
	GrepMissCandidates Set
}

// VariableMaps are the index-to-name maps parsed from DIMACS comments.
type VariableMaps struct {
	All      map[int]string
	Variable map[int]string
	Feature  map[int]string
}

// ParseDIMACSComments parses `c <index> <name>` lines into three nested maps:
// every variable, variables without synthetic encoding names, and feature variables.
func ParseDIMACSComments(lines []string) VariableMaps {
	vm := VariableMaps{
		All:      make(map[int]string),
		Variable: make(map[int]string),
		Feature:  make(map[int]string),
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "c ") {
			continue
		}
		m := commentPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(strings.TrimSpace(m[1]))
		if err != nil {
			continue
		}
		name := strings.TrimSpace(m[2])
		vm.All[index] = name
		if strings.Contains(name, syntheticMarker) {
			continue
		}
		vm.Variable[index] = name
		if isFeatureVariable(name) {
			vm.Feature[index] = name
		}
	}
	return vm
}

func isFeatureVariable(name string) bool {
	if _, ok := nonFeatureNames[name]; ok {
		return false
	}
	return !strings.HasPrefix(name, visibilityPrefix) && !strings.HasSuffix(name, moduleSuffix)
}

// variablesOf returns the distinct names of a map. A map naming at most one
// variable is treated as empty.
func variablesOf(m map[int]string) Set {
	s := make(Set, len(m))
	for _, name := range m {
		s[name] = struct{}{}
	}
	if len(s) <= 1 {
		return Set{}
	}
	return s
}

// backbone splits a backbone file into core (+) and dead (-) names.
// Files with at most one line are not trusted and yield empty sets.
func backbone(lines []string, featureVariables Set) (core, dead Set) {
	core, dead = Set{}, Set{}
	if len(lines) <= 1 {
		return core, dead
	}
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "+"):
			core[strings.TrimSpace(line[1:])] = struct{}{}
		case strings.HasPrefix(line, "-"):
			dead[strings.TrimSpace(line[1:])] = struct{}{}
		}
	}
	return Intersect(core, featureVariables), Intersect(dead, featureVariables)
}

// Classify computes the descriptor of one model. Missing artifacts never fail;
// they leave the affected counts and ratios not computed.
func Classify(in Input) Result {
	minimum := in.MinFeatureCount
	if minimum < 1 {
		minimum = DefaultMinimum
	}

	// 1. Variable universe from the DIMACS comments
	allVariables, variables, featureVariables := Set{}, Set{}, Set{}
	core, dead := Set{}, Set{}
	if in.Model.HasDIMACS {
		vm := ParseDIMACSComments(in.Model.DIMACS)
		allVariables = variablesOf(vm.All)
		variables = variablesOf(vm.Variable)
		featureVariables = variablesOf(vm.Feature)
		core, dead = backbone(in.Model.Backbone, featureVariables)
	}

	unconstrained := in.Unconstrained
	if unconstrained == nil {
		unconstrained = Set{}
	}

	d := schema.FeatureDescriptor{
		VariantKey:    in.Key,
		CommitterDate: in.CommitterDate,
	}

	// 2. Reconcile against the declared configs when the model has feature variables
	undead, allFeatureVariables, features := Set{}, Set{}, Set{}
	coreFeatures, unconstrainedFeatures, constrainedFeatures := Set{}, Set{}, Set{}
	var added, removed Set
	classified := len(featureVariables) > 0
	if classified {
		undead = Difference(featureVariables, dead)
		allFeatureVariables = Union(undead, unconstrained)
		features = Intersect(allFeatureVariables, in.ConfigFeatures)
		coreFeatures = Intersect(features, core)
		unconstrainedFeatures = Intersect(features, unconstrained)
		constrainedFeatures = Difference(Difference(features, core), unconstrained)

		if len(in.Previous) > 0 {
			added = Difference(features, in.Previous)
			removed = Difference(in.Previous, features)
		}

		d.ExtractedFeaturesJaccard = ratio(Jaccard(in.Extracted, features))
		d.AllVariablesJaccard = ratio(Jaccard(allVariables, features))
		d.VariablesJaccard = ratio(Jaccard(variables, features))
		d.FeatureVariablesJaccard = ratio(Jaccard(featureVariables, features))
		d.UndeadFeatureVariablesJaccard = ratio(Jaccard(undead, features))
		d.AllFeatureVariablesJaccard = ratio(Jaccard(allFeatureVariables, features))
		d.FeaturesJaccard = ratio(1)

		d.UnconstrainedBools = schema.Measure(in.ConfigTypes.countOfType(unconstrainedFeatures, schema.BoolType), 0)
		d.UnconstrainedTristates = schema.Measure(in.ConfigTypes.countOfType(unconstrainedFeatures, schema.TristateType), 0)
	}

	// 3. Counts, each subject to its reporting threshold
	d.ConfigFeatures = schema.CountOf(in.ConfigFeatures, minimum)
	d.ExtractedFeatures = schema.CountOf(in.Extracted, minimum)
	d.UnconstrainedFeatureVariables = schema.CountOf(unconstrained, SparseMinimum)
	d.AllVariables = schema.CountOf(allVariables, minimum)
	d.Variables = schema.CountOf(variables, minimum)
	d.FeatureVariables = schema.CountOf(featureVariables, minimum)
	d.CoreFeatureVariables = schema.CountOf(core, SparseMinimum)
	d.DeadFeatureVariables = schema.CountOf(dead, SparseMinimum)
	d.ConstrainedFeatureVariables = schema.CountOf(Difference(undead, core), minimum)
	d.UndeadFeatureVariables = schema.CountOf(undead, minimum)
	d.AllFeatureVariables = schema.CountOf(allFeatureVariables, minimum)
	d.CombinedFeatureVariables = schema.CountOf(Union(featureVariables, unconstrained), minimum)
	d.Features = schema.CountOf(features, minimum)
	d.CoreFeatures = schema.CountOf(coreFeatures, SparseMinimum)
	d.UnconstrainedFeatures = schema.CountOf(unconstrainedFeatures, SparseMinimum)
	d.ConstrainedFeatures = schema.CountOf(constrainedFeatures, minimum)
	d.AddedFeatures = schema.CountOfOptional(added, added != nil, DeltaMinimum)
	d.RemovedFeatures = schema.CountOfOptional(removed, removed != nil, DeltaMinimum)

	res := Result{
		Descriptor:          d,
		Classified:          classified,
		FeatureVariablesAll: Union(featureVariables, unconstrained),
		Features:            features,
		GrepMissCandidates:  Set{},
	}
	for name := range Difference(allFeatureVariables, features) {
		if !strings.Contains(name, grepMissExclusion) {
			res.GrepMissCandidates[name] = struct{}{}
		}
	}
	return res
}

func ratio(v float64) *float64 {
	return &v
}
