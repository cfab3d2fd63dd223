package aggregate

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/huangsam/kmetrics/core/classify"
	"github.com/huangsam/kmetrics/schema"
)

// Kconfig paths of test and helper trees that no architecture includes.
var testKconfigPrefixes = []string{"Documentation/", "scripts/"}

var archKconfigPattern = regexp.MustCompile(`^arch/(.*?)/.*$`)

// BuildMissReport joins the diagnostic miss sets of a bundle with the declared configs.
func BuildMissReport(bundle schema.Bundle, configs []schema.ConfigRecord, types []schema.ConfigTypeRecord) schema.MissReport {
	grep := classify.NewSet(bundle.PotentialMissesGrep...)
	model := classify.NewSet(bundle.PotentialMissesModel...)

	// Configs declared in test trees
	dueToTests := classify.Set{}
	for _, c := range configs {
		if _, ok := model[c.Config]; !ok {
			continue
		}
		for _, prefix := range testKconfigPrefixes {
			if strings.HasPrefix(c.KconfigFile, prefix) {
				dueToTests[c.Config] = struct{}{}
			}
		}
	}

	// Configs of architectures whose KClause model is missing at that revision
	missingModels := make(map[modelKey]struct{})
	for _, d := range bundle.Descriptors {
		if d.Extractor == schema.KClause && !d.ExtractedFeatures.IsMeasured() {
			missingModels[modelKey{revision: d.Revision, architecture: d.Architecture}] = struct{}{}
		}
	}
	dueToMissingModels := classify.Set{}
	for _, c := range configs {
		if _, ok := model[c.Config]; !ok {
			continue
		}
		arch := archKconfigPattern.ReplaceAllString(c.KconfigFile, "$1")
		if _, ok := missingModels[modelKey{revision: c.Revision, architecture: arch}]; ok {
			dueToMissingModels[c.Config] = struct{}{}
		}
	}
	model = classify.Difference(classify.Difference(model, dueToTests), dueToMissingModels)

	return schema.MissReport{
		Grep:       joinMisses(grep, configs, types),
		Model:      joinMisses(model, configs, types),
		GrepCount:  len(grep),
		ModelCount: len(model),
	}
}

// joinMisses pairs every missed config with each file it is declared in and
// each type it is declared with, dropping duplicates.
func joinMisses(misses classify.Set, configs []schema.ConfigRecord, types []schema.ConfigTypeRecord) []schema.PotentialMiss {
	files := make(map[string]classify.Set)
	for _, c := range configs {
		if _, ok := misses[c.Config]; !ok {
			continue
		}
		if files[c.Config] == nil {
			files[c.Config] = classify.Set{}
		}
		files[c.Config][c.KconfigFile] = struct{}{}
	}
	typesOf := make(map[string]map[schema.ConfigType]struct{})
	for _, t := range types {
		if _, ok := files[t.Config]; !ok {
			continue
		}
		if typesOf[t.Config] == nil {
			typesOf[t.Config] = make(map[schema.ConfigType]struct{})
		}
		typesOf[t.Config][t.Type] = struct{}{}
	}

	var out []schema.PotentialMiss
	for config, fileSet := range files {
		for file := range fileSet {
			for typ := range typesOf[config] {
				out = append(out, schema.PotentialMiss{Config: config, KconfigFile: file, Type: typ})
			}
		}
	}
	slices.SortFunc(out, func(a, b schema.PotentialMiss) int {
		return cmp.Or(
			strings.Compare(a.Config, b.Config),
			strings.Compare(a.KconfigFile, b.KconfigFile),
			strings.Compare(string(a.Type), string(b.Type)),
		)
	})
	return out
}
