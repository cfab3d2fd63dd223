package aggregate

import (
	"github.com/huangsam/kmetrics/core/classify"
	"github.com/huangsam/kmetrics/schema"
)

type modelKey struct {
	revision     string
	architecture string
}

// AgreementCollector records the features of every extractor per (revision,
// architecture) and compares them once all extractors have run. The result does
// not depend on the order extractors are processed in.
type AgreementCollector struct {
	keys []modelKey
	sets map[modelKey]map[schema.Extractor]classify.Set
}

// NewAgreementCollector creates an empty collector.
func NewAgreementCollector() *AgreementCollector {
	return &AgreementCollector{sets: make(map[modelKey]map[schema.Extractor]classify.Set)}
}

// Record stores the features of a classified model.
func (c *AgreementCollector) Record(key schema.VariantKey, features classify.Set) {
	k := modelKey{revision: key.Revision, architecture: key.Architecture}
	byExtractor, ok := c.sets[k]
	if !ok {
		byExtractor = make(map[schema.Extractor]classify.Set)
		c.sets[k] = byExtractor
		c.keys = append(c.keys, k)
	}
	byExtractor[key.Extractor] = features
}

// Compare returns one comparison per recorded key, in first-recorded order.
// The Jaccard similarity is nil unless exactly two extractors recorded the key.
func (c *AgreementCollector) Compare() []schema.ExtractorComparison {
	out := make([]schema.ExtractorComparison, 0, len(c.keys))
	for _, k := range c.keys {
		cmp := schema.ExtractorComparison{Revision: k.revision, Architecture: k.architecture}
		byExtractor := c.sets[k]
		if len(byExtractor) == 2 {
			var pair []classify.Set
			for _, e := range schema.AllExtractors {
				if s, ok := byExtractor[e]; ok {
					pair = append(pair, s)
				}
			}
			if len(pair) == 2 {
				j := classify.Jaccard(pair[0], pair[1])
				cmp.Jaccard = &j
			}
		}
		out = append(out, cmp)
	}
	return out
}
