package schema

import "time"

// MissReport is the cross-validation of the grep-derived config list against KClause.
type MissReport struct {
	// Grep lists feature variables the config grep did not find.
	Grep []PotentialMiss `json:"potential_misses_grep"`
	// Model lists declared configs KClause found in no model, after discounting
	// test Kconfig files and architectures KClause failed to extract.
	Model []PotentialMiss `json:"potential_misses_kclause"`

	GrepCount  int `json:"potential_misses_grep_count"`
	ModelCount int `json:"potential_misses_kclause_count"`
}

// FeaturesReport is the output of the classification pass.
type FeaturesReport struct {
	Descriptors         []FeatureDescriptor   `json:"descriptors"`
	ExtractorComparison []ExtractorComparison `json:"extractor_comparison"`
	Configurability     []ConfigurableRecord  `json:"configurability,omitempty"`
	Misses              *MissReport           `json:"misses,omitempty"`
	Cached              bool                  `json:"cached"`
}

// CountsReport is the output of the model-count normalization.
type CountsReport struct {
	Records  []ModelCountRecord `json:"model_counts"`
	Failures []RevisionFailures `json:"failures"`
	Totals   []AggregateTotal   `json:"totals"`
	// MaxYear is the committer year cap applied to failures and totals, 0 for none.
	MaxYear int `json:"solve_max_year"`
}

// RunSummary describes one complete pipeline run.
type RunSummary struct {
	RunID           int64            `json:"run_id,omitempty"`
	Started         time.Time        `json:"started"`
	Duration        time.Duration    `json:"duration_ns"`
	Revisions       int              `json:"revisions"`
	Models          int              `json:"models"`
	Classified      int              `json:"classified"`
	CachedFeatures  bool             `json:"cached_features"`
	ModelCounts     int              `json:"model_counts"`
	Totals          []AggregateTotal `json:"totals"`
	MetricsDocument string           `json:"metrics_document,omitempty"`
}

// RevisionTotal is the union of the reconciled features over the architectures
// of one revision, as extracted by one extractor.
type RevisionTotal struct {
	Extractor     Extractor `json:"extractor"`
	Revision      string    `json:"revision"`
	CommitterDate time.Time `json:"committer_date"`
	Architectures int       `json:"architectures"`
	Classified    int       `json:"classified"`

	TotalFeatures        Count `json:"total_features"`
	TotalAddedFeatures   Count `json:"total_added_features"`
	TotalRemovedFeatures Count `json:"total_removed_features"`
}

// RevisionTotals collapses descriptors into one row per (extractor, revision),
// keeping the order of first appearance. A model counts as classified when its
// unconstrained type counts were computed.
func RevisionTotals(descriptors []FeatureDescriptor) []RevisionTotal {
	type key struct {
		extractor Extractor
		revision  string
	}
	index := make(map[key]int)
	var out []RevisionTotal
	for _, d := range descriptors {
		k := key{extractor: d.Extractor, revision: d.Revision}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, RevisionTotal{
				Extractor:            d.Extractor,
				Revision:             d.Revision,
				CommitterDate:        d.CommitterDate,
				TotalFeatures:        d.TotalFeatures,
				TotalAddedFeatures:   d.TotalAddedFeatures,
				TotalRemovedFeatures: d.TotalRemovedFeatures,
			})
		}
		out[i].Architectures++
		if d.UnconstrainedBools.State != NotComputed {
			out[i].Classified++
		}
	}
	return out
}
