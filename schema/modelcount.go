package schema

import (
	"math/big"
	"time"
)

// ArchitectureRecord is a row of the architectures stage.
type ArchitectureRecord struct {
	Revision      string    `json:"revision"`
	Architecture  string    `json:"architecture"`
	CommitterDate time.Time `json:"committer_date"`
}

// KconfigRecord is a row of the kconfig stage.
type KconfigRecord struct {
	VariantKey
	CommitterDate     time.Time `json:"committer_date"`
	SourceLinesOfCode *float64  `json:"source_lines_of_code"`
}

// SolveRecord is a raw model-count row, before normalization.
type SolveRecord struct {
	VariantKey
	Backend       string    `json:"backend"`
	CommitterDate time.Time `json:"committer_date"`
	RawCount      string    `json:"model_count"`
	TimeNanos     *int64    `json:"time_ns"`
}

// ModelCountRecord is a normalized model count of one variant and solver backend.
type ModelCountRecord struct {
	VariantKey
	Backend       string    `json:"backend"`
	CommitterDate time.Time `json:"committer_date"`
	TimeNanos     *int64    `json:"time_ns"`

	// Raw is nil for blank counts and for the "1" failure sentinel.
	Raw      *big.Int `json:"model_count"`
	RawLog10 *float64 `json:"model_count_log10"`

	UnconstrainedBools     Count `json:"unconstrained_bools"`
	UnconstrainedTristates Count `json:"unconstrained_tristates"`

	Unconstrained      *big.Int `json:"model_count_unconstrained"`
	UnconstrainedLog10 *float64 `json:"model_count_unconstrained_log10"`
	Digits             Count    `json:"model_count_unconstrained_digits"`
	Similarity         *float64 `json:"similarity"`
	SimilarityLog10    *float64 `json:"similarity_log10"`
}

// HasLog10 reports whether the record carries a usable unconstrained count.
func (r ModelCountRecord) HasLog10() bool {
	return r.UnconstrainedLog10 != nil
}

// RevisionFailures counts architectures of a revision that failed to produce a count.
type RevisionFailures struct {
	Extractor    Extractor `json:"extractor"`
	Revision     string    `json:"revision"`
	Attempted    int       `json:"attempted"`
	Failures     int       `json:"failures"`
	IsUpperBound bool      `json:"is-upper-bound"`
}

// AggregateTotal is the configuration-space size of a whole revision.
// Digits is the decimal length of the summed unconstrained counts.
type AggregateTotal struct {
	Extractor     Extractor `json:"extractor"`
	CommitterDate time.Time `json:"committer_date"`
	Revision      string    `json:"revision"`
	Digits        Count     `json:"model-count-unconstrained"`
	IsUpperBound  bool      `json:"is-upper-bound"`
	Failures      int       `json:"failures"`
}
