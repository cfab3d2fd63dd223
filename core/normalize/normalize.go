// Package normalize turns raw model counts of the reduced formulas into the
// configuration-space size of each model and of each revision as a whole.
package normalize

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/huangsam/kmetrics/schema"
	"github.com/sirupsen/logrus"
)

// failureSentinel is the count a solver reports when it gave up.
const failureSentinel = "1"

// ErrInvalidCount is returned for model counts that are not decimal integers.
var ErrInvalidCount = errors.New("invalid model count")

var (
	log10Two   = math.Log10(2)
	log10Three = math.Log10(3)
	bigTwo     = big.NewInt(2)
	bigThree   = big.NewInt(3)
)

// ParseRawCount parses a model-count cell. Blank cells and the failure sentinel
// yield nil without error.
func ParseRawCount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == failureSentinel {
		return nil, nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCount, s)
	}
	return n, nil
}

// Unconstrained reintroduces the unconstrained variables that were dropped from
// the reduced formula: raw · 2^bools · 3^tristates.
func Unconstrained(raw *big.Int, bools, tristates int) *big.Int {
	if raw == nil {
		return nil
	}
	out := new(big.Int).Set(raw)
	out.Mul(out, new(big.Int).Exp(bigTwo, big.NewInt(int64(bools)), nil))
	out.Mul(out, new(big.Int).Exp(bigThree, big.NewInt(int64(tristates)), nil))
	return out
}

// Log10 returns log10(n), or nil when n is nil, not positive, or exactly one.
// Values beyond float64 range are handled through the mantissa and exponent.
func Log10(n *big.Int) *float64 {
	if n == nil || n.Sign() <= 0 {
		return nil
	}
	var v float64
	if n.BitLen() <= 53 {
		v = math.Log10(float64(n.Int64()))
	} else {
		mant := new(big.Float)
		exp := new(big.Float).SetInt(n).MantExp(mant)
		m, _ := mant.Float64()
		v = math.Log10(m) + float64(exp)*log10Two
	}
	if v == 0 {
		return nil
	}
	return &v
}

// DigitLength returns the number of decimal digits of n. Zero and nil are missing.
func DigitLength(n *big.Int) schema.Count {
	if n == nil || n.Sign() <= 0 {
		return schema.Missing()
	}
	return schema.Measure(len(n.String()), 0)
}

// Similarity returns raw / (raw · 2^bools · 3^tristates) and its log10.
// The log10 stays finite when the ratio itself underflows float64.
func Similarity(bools, tristates int) (ratio float64, log10 float64) {
	denominator := Unconstrained(big.NewInt(1), bools, tristates)
	ratio, _ = new(big.Rat).SetFrac(big.NewInt(1), denominator).Float64()
	log10 = -(float64(bools)*log10Two + float64(tristates)*log10Three)
	return ratio, log10
}

// Normalize joins each solve record to the descriptor of its model and computes
// the unconstrained count. Records whose raw count is missing or whose
// descriptor has no measured type counts carry missing derived fields.
func Normalize(records []schema.SolveRecord, descriptors []schema.FeatureDescriptor, log logrus.FieldLogger) []schema.ModelCountRecord {
	byKey := make(map[schema.VariantKey]schema.FeatureDescriptor, len(descriptors))
	for _, d := range descriptors {
		byKey[d.VariantKey] = d
	}

	out := make([]schema.ModelCountRecord, 0, len(records))
	for _, rec := range records {
		row := schema.ModelCountRecord{
			VariantKey:    rec.VariantKey,
			Backend:       rec.Backend,
			CommitterDate: rec.CommitterDate,
			TimeNanos:     rec.TimeNanos,
		}
		raw, err := ParseRawCount(rec.RawCount)
		if err != nil {
			log.WithFields(logrus.Fields{
				"extractor":    rec.Extractor,
				"revision":     rec.Revision,
				"architecture": rec.Architecture,
				"backend":      rec.Backend,
			}).WithError(err).Warn("Ignoring model count")
		}
		row.Raw = raw
		row.RawLog10 = Log10(raw)

		d, ok := byKey[rec.VariantKey]
		if ok {
			row.UnconstrainedBools = d.UnconstrainedBools
			row.UnconstrainedTristates = d.UnconstrainedTristates
		}
		bools, okBools := row.UnconstrainedBools.Value()
		tristates, okTristates := row.UnconstrainedTristates.Value()
		if raw != nil && okBools && okTristates {
			row.Unconstrained = Unconstrained(raw, bools, tristates)
			row.UnconstrainedLog10 = Log10(row.Unconstrained)
			row.Digits = DigitLength(row.Unconstrained)
			ratio, ratioLog10 := Similarity(bools, tristates)
			row.Similarity = &ratio
			row.SimilarityLog10 = &ratioLog10
		}
		out = append(out, row)
	}
	return out
}

// Result holds every model-count table of a run.
type Result struct {
	// Records are all normalized records.
	Records []schema.ModelCountRecord
	// Slice are the records counted into failures and totals.
	Slice    []schema.ModelCountRecord
	Failures []schema.RevisionFailures
	Totals   []schema.AggregateTotal
}

// Compute runs the whole normalization: supersede, normalize, year cap,
// failure counting and revision totals.
func Compute(primary, rerun []schema.SolveRecord, descriptors []schema.FeatureDescriptor, maxYear int, log logrus.FieldLogger) Result {
	records := Normalize(Supersede(primary, rerun), descriptors, log)
	slice := CapYear(records, maxYear)
	failures := Failures(slice)
	for _, rec := range slice {
		if rec.CommitterDate.IsZero() {
			log.WithFields(logrus.Fields{
				"extractor":    rec.Extractor,
				"revision":     rec.Revision,
				"architecture": rec.Architecture,
				"backend":      rec.Backend,
			}).Debug("Model count has no committer date, leaving it out of the totals")
		}
	}
	return Result{
		Records:  records,
		Slice:    slice,
		Failures: failures,
		Totals:   Totals(slice, failures),
	}
}
