package normalize

import (
	"cmp"
	"math/big"
	"slices"
	"time"

	"github.com/huangsam/kmetrics/schema"
)

type supersedeKey struct {
	schema.VariantKey
	backend string
}

// Supersede replaces primary records by rerun records of the same (revision,
// architecture, extractor, backend) key. Rerun records are appended after the
// surviving primary records.
func Supersede(primary, rerun []schema.SolveRecord) []schema.SolveRecord {
	replaced := make(map[supersedeKey]struct{}, len(rerun))
	for _, rec := range rerun {
		replaced[supersedeKey{VariantKey: rec.VariantKey, backend: rec.Backend}] = struct{}{}
	}
	out := make([]schema.SolveRecord, 0, len(primary)+len(rerun))
	for _, rec := range primary {
		if _, ok := replaced[supersedeKey{VariantKey: rec.VariantKey, backend: rec.Backend}]; ok {
			continue
		}
		out = append(out, rec)
	}
	return append(out, rerun...)
}

// CapYear keeps records committed in or before maxYear. A maxYear of 0 keeps all.
func CapYear(records []schema.ModelCountRecord, maxYear int) []schema.ModelCountRecord {
	if maxYear <= 0 {
		return records
	}
	out := make([]schema.ModelCountRecord, 0, len(records))
	for _, rec := range records {
		if rec.CommitterDate.IsZero() || rec.CommitterDate.Year() <= maxYear {
			out = append(out, rec)
		}
	}
	return out
}

type revisionKey struct {
	extractor schema.Extractor
	revision  string
}

// Failures counts, per (extractor, revision), the attempted architectures for
// which no backend produced an unconstrained count.
func Failures(records []schema.ModelCountRecord) []schema.RevisionFailures {
	var order []revisionKey
	succeeded := make(map[revisionKey]map[string]bool)
	for _, rec := range records {
		k := revisionKey{extractor: rec.Extractor, revision: rec.Revision}
		archs, ok := succeeded[k]
		if !ok {
			archs = make(map[string]bool)
			succeeded[k] = archs
			order = append(order, k)
		}
		archs[rec.Architecture] = archs[rec.Architecture] || rec.HasLog10()
	}

	out := make([]schema.RevisionFailures, 0, len(order))
	for _, k := range order {
		f := schema.RevisionFailures{Extractor: k.extractor, Revision: k.revision}
		for _, ok := range succeeded[k] {
			f.Attempted++
			if !ok {
				f.Failures++
			}
		}
		f.IsUpperBound = f.Failures == 0
		out = append(out, f)
	}
	return out
}

type dateKey struct {
	extractor schema.Extractor
	date      time.Time
}

// Totals sums the unconstrained counts of every architecture per (extractor,
// committer date) and reports the digit length of the sum. Each architecture
// contributes its largest count across backends, and the bound flags of the
// revisions in a group are combined with AND and min. Records without a
// committer date belong to no group and are skipped.
func Totals(records []schema.ModelCountRecord, failures []schema.RevisionFailures) []schema.AggregateTotal {
	failuresOf := make(map[revisionKey]schema.RevisionFailures, len(failures))
	for _, f := range failures {
		failuresOf[revisionKey{extractor: f.Extractor, revision: f.Revision}] = f
	}

	// Largest count per model
	best := make(map[schema.VariantKey]*big.Int)
	dateOf := make(map[schema.VariantKey]time.Time)
	var models []schema.VariantKey
	for _, rec := range records {
		if rec.CommitterDate.IsZero() {
			continue
		}
		cur, seen := best[rec.VariantKey]
		if !seen {
			models = append(models, rec.VariantKey)
			dateOf[rec.VariantKey] = rec.CommitterDate
		}
		if rec.Unconstrained != nil && (cur == nil || rec.Unconstrained.Cmp(cur) > 0) {
			cur = rec.Unconstrained
		}
		best[rec.VariantKey] = cur
	}

	type group struct {
		total     schema.AggregateTotal
		sum       *big.Int
		revisions map[string]struct{}
	}
	groups := make(map[dateKey]*group)
	var keys []dateKey
	for _, m := range models {
		k := dateKey{extractor: m.Extractor, date: dateOf[m]}
		g, ok := groups[k]
		if !ok {
			g = &group{
				total:     schema.AggregateTotal{Extractor: m.Extractor, CommitterDate: k.date, Revision: m.Revision, IsUpperBound: true, Failures: -1},
				sum:       new(big.Int),
				revisions: make(map[string]struct{}),
			}
			groups[k] = g
			keys = append(keys, k)
		}
		if n := best[m]; n != nil {
			g.sum.Add(g.sum, n)
		}
		if _, done := g.revisions[m.Revision]; done {
			continue
		}
		g.revisions[m.Revision] = struct{}{}
		f := failuresOf[revisionKey{extractor: m.Extractor, revision: m.Revision}]
		g.total.IsUpperBound = g.total.IsUpperBound && f.IsUpperBound
		if g.total.Failures < 0 || f.Failures < g.total.Failures {
			g.total.Failures = f.Failures
		}
	}

	out := make([]schema.AggregateTotal, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		g.total.Digits = DigitLength(g.sum)
		out = append(out, g.total)
	}
	slices.SortStableFunc(out, func(a, b schema.AggregateTotal) int {
		return cmp.Or(
			cmp.Compare(extractorRank(a.Extractor), extractorRank(b.Extractor)),
			a.CommitterDate.Compare(b.CommitterDate),
		)
	})
	return out
}

func extractorRank(e schema.Extractor) int {
	if i := slices.Index(schema.AllExtractors, e); i >= 0 {
		return i
	}
	return len(schema.AllExtractors)
}
