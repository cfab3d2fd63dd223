package aggregate

import "github.com/huangsam/kmetrics/core/classify"

// FoldState carries the features of the previous revision into the next one:
// one set per architecture plus the TOTAL across architectures.
type FoldState struct {
	Architectures map[string]classify.Set
	Total         classify.Set
}

// NewFoldState returns the state before the first revision.
func NewFoldState() FoldState {
	return FoldState{Architectures: map[string]classify.Set{}, Total: classify.Set{}}
}

// Previous returns the features of an architecture at the previous revision,
// or nil when the architecture was not seen there.
func (s FoldState) Previous(architecture string) classify.Set {
	return s.Architectures[architecture]
}

// TotalDelta returns features added to and removed from the TOTAL.
// It returns ok=false when the previous TOTAL is empty.
func (s FoldState) TotalDelta(total classify.Set) (added, removed classify.Set, ok bool) {
	if len(s.Total) == 0 {
		return nil, nil, false
	}
	return classify.Difference(total, s.Total), classify.Difference(s.Total, total), true
}

// Advance returns the state after a revision. The previous state is not modified,
// and architectures absent from the revision are forgotten.
func (s FoldState) Advance(features map[string]classify.Set, total classify.Set) FoldState {
	next := FoldState{Architectures: make(map[string]classify.Set, len(features)), Total: total}
	for arch, set := range features {
		next.Architectures[arch] = set
	}
	return next
}
