package classify

import (
	"maps"
	"slices"
)

// Set is a set of variable or feature names.
type Set = map[string]struct{}

// NewSet creates a set from names.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Union returns a ∪ b.
func Union(a, b Set) Set {
	out := make(Set, len(a)+len(b))
	maps.Copy(out, a)
	maps.Copy(out, b)
	return out
}

// Intersect returns a ∩ b.
func Intersect(a, b Set) Set {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make(Set)
	for k := range a {
		if _, ok := b[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

// Difference returns a − b.
func Difference(a, b Set) Set {
	out := make(Set)
	for k := range a {
		if _, ok := b[k]; !ok {
			out[k] = struct{}{}
		}
	}
	return out
}

// AddAll inserts every element of src into dst.
func AddAll(dst, src Set) {
	maps.Copy(dst, src)
}

// Sorted returns the elements in lexicographic order.
func Sorted(s Set) []string {
	return slices.Sorted(maps.Keys(s))
}

// Jaccard returns |a ∩ b| / |a ∪ b|. Two empty sets have similarity 0.
func Jaccard(a, b Set) float64 {
	inter := len(Intersect(a, b))
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
