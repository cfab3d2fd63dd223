package summary

import (
	"slices"
	"time"
)

// Observation is one dated value of a metric. A nil Value is a missing observation.
type Observation struct {
	Date  time.Time
	Value *float64
}

// Series is a date-ordered list of observations.
type Series []Observation

// NewSeries sorts observations by date, keeping the input order of equal dates.
func NewSeries(obs []Observation) Series {
	s := slices.Clone(obs)
	slices.SortStableFunc(s, func(a, b Observation) int {
		return a.Date.Compare(b.Date)
	})
	return s
}

// Latest returns the most recent observation with a value.
func (s Series) Latest() (Observation, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Value != nil {
			return s[i], true
		}
	}
	return Observation{}, false
}

// LatestWhere returns the most recent observation whose date matches, with or
// without a value.
func (s Series) LatestWhere(match func(time.Time) bool) (Observation, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if match(s[i].Date) {
			return s[i], true
		}
	}
	return Observation{}, false
}

func sameMonth(target time.Time) func(time.Time) bool {
	return func(d time.Time) bool {
		return d.Year() == target.Year() && d.Month() == target.Month()
	}
}

func sameYear(target time.Time) func(time.Time) bool {
	return func(d time.Time) bool {
		return d.Year() == target.Year()
	}
}

func ptr(v float64) *float64 {
	return &v
}
