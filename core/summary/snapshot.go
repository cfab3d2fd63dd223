package summary

import (
	"fmt"
	"math"
	"time"

	"github.com/huangsam/kmetrics/schema"
)

const (
	dayLength  = 24 * time.Hour
	yearLength = 365 * dayLength
	// searchSlack widens a month window that holds no observation.
	searchSlack = 30 * dayLength

	dateLayout   = "January 02, 2006"
	dateNotFound = "Date not Found"
)

// DefaultHistoryYears are the history offsets reported for every metric.
var DefaultHistoryYears = []int{1, 2, 5, 10}

// Format renders the values of one metric. Apply is shared by the current value
// and every history entry.
type Format struct {
	Prefix string
	Unit   string
	Apply  func(float64) int64
}

func (f Format) render(v float64) string {
	return fmt.Sprintf("%s%d %s", f.Prefix, f.Apply(v), f.Unit)
}

// Truncate drops the fractional part.
func Truncate(v float64) int64 {
	return int64(math.Trunc(v))
}

// NanosToSeconds converts solve times from nanoseconds to whole seconds.
func NanosToSeconds(v float64) int64 {
	return int64(v) / int64(time.Second)
}

// Snapshot renders the latest value of a series and its values the given
// numbers of years before.
func Snapshot(s Series, f Format, years []int) schema.MetricSnapshot {
	latest, ok := s.Latest()
	if !ok {
		return schema.MetricSnapshot{
			CurrentValue: schema.SnapshotValue{Value: "0 " + f.Unit, Date: dateNotFound},
			History:      map[string]schema.SnapshotValue{},
		}
	}
	return schema.MetricSnapshot{
		CurrentValue: schema.SnapshotValue{
			Value: f.render(*latest.Value),
			Date:  "From " + latest.Date.Format(dateLayout),
		},
		History: History(s, latest.Date, f, years),
	}
}

// History looks up the value of each offset before latest. For an offset of W
// years the windows tried are the calendar month of latest-W, the month 30 days
// earlier, the month 30 days later and the calendar year of latest-W. The most
// recent observation of the first non-empty window is used. Offsets whose
// observation is missing or renders as zero are omitted.
func History(s Series, latest time.Time, f Format, years []int) map[string]schema.SnapshotValue {
	out := make(map[string]schema.SnapshotValue)
	for _, w := range years {
		target := latest.Add(-time.Duration(w) * yearLength)
		obs, ok := findNear(s, target)
		if !ok || obs.Value == nil {
			continue
		}
		if f.Apply(*obs.Value) == 0 {
			continue
		}
		out[fmt.Sprintf("%d-years-before", w)] = schema.SnapshotValue{
			Value: f.render(*obs.Value),
			Date:  obs.Date.Format(dateLayout),
		}
	}
	return out
}

func findNear(s Series, target time.Time) (Observation, bool) {
	windows := []func(time.Time) bool{
		sameMonth(target),
		sameMonth(target.Add(-searchSlack)),
		sameMonth(target.Add(searchSlack)),
		sameYear(target),
	}
	for _, match := range windows {
		if obs, ok := s.LatestWhere(match); ok {
			return obs, true
		}
	}
	return Observation{}, false
}
