package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// CountState tells whether a Count carries a reportable value.
type CountState uint8

const (
	// NotComputed means there was no input to compute from.
	NotComputed CountState = iota
	// Suppressed means the set was computed but is smaller than the reporting threshold.
	Suppressed
	// Measured means the count is reportable.
	Measured
)

// String returns the state name.
func (s CountState) String() string {
	switch s {
	case Suppressed:
		return "suppressed"
	case Measured:
		return "measured"
	default:
		return "not_computed"
	}
}

// Count is an optional cardinality.
// Consumers treat anything but Measured as missing.
type Count struct {
	N     int
	State CountState
}

// Missing returns a not-computed count.
func Missing() Count {
	return Count{}
}

// Measure returns a count of n that is suppressed when below minimum.
func Measure(n, minimum int) Count {
	if n < minimum {
		return Count{N: n, State: Suppressed}
	}
	return Count{N: n, State: Measured}
}

// CountOf measures the size of a set.
func CountOf[T comparable](set map[T]struct{}, minimum int) Count {
	return Measure(len(set), minimum)
}

// CountOfOptional measures a set that may not have been computed at all.
func CountOfOptional[T comparable](set map[T]struct{}, computed bool, minimum int) Count {
	if !computed {
		return Missing()
	}
	return CountOf(set, minimum)
}

// Value returns the count and whether it is reportable.
func (c Count) Value() (int, bool) {
	return c.N, c.State == Measured
}

// IsMeasured reports whether the count is reportable.
func (c Count) IsMeasured() bool {
	return c.State == Measured
}

// Float returns the value as a float pointer, nil when missing.
func (c Count) Float() *float64 {
	if c.State != Measured {
		return nil
	}
	v := float64(c.N)
	return &v
}

// String renders measured counts as numbers and anything else as "-".
func (c Count) String() string {
	if c.State != Measured {
		return "-"
	}
	return strconv.Itoa(c.N)
}

type suppressedCount struct {
	Suppressed int `json:"suppressed"`
}

// MarshalJSON encodes measured counts as numbers, suppressed counts as
// {"suppressed": n} and not-computed counts as null.
func (c Count) MarshalJSON() ([]byte, error) {
	switch c.State {
	case Measured:
		return []byte(strconv.Itoa(c.N)), nil
	case Suppressed:
		return json.Marshal(suppressedCount{Suppressed: c.N})
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes the encoding produced by MarshalJSON.
func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = Missing()
		return nil
	case len(data) > 0 && data[0] == '{':
		var s suppressedCount
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to decode suppressed count: %w", err)
		}
		*c = Count{N: s.Suppressed, State: Suppressed}
		return nil
	default:
		n, err := strconv.Atoi(string(data))
		if err != nil {
			return fmt.Errorf("failed to decode count %q: %w", data, err)
		}
		*c = Count{N: n, State: Measured}
		return nil
	}
}
