package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasure(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		minimum  int
		expected CountState
	}{
		{"above default threshold", 5, 2, Measured},
		{"at threshold", 2, 2, Measured},
		{"single element under default threshold", 1, 2, Suppressed},
		{"single element with threshold one", 1, 1, Measured},
		{"empty set with threshold zero", 0, 0, Measured},
		{"empty set with threshold one", 0, 1, Suppressed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Measure(tt.n, tt.minimum)
			assert.Equal(t, tt.expected, c.State)
			assert.Equal(t, tt.n, c.N)
		})
	}
}

func TestCountOfOptional(t *testing.T) {
	set := map[string]struct{}{"A": {}, "B": {}}

	c := CountOfOptional(set, false, 0)
	assert.Equal(t, NotComputed, c.State)
	_, ok := c.Value()
	assert.False(t, ok)

	c = CountOfOptional(set, true, 0)
	n, ok := c.Value()
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	c = CountOfOptional(map[string]struct{}{}, true, 0)
	n, ok = c.Value()
	assert.True(t, ok, "an empty computed set at threshold zero is a real zero")
	assert.Equal(t, 0, n)
}

func TestCountJSON(t *testing.T) {
	type wrapper struct {
		A Count `json:"a"`
		B Count `json:"b"`
		C Count `json:"c"`
	}
	in := wrapper{A: Measure(7, 2), B: Measure(1, 2), C: Missing()}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":7,"b":{"suppressed":1},"c":null}`, string(data))

	var out wrapper
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestCountFloatAndString(t *testing.T) {
	assert.Nil(t, Missing().Float())
	assert.Nil(t, Measure(1, 2).Float())
	require.NotNil(t, Measure(3, 2).Float())
	assert.Equal(t, 3.0, *Measure(3, 2).Float())
	assert.Equal(t, "-", Measure(1, 2).String())
	assert.Equal(t, "3", Measure(3, 2).String())
}
