package repeatability

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepeatability(t *testing.T) {
	m := Matching{
		{A: 0, B: 0, Score: 0.9},
		{A: 1, B: 2, Score: 0.6},
		{A: 2, B: 1, Score: 0.3},
	}

	tests := []struct {
		name      string
		threshold float64
		n1, n2    int
		expected  float64
	}{
		{"All above zero", 0.0, 3, 3, 1.0},
		{"Strictly greater", 0.6, 3, 3, 1.0 / 3.0},
		{"Half", 0.5, 4, 3, 2.0 / 3.0},
		{"Smaller set bounds potential", 0.2, 10, 4, 3.0 / 4.0},
		{"Nothing above", 0.95, 3, 3, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Repeatability(m, tt.threshold, tt.n1, tt.n2), 1e-12)
		})
	}
}

func TestRepeatabilityUndefined(t *testing.T) {
	assert.True(t, IsUndefined(Repeatability(Matching{}, 0.5, 0, 5)))
	assert.True(t, IsUndefined(Repeatability(Matching{}, 0.5, 5, 0)))
	assert.False(t, IsUndefined(Repeatability(Matching{}, 0.5, 5, 5)), "no matches is 0, not undefined")
}

func TestSummarize(t *testing.T) {
	s := Summarize(Matching{{Score: 0.7}, {Score: 0.4}}, 0.5, 2, 5)
	assert.Equal(t, 0.5, s.Threshold)
	assert.Equal(t, 1, s.Matches)
	assert.Equal(t, 2, s.Potential)
	assert.InDelta(t, 0.5, s.Repeatability, 1e-12)
	assert.False(t, s.Undefined())
}

func TestSummaryJSON(t *testing.T) {
	defined, err := json.Marshal(Summarize(Matching{{Score: 0.7}}, 0.5, 1, 1))
	require.NoError(t, err)
	assert.JSONEq(t, `{"threshold":0.5,"matches":1,"potential":1,"repeatability":1}`, string(defined))

	undefined, err := json.Marshal(Summarize(Matching{}, 0.5, 0, 0))
	require.NoError(t, err, "NaN must not reach the encoder")
	assert.JSONEq(t, `{"threshold":0.5,"matches":0,"potential":0,"repeatability":null}`, string(undefined))
}
