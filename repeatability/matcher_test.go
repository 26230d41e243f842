package repeatability

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGreedyMatch(t *testing.T) {
	tests := []struct {
		name     string
		pairs    []ScoredPair
		smaller  int
		expected Matching
	}{
		{
			name:     "Empty",
			pairs:    nil,
			smaller:  3,
			expected: Matching{},
		},
		{
			name:     "No potential",
			pairs:    []ScoredPair{{A: 0, B: 0, Score: 0.9}},
			smaller:  0,
			expected: Matching{},
		},
		{
			name: "Conflicts resolved by score",
			pairs: []ScoredPair{
				{A: 0, B: 0, Score: 0.9},
				{A: 0, B: 1, Score: 0.8},
				{A: 1, B: 0, Score: 0.85},
				{A: 1, B: 1, Score: 0.7},
			},
			smaller: 2,
			expected: Matching{
				{A: 0, B: 0, Score: 0.9},
				{A: 1, B: 1, Score: 0.7},
			},
		},
		{
			name: "Ties broken by index",
			pairs: []ScoredPair{
				{A: 1, B: 0, Score: 0.5},
				{A: 0, B: 1, Score: 0.5},
				{A: 0, B: 0, Score: 0.5},
			},
			smaller: 2,
			expected: Matching{
				{A: 0, B: 0, Score: 0.5},
			},
		},
		{
			name: "Stops at the smaller set size",
			pairs: []ScoredPair{
				{A: 0, B: 0, Score: 0.9},
				{A: 1, B: 1, Score: 0.8},
			},
			smaller: 1,
			expected: Matching{
				{A: 0, B: 0, Score: 0.9},
			},
		},
		{
			name: "Second set larger",
			pairs: []ScoredPair{
				{A: 0, B: 2, Score: 0.6},
				{A: 0, B: 1, Score: 0.4},
				{A: 0, B: 0, Score: 0.2},
			},
			smaller: 1,
			expected: Matching{
				{A: 0, B: 2, Score: 0.6},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GreedyMatch(tt.pairs, tt.smaller))
		})
	}
}

func TestGreedyMatchTieOrderIndependent(t *testing.T) {
	a := []ScoredPair{{A: 2, B: 1, Score: 0.5}, {A: 1, B: 2, Score: 0.5}, {A: 1, B: 1, Score: 0.5}}
	b := []ScoredPair{{A: 1, B: 1, Score: 0.5}, {A: 2, B: 1, Score: 0.5}, {A: 1, B: 2, Score: 0.5}}

	assert.Equal(t, GreedyMatch(a, 2), GreedyMatch(b, 2), "input order does not change the matching")
}

func TestGreedyMatchDoesNotMutateInput(t *testing.T) {
	pairs := []ScoredPair{{A: 0, B: 0, Score: 0.1}, {A: 1, B: 1, Score: 0.9}}
	snapshot := append([]ScoredPair(nil), pairs...)

	GreedyMatch(pairs, 2)
	assert.Equal(t, snapshot, pairs)
}

// randomPairs builds a dense candidate list over an n1 x n2 grid.
func randomPairs(rng *rand.Rand, n1, n2 int) []ScoredPair {
	var pairs []ScoredPair
	for a := 0; a < n1; a++ {
		for b := 0; b < n2; b++ {
			if rng.Float64() < 0.4 {
				// Quantised scores force ties.
				pairs = append(pairs, ScoredPair{A: a, B: b, Score: float64(1+rng.Intn(20)) / 20})
			}
		}
	}
	return pairs
}

func TestGreedyMatchProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 100; trial++ {
		n1, n2 := 1+rng.Intn(12), 1+rng.Intn(12)
		pairs := randomPairs(rng, n1, n2)
		m := GreedyMatch(pairs, min(n1, n2))

		seenA := map[int]bool{}
		seenB := map[int]bool{}
		for k, p := range m {
			require.False(t, seenA[p.A], "trial %d: first-set index %d reused", trial, p.A)
			require.False(t, seenB[p.B], "trial %d: second-set index %d reused", trial, p.B)
			seenA[p.A], seenB[p.B] = true, true
			if k > 0 {
				require.GreaterOrEqual(t, m[k-1].Score, p.Score, "trial %d: descending order", trial)
			}
		}
		require.LessOrEqual(t, len(m), min(n1, n2))

		assert.Equal(t, m, GreedyMatch(pairs, min(n1, n2)), "trial %d: same input, same matching", trial)
	}
}

// TestGreedyMatchUnmatchedRemoval checks that dropping a candidate the scan
// skipped leaves the matching, and so its total, unchanged.
func TestGreedyMatchUnmatchedRemoval(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for trial := 0; trial < 50; trial++ {
		n1, n2 := 2+rng.Intn(8), 2+rng.Intn(8)
		pairs := randomPairs(rng, n1, n2)
		m := GreedyMatch(pairs, min(n1, n2))

		matched := map[ScoredPair]bool{}
		for _, p := range m {
			matched[p] = true
		}
		for k, p := range pairs {
			if matched[p] {
				continue
			}
			reduced := append(append([]ScoredPair(nil), pairs[:k]...), pairs[k+1:]...)
			got := GreedyMatch(reduced, min(n1, n2))
			require.Equal(t, m, got, "trial %d: removing %s", trial, p)
			require.LessOrEqual(t, got.Total(), m.Total())
		}
	}
}

func TestMatchingTotal(t *testing.T) {
	m := Matching{{Score: 0.25}, {Score: 0.5}}
	assert.InDelta(t, 0.75, m.Total(), 1e-12)
	assert.Zero(t, Matching{}.Total())
}
