package repeatability

import (
	"fmt"
	"sort"
)

// ScoredPair is a candidate correspondence between region A of the first
// set and region B of the second set.
type ScoredPair struct {
	A     int     `json:"a"`
	B     int     `json:"b"`
	Score float64 `json:"score"`
}

func (p ScoredPair) String() string {
	return fmt.Sprintf("(%d, %d) %.4f", p.A, p.B, p.Score)
}

// Matching is a one-to-one set of pairs in descending score order.
type Matching []ScoredPair

// Total returns the sum of the pair scores.
func (m Matching) Total() float64 {
	var sum float64
	for _, p := range m {
		sum += p.Score
	}
	return sum
}

// sortPairs orders pairs by descending score, breaking ties by (A, B).
func sortPairs(pairs []ScoredPair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].Score != pairs[j].Score {
			return pairs[i].Score > pairs[j].Score
		}
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
}

// GreedyMatch prunes candidate pairs to a one-to-one matching, accepting the
// highest scoring pairs first and never revisiting a decision. This is an
// approximation of maximum weight bipartite matching.
//
// Arguments:
//   - pairs: Candidate pairs; the slice is not modified.
//   - smallerSetSize: The size of the smaller region set. The scan stops once
//     that many first-set regions are matched.
//
// Returns:
//   - Matching: The accepted pairs in descending score order.
func GreedyMatch(pairs []ScoredPair, smallerSetSize int) Matching {
	if len(pairs) == 0 || smallerSetSize <= 0 {
		return Matching{}
	}

	sorted := make([]ScoredPair, len(pairs))
	copy(sorted, pairs)
	sortPairs(sorted)

	usedA := make(map[int]struct{}, smallerSetSize)
	usedB := make(map[int]struct{}, smallerSetSize)
	matching := make(Matching, 0, smallerSetSize)

	for _, p := range sorted {
		if len(usedA) == smallerSetSize {
			break
		}
		if _, ok := usedA[p.A]; ok {
			continue
		}
		if _, ok := usedB[p.B]; ok {
			continue
		}
		matching = append(matching, p)
		usedA[p.A] = struct{}{}
		usedB[p.B] = struct{}{}
	}
	return matching
}
