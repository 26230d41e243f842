package repeatability

import (
	"encoding/json"
	"math"
)

// DefaultOverlapThreshold is the overlap matching the 40% overlap error
// reported by the Oxford evaluation.
const DefaultOverlapThreshold = 0.6

// Summary is the reduction of a matching at one overlap threshold.
type Summary struct {
	// Threshold is the overlap a pair must exceed to count.
	Threshold float64 `json:"threshold"`
	// Matches is the number of matched pairs above Threshold.
	Matches int `json:"matches"`
	// Potential is min(|set1|, |set2|) over the filtered sets.
	Potential int `json:"potential"`
	// Repeatability is Matches/Potential, NaN when Potential is zero.
	Repeatability float64 `json:"-"`
}

// Undefined reports whether the ratio could not be formed.
func (s Summary) Undefined() bool {
	return IsUndefined(s.Repeatability)
}

// MarshalJSON writes an undefined repeatability as null.
func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	out := struct {
		plain
		Repeatability *float64 `json:"repeatability"`
	}{plain: plain(s)}
	if !s.Undefined() {
		v := s.Repeatability
		out.Repeatability = &v
	}
	return json.Marshal(out)
}

// Repeatability returns the fraction of potential matches whose overlap
// exceeds percentageOverlap. It returns NaN when either set is empty; callers
// must check with IsUndefined rather than treating it as 0.
func Repeatability(m Matching, percentageOverlap float64, n1, n2 int) float64 {
	return Summarize(m, percentageOverlap, n1, n2).Repeatability
}

// Summarize counts the matches above percentageOverlap.
func Summarize(m Matching, percentageOverlap float64, n1, n2 int) Summary {
	s := Summary{Threshold: percentageOverlap, Potential: min(n1, n2)}
	for _, p := range m {
		if p.Score > percentageOverlap {
			s.Matches++
		}
	}
	if s.Potential <= 0 {
		s.Repeatability = math.NaN()
		return s
	}
	s.Repeatability = float64(s.Matches) / float64(s.Potential)
	return s
}

// IsUndefined reports whether v is the undefined repeatability sentinel.
func IsUndefined(v float64) bool {
	return math.IsNaN(v)
}
