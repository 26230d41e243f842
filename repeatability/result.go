package repeatability

import "github.com/nvr-ai/go-ipd/geometry"

// Result is the outcome of one evaluation.
type Result struct {
	// Valid1 are the image-1 regions visible in image 2.
	Valid1 RegionSet
	// Valid2 are the image-2 regions visible in image 1.
	Valid2 RegionSet
	// Remapped2 holds Valid2 mapped into the frame of image 1. Entries that
	// could not be mapped are zero values and were never scored.
	Remapped2 []geometry.Region
	// Candidates is the number of pairs with a positive overlap.
	Candidates int
	// Degenerate counts pairs and regions recovered as zero overlap.
	Degenerate int
	// Matching is the greedy one-to-one matching over filtered indices.
	Matching Matching
}

// Correspondence is a matched pair expressed in detector output indices.
type Correspondence struct {
	Index1 int     `json:"index1"`
	Index2 int     `json:"index2"`
	Score  float64 `json:"score"`
}

// Summary reduces the matching at the given overlap threshold.
func (r *Result) Summary(percentageOverlap float64) Summary {
	return Summarize(r.Matching, percentageOverlap, r.Valid1.Len(), r.Valid2.Len())
}

// Repeatability returns the repeatability at the given overlap threshold, or
// NaN when a filtered set is empty.
func (r *Result) Repeatability(percentageOverlap float64) float64 {
	return r.Summary(percentageOverlap).Repeatability
}

// Correspondences lists the matched pairs above the threshold, mapped back to
// the indices of the detector output.
func (r *Result) Correspondences(percentageOverlap float64) []Correspondence {
	out := make([]Correspondence, 0, len(r.Matching))
	for _, p := range r.Matching {
		if p.Score <= percentageOverlap {
			continue
		}
		out = append(out, Correspondence{
			Index1: r.Valid1.OriginalIndex(p.A),
			Index2: r.Valid2.OriginalIndex(p.B),
			Score:  p.Score,
		})
	}
	return out
}
