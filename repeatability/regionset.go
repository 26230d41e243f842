// Package repeatability - Repeatability of affine-covariant interest point
// detectors under a known planar homography.
//
// The pipeline restricts both region sets to the mutually visible area,
// scores every cross pair by normalised ellipse overlap, prunes the pairs to
// a one-to-one matching in descending score order, and reduces the matching
// to a repeatability ratio at a chosen overlap threshold.
package repeatability

import "github.com/nvr-ai/go-ipd/geometry"

// RegionSet is an ordered list of regions together with the index each one
// had in the detector output.
type RegionSet struct {
	// Regions are the regions in their current order.
	Regions []geometry.Region
	// Origin maps an index in Regions to the detector output index.
	Origin []int
}

// NewRegionSet wraps detector output with the identity index mapping.
func NewRegionSet(regions []geometry.Region) RegionSet {
	origin := make([]int, len(regions))
	for i := range origin {
		origin[i] = i
	}
	return RegionSet{Regions: regions, Origin: origin}
}

// Len returns the number of regions.
func (s RegionSet) Len() int {
	return len(s.Regions)
}

// OriginalIndex returns the detector output index of region i.
func (s RegionSet) OriginalIndex(i int) int {
	return s.Origin[i]
}

// subset keeps the listed indices, composing the origin mapping.
func (s RegionSet) subset(keep []int) RegionSet {
	out := RegionSet{
		Regions: make([]geometry.Region, 0, len(keep)),
		Origin:  make([]int, 0, len(keep)),
	}
	for _, i := range keep {
		out.Regions = append(out.Regions, s.Regions[i])
		out.Origin = append(out.Origin, s.Origin[i])
	}
	return out
}
