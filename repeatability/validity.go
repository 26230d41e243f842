package repeatability

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-ipd/geometry"
)

// FilterVisible keeps the regions of image B whose centres lie strictly
// inside the bounds of image A projected into image B.
//
// Arguments:
//   - set: Regions detected in image B.
//   - width, height: Pixel bounds of image A.
//   - h: The homography mapping image A to image B.
//
// Returns:
//   - RegionSet: The visible subsequence, with Origin composed from set.
//   - error: geometry.ErrDegenerate when the bounds of image A touch or cross
//     the line h maps to infinity.
func FilterVisible(set RegionSet, width, height float64, h geometry.Homography) (RegionSet, error) {
	area, err := geometry.Rect(width, height).Transform(h)
	if err != nil {
		return RegionSet{}, errors.Wrap(err, "project image bounds")
	}

	keep := make([]int, 0, set.Len())
	for i, r := range set.Regions {
		if area.Contains(r.Center) {
			keep = append(keep, i)
		}
	}
	return set.subset(keep), nil
}
