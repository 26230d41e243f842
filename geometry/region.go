package geometry

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Region is an elliptical interest region.
type Region struct {
	// Center is the region centre in image coordinates.
	Center Point `json:"center" yaml:"center"`
	// Shape is the quadratic form whose unit level set is the region boundary.
	Shape Shape `json:"shape" yaml:"shape"`
	// Scale is the characteristic scale reported by the detector. It is carried
	// through transforms unchanged.
	Scale float64 `json:"scale" yaml:"scale"`
}

// NewRegion validates shape and returns the region.
func NewRegion(center Point, shape Shape, scale float64) (Region, error) {
	if !shape.Valid() {
		return Region{}, errors.Wrapf(ErrInvalidShape, "xx=%g xy=%g yy=%g", shape.XX, shape.XY, shape.YY)
	}
	if !finite(center.X, center.Y, scale) {
		return Region{}, errors.Errorf("region has non-finite centre or scale: (%g, %g) scale %g", center.X, center.Y, scale)
	}
	return Region{Center: center, Shape: shape, Scale: scale}, nil
}

// FromAxes builds a region from its semi-axis lengths and the orientation of
// the major axis in radians.
func FromAxes(center Point, major, minor, orientation, scale float64) (Region, error) {
	if !(major > 0) || !(minor > 0) {
		return Region{}, errors.Wrapf(ErrInvalidShape, "axes %g, %g", major, minor)
	}
	if minor > major {
		major, minor = minor, major
		orientation += math.Pi / 2
	}
	return NewRegion(center, ShapeFromAxes(major, minor, orientation), scale)
}

// Axes returns the semi-axis lengths and the major axis orientation.
func (r Region) Axes() (major, minor, orientation float64) {
	return r.Shape.Axes()
}

// Area returns the closed-form ellipse area π·major·minor.
func (r Region) Area() float64 {
	major, minor, _ := r.Axes()
	return math.Pi * major * minor
}

// Radius returns the geometric-mean radius sqrt(major·minor). In terms of
// the form this is 1/sqrt(sqrt(λ1)·sqrt(λ2)).
func (r Region) Radius() float64 {
	return 1 / math.Sqrt(math.Sqrt(r.Shape.Det()))
}

// Transform maps the region through h. The centre goes through the full
// projective map; the shape goes through the Jacobian J of the map at the
// centre, S' = J⁻ᵀ·S·J⁻¹.
//
// Arguments:
//   - h: The transform to apply.
//
// Returns:
//   - Region: The transformed region.
//   - error: ErrDegenerate if the centre projects to infinity, ErrSingular if
//     the local linearisation cannot be inverted.
func (r Region) Transform(h Homography) (Region, error) {
	center, j, err := h.Jacobian(r.Center)
	if err != nil {
		return Region{}, err
	}
	if mat.Det(j) == 0 {
		return Region{}, errors.Wrapf(ErrSingular, "jacobian at (%g, %g)", r.Center.X, r.Center.Y)
	}
	var jinv mat.Dense
	if err := jinv.Inverse(j); err != nil {
		return Region{}, errors.Wrapf(ErrSingular, "jacobian at (%g, %g): %v", r.Center.X, r.Center.Y, err)
	}
	return NewRegion(center, r.Shape.congruence(&jinv), r.Scale)
}

// Contains reports whether p lies strictly inside the region.
func (r Region) Contains(p Point) bool {
	d := p.Sub(r.Center)
	return r.Shape.Eval(d.X, d.Y) < 1
}

func (r Region) String() string {
	return fmt.Sprintf("region (%.2f, %.2f) [%g %g %g] scale %g",
		r.Center.X, r.Center.Y, r.Shape.XX, r.Shape.XY, r.Shape.YY, r.Scale)
}
