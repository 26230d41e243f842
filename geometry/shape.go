package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Shape is the symmetric quadratic form of an elliptical region.
//
// A point p lies inside the region centred at c when
//
//	XX·dx² + 2·XY·dx·dy + YY·dy² < 1,  (dx, dy) = p - c
//
// which is the "a b c" convention of the Oxford affine region files.
type Shape struct {
	XX float64 `json:"xx" yaml:"xx"`
	XY float64 `json:"xy" yaml:"xy"`
	YY float64 `json:"yy" yaml:"yy"`
}

// Det returns the determinant of the form.
func (s Shape) Det() float64 {
	return s.XX*s.YY - s.XY*s.XY
}

// Valid reports whether the form is finite and positive definite.
func (s Shape) Valid() bool {
	return finite(s.XX, s.XY, s.YY) && s.XX > 0 && s.Det() > 0
}

// Scaled multiplies every entry by f.
func (s Shape) Scaled(f float64) Shape {
	return Shape{XX: s.XX * f, XY: s.XY * f, YY: s.YY * f}
}

// Eval returns the quadratic form at displacement (dx, dy).
func (s Shape) Eval(dx, dy float64) float64 {
	return s.XX*dx*dx + 2*s.XY*dx*dy + s.YY*dy*dy
}

// Extents returns the half-width and half-height of the axis-aligned box
// enclosing the unit level set of the form.
func (s Shape) Extents() (halfWidth, halfHeight float64) {
	det := s.Det()
	return math.Sqrt(s.YY / det), math.Sqrt(s.XX / det)
}

// Eigenvalues returns the eigenvalues of the form in ascending order.
func (s Shape) Eigenvalues() (lo, hi float64) {
	var es mat.EigenSym
	if !es.Factorize(s.sym(), false) {
		// Closed form fallback; only reachable for non-finite input.
		mean := (s.XX + s.YY) / 2
		r := math.Hypot((s.XX-s.YY)/2, s.XY)
		return mean - r, mean + r
	}
	vals := es.Values(nil)
	return vals[0], vals[1]
}

// Axes returns the semi-axis lengths and the orientation of the major axis
// in radians, normalised to (-π/2, π/2].
func (s Shape) Axes() (major, minor, orientation float64) {
	lo, hi := s.Eigenvalues()
	major = 1 / math.Sqrt(lo)
	minor = 1 / math.Sqrt(hi)

	// Direction of the largest eigenvalue is the minor axis.
	orientation = 0.5*math.Atan2(2*s.XY, s.XX-s.YY) + math.Pi/2
	if orientation > math.Pi/2 {
		orientation -= math.Pi
	}
	return major, minor, orientation
}

// ShapeFromAxes builds the form of an ellipse with the given semi-axes whose
// major axis is rotated by orientation radians.
func ShapeFromAxes(major, minor, orientation float64) Shape {
	c, sn := math.Cos(orientation), math.Sin(orientation)
	ia := 1 / (major * major)
	ib := 1 / (minor * minor)
	return Shape{
		XX: c*c*ia + sn*sn*ib,
		XY: c * sn * (ia - ib),
		YY: sn*sn*ia + c*c*ib,
	}
}

func (s Shape) sym() *mat.SymDense {
	return mat.NewSymDense(2, []float64{s.XX, s.XY, s.XY, s.YY})
}

// congruence returns Aᵀ·S·A, symmetrised.
func (s Shape) congruence(a mat.Matrix) Shape {
	var left, out mat.Dense
	left.Mul(a.T(), s.sym())
	out.Mul(&left, a)
	return Shape{
		XX: out.At(0, 0),
		XY: (out.At(0, 1) + out.At(1, 0)) / 2,
		YY: out.At(1, 1),
	}
}
