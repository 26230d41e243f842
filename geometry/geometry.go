// Package geometry - Planar geometry for affine-covariant interest regions.
//
// Regions are ellipses described by a centre and a 2x2 symmetric positive
// definite quadratic form. Homographies map image-1 coordinates to image-2
// coordinates. All values are immutable; transforms return new values.
package geometry

import (
	"math"

	"github.com/pkg/errors"
)

var (
	// ErrSingular is returned when a homography (or its local linearisation)
	// cannot be inverted.
	ErrSingular = errors.New("singular matrix")
	// ErrInvalidShape is returned when a shape matrix is not symmetric positive
	// definite or carries non-finite entries.
	ErrInvalidShape = errors.New("shape is not positive definite")
	// ErrDegenerate is returned when a point projects to infinity.
	ErrDegenerate = errors.New("degenerate projection")
)

// Point is a real-valued image coordinate.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
