package geometry

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Homography is a non-singular 3x3 projective transform from image-1 to
// image-2 coordinates. The zero value is the identity.
type Homography struct {
	m *mat.Dense
}

// Identity returns the identity homography.
func Identity() Homography {
	return Homography{m: mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})}
}

// NewHomography builds a homography from 9 row-major values.
//
// Arguments:
//   - values: The row-major matrix entries.
//
// Returns:
//   - Homography: The transform.
//   - error: ErrSingular when the matrix has no inverse, or a plain error when
//     the value count is wrong or an entry is not finite.
func NewHomography(values []float64) (Homography, error) {
	if len(values) != 9 {
		return Homography{}, errors.Errorf("homography needs 9 values, got %d", len(values))
	}
	if !finite(values...) {
		return Homography{}, errors.New("homography has non-finite entries")
	}
	data := make([]float64, 9)
	copy(data, values)
	h := Homography{m: mat.NewDense(3, 3, data)}
	if _, err := h.Inverse(); err != nil {
		return Homography{}, err
	}
	return h, nil
}

func (h Homography) dense() *mat.Dense {
	if h.m == nil {
		return Identity().m
	}
	return h.m
}

// At returns entry (i, j).
func (h Homography) At(i, j int) float64 {
	return h.dense().At(i, j)
}

// Values returns a row-major copy of the entries.
func (h Homography) Values() []float64 {
	out := make([]float64, 0, 9)
	d := h.dense()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out = append(out, d.At(i, j))
		}
	}
	return out
}

// Inverse returns the reverse mapping.
func (h Homography) Inverse() (Homography, error) {
	d := h.dense()
	if det := mat.Det(d); det == 0 || !finite(det) {
		return Homography{}, errors.Wrap(ErrSingular, "homography inverse")
	}
	var inv mat.Dense
	if err := inv.Inverse(d); err != nil {
		return Homography{}, errors.Wrapf(ErrSingular, "homography inverse: %v", err)
	}
	return Homography{m: &inv}, nil
}

// Mul returns the composition h·o, which applies o first.
func (h Homography) Mul(o Homography) Homography {
	var out mat.Dense
	out.Mul(h.dense(), o.dense())
	return Homography{m: &out}
}

// W returns the homogeneous coordinate of p under h. Points with w of
// opposite signs lie on opposite sides of the line mapped to infinity.
func (h Homography) W(p Point) float64 {
	d := h.dense()
	return d.At(2, 0)*p.X + d.At(2, 1)*p.Y + d.At(2, 2)
}

// Project maps p through the full projective transform, normalising the
// homogeneous coordinate.
func (h Homography) Project(p Point) (Point, error) {
	d := h.dense()
	w := h.W(p)
	if w == 0 || !finite(w) {
		return Point{}, errors.Wrapf(ErrDegenerate, "project (%g, %g)", p.X, p.Y)
	}
	return Point{
		X: (d.At(0, 0)*p.X + d.At(0, 1)*p.Y + d.At(0, 2)) / w,
		Y: (d.At(1, 0)*p.X + d.At(1, 1)*p.Y + d.At(1, 2)) / w,
	}, nil
}

// Jacobian returns the projected point and the 2x2 local linearisation of
// the transform at p.
func (h Homography) Jacobian(p Point) (Point, *mat.Dense, error) {
	q, err := h.Project(p)
	if err != nil {
		return Point{}, nil, err
	}
	d := h.dense()
	w := h.W(p)
	x := []float64{q.X, q.Y}
	j := mat.NewDense(2, 2, nil)
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			j.Set(r, c, (d.At(r, c)-x[r]*d.At(2, c))/w)
		}
	}
	return q, j, nil
}

// IsAffine reports whether the last row is (0, 0, 1) up to scale.
func (h Homography) IsAffine() bool {
	d := h.dense()
	return d.At(2, 0) == 0 && d.At(2, 1) == 0 && d.At(2, 2) != 0
}

func (h Homography) String() string {
	v := h.Values()
	return fmt.Sprintf("[%g %g %g; %g %g %g; %g %g %g]", v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7], v[8])
}

// ApproxEqual reports whether every entry of h and o differs by at most tol.
func (h Homography) ApproxEqual(o Homography, tol float64) bool {
	a, b := h.Values(), o.Values()
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}
