package geometry

import "github.com/pkg/errors"

// Polygon is a closed polygon given by its vertices in order.
type Polygon []Point

// Rect returns the bounds (0,0)-(width,height) as a polygon.
func Rect(width, height float64) Polygon {
	return Polygon{{0, 0}, {width, 0}, {width, height}, {0, height}}
}

// Transform maps every vertex through h. The polygon must lie entirely on
// one side of the line h sends to infinity, otherwise its image is not a
// bounded polygon and ErrDegenerate is returned.
func (pg Polygon) Transform(h Homography) (Polygon, error) {
	out := make(Polygon, len(pg))
	var positive, negative bool
	for i, v := range pg {
		switch w := h.W(v); {
		case w > 0:
			positive = true
		case w < 0:
			negative = true
		default:
			return nil, errors.Wrapf(ErrDegenerate, "polygon vertex %d at infinity", i)
		}
		if positive && negative {
			return nil, errors.Wrapf(ErrDegenerate, "polygon crosses the line at infinity at vertex %d", i)
		}
		p, err := h.Project(v)
		if err != nil {
			return nil, errors.Wrapf(err, "polygon vertex %d", i)
		}
		out[i] = p
	}
	return out, nil
}

// Contains reports whether p lies strictly inside a convex polygon. Points on
// an edge are outside. Vertex order may be clockwise or counter-clockwise.
func (pg Polygon) Contains(p Point) bool {
	if len(pg) < 3 {
		return false
	}
	var sign int
	for i := range pg {
		a, b := pg[i], pg[(i+1)%len(pg)]
		cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
		switch {
		case cross > 0:
			if sign < 0 {
				return false
			}
			sign = 1
		case cross < 0:
			if sign > 0 {
				return false
			}
			sign = -1
		default:
			return false
		}
	}
	return true
}

// Area returns the absolute shoelace area.
func (pg Polygon) Area() float64 {
	var sum float64
	for i := range pg {
		a, b := pg[i], pg[(i+1)%len(pg)]
		sum += a.X*b.Y - b.X*a.Y
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}
