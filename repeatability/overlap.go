package repeatability

import (
	"math"

	"github.com/chewxy/math32"

	"github.com/nvr-ai/go-ipd/geometry"
)

const (
	// DefaultMaxDistanceFactor is the distance gate multiple used by the
	// Oxford evaluation code.
	DefaultMaxDistanceFactor = 4.0
	// DefaultGridSteps is the number of samples across the smaller side of the
	// integration box.
	DefaultGridSteps = 50

	// normalizedRadius is the radius both shapes are scaled to before sampling.
	normalizedRadius = 30.0
	// maxGridSamples bounds the integration grid for extremely elongated
	// pairs. Pairs beyond it score 0 and are flagged degenerate.
	maxGridSamples = 1 << 24
)

// Scorer computes the normalised overlap of two regions that are expressed
// in the same image frame.
//
// The overlap is the intersection over union of the two ellipses, estimated
// by sampling a regular grid. Sampling keeps the estimate independent of the
// relative orientation of the ellipses and reproduces the numbers of the
// reference matlab evaluation.
type Scorer struct {
	// MaxDistanceFactor scales the distance gate; zero means the default.
	MaxDistanceFactor float64
	// GridSteps is the sampling resolution; zero means the default.
	GridSteps int
	// ScaleDisplacement normalises the centre displacement together with the
	// shapes. The sampled ratio then estimates the true intersection over
	// union, which is symmetric and scale invariant. When false the
	// displacement stays in pixels, as in the matlab evaluation, and pairs of
	// different size score differently in each direction.
	ScaleDisplacement bool
}

// Overlap scores a pair with the default gate and resolution.
func Overlap(e1, e2 geometry.Region) float64 {
	score, _ := Scorer{}.Score(e1, e2)
	return score
}

// Threshold returns the centre distance at or beyond which e1 rejects any
// partner.
func (s Scorer) Threshold(e1 geometry.Region) float64 {
	return e1.Radius() * s.factor()
}

func (s Scorer) factor() float64 {
	if s.MaxDistanceFactor > 0 {
		return s.MaxDistanceFactor
	}
	return DefaultMaxDistanceFactor
}

func (s Scorer) steps() float32 {
	if s.GridSteps > 0 {
		return float32(s.GridSteps)
	}
	return DefaultGridSteps
}

// Score returns the overlap of e1 and e2 in [0, 1].
//
// Arguments:
//   - e1: The reference region; its radius sets the gate and the normalisation.
//   - e2: The candidate region, already mapped into the frame of e1.
//
// Returns:
//   - float64: The overlap, 0 when the pair is gated out or degenerate.
//   - bool: True when the pair passed the gate but the sampled union was empty
//     or the integration box could not be built.
func (s Scorer) Score(e1, e2 geometry.Region) (float64, bool) {
	maxDistance := e1.Radius()
	if e1.Center.Distance(e2.Center) >= maxDistance*s.factor() {
		return 0, false
	}

	scale := normalizedRadius / maxDistance
	scale = 1 / (scale * scale)
	s1 := e1.Shape.Scaled(scale)
	s2 := e2.Shape.Scaled(scale)

	ox, oy := e2.Center.X-e1.Center.X, e2.Center.Y-e1.Center.Y
	if s.ScaleDisplacement {
		k := normalizedRadius / maxDistance
		ox, oy = ox*k, oy*k
	}
	dx, dy := float32(ox), float32(oy)

	w1, h1 := s1.Extents()
	w2, h2 := s2.Extents()
	if !finiteAll(w1, h1, w2, h2) {
		return 0, true
	}
	fw1, fh1, fw2, fh2 := float32(w1), float32(h1), float32(w2), float32(h2)

	maxx := math32.Ceil(max(fw1, dx+fw2))
	minx := math32.Floor(min(-fw1, dx-fw2))
	maxy := math32.Ceil(max(fh1, dy+fh2))
	miny := math32.Floor(min(-fh1, dy-fh2))

	mina := min(maxx-minx, maxy-miny)
	dr := mina / s.steps()
	if !(dr > 0) || math32.IsInf(dr, 0) {
		return 0, true
	}
	if float64((maxx-minx)/dr)*float64((maxy-miny)/dr) > maxGridSamples {
		return 0, true
	}

	var intersection, union int
	for rx := minx; rx <= maxx; rx += dr {
		rx2 := rx - dx
		for ry := miny; ry <= maxy; ry += dr {
			ry2 := ry - dy
			a := float32(s1.Eval(float64(rx), float64(ry)))
			b := float32(s2.Eval(float64(rx2), float64(ry2)))
			if a < 1 && b < 1 {
				intersection++
			}
			if a < 1 || b < 1 {
				union++
			}
		}
	}
	if union == 0 {
		return 0, true
	}
	return float64(intersection) / float64(union), false
}

func finiteAll(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
