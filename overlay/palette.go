package overlay

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	// Unmatched1 draws image-1 regions without a match.
	Unmatched1 = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	// Unmatched2 draws remapped image-2 regions without a match.
	Unmatched2 = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// ScoreColor maps an overlap in [0, 1] onto a red to green hue ramp.
func ScoreColor(score float64) color.RGBA {
	if math.IsNaN(score) {
		score = 0
	}
	score = math.Max(0, math.Min(1, score))
	r, g, b := colorful.Hsv(120*score, 1, 1).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
