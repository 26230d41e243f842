// Package overlay - Renders evaluated regions onto the reference image.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-ipd/geometry"
	"github.com/nvr-ai/go-ipd/repeatability"
)

// Options controls the rendering.
type Options struct {
	// MaxWidth downsizes wider images; zero keeps the original size.
	MaxWidth int
	// Thickness is the line width of matched ellipses (default: 2).
	Thickness int
	// Caption writes the repeatability in the top-left corner.
	Caption bool
}

// Render draws the valid image-1 regions, the remapped image-2 regions and
// the matched pairs above threshold onto the image at imagePath, and saves
// the result to outPath. The output format follows the outPath extension.
func Render(imagePath, outPath string, res *repeatability.Result, threshold float64, opts Options) error {
	if res == nil {
		return errors.New("overlay needs an evaluation result")
	}
	thickness := opts.Thickness
	if thickness <= 0 {
		thickness = 2
	}

	img := gocv.IMRead(imagePath, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return errors.Errorf("read image %s", imagePath)
	}

	matched1 := map[int]float64{}
	matched2 := map[int]float64{}
	for _, p := range res.Matching {
		if p.Score > threshold {
			matched1[p.A] = p.Score
			matched2[p.B] = p.Score
		}
	}

	for i, r := range res.Valid1.Regions {
		if _, ok := matched1[i]; !ok {
			drawRegion(&img, r, Unmatched1, 1)
		}
	}
	for j, r := range res.Remapped2 {
		if _, ok := matched2[j]; !ok && r.Shape.Valid() {
			drawRegion(&img, r, Unmatched2, 1)
		}
	}
	for _, p := range res.Matching {
		if p.Score <= threshold {
			continue
		}
		c := ScoreColor(p.Score)
		drawRegion(&img, res.Valid1.Regions[p.A], c, thickness)
		drawRegion(&img, res.Remapped2[p.B], c, thickness)
	}

	if opts.Caption {
		s := res.Summary(threshold)
		text := fmt.Sprintf("repeatability %s @ %.2f (%d/%d)", caption(s.Repeatability), threshold, s.Matches, s.Potential)
		gocv.PutText(&img, text, image.Pt(10, 30), gocv.FontHersheyPlain, 1.2, color.RGBA{R: 255, G: 255, A: 255}, 2)
	}

	out, err := img.ToImage()
	if err != nil {
		return errors.Wrap(err, "convert overlay")
	}
	if opts.MaxWidth > 0 && out.Bounds().Dx() > opts.MaxWidth {
		out = resize.Resize(uint(opts.MaxWidth), 0, out, resize.Lanczos3)
	}
	return errors.Wrapf(imaging.Save(out, outPath), "save overlay %s", outPath)
}

func caption(v float64) string {
	if repeatability.IsUndefined(v) {
		return "undefined"
	}
	return fmt.Sprintf("%.3f", v)
}

func drawRegion(img *gocv.Mat, r geometry.Region, c color.RGBA, thickness int) {
	center, axes, angle := EllipseParams(r)
	gocv.Ellipse(img, center, axes, angle, 0, 360, c, thickness)
}

// EllipseParams converts a region into the integer centre, semi-axes and
// rotation in degrees expected by OpenCV.
func EllipseParams(r geometry.Region) (center, axes image.Point, angle float64) {
	major, minor, orientation := r.Axes()
	center = image.Pt(int(math.Round(r.Center.X)), int(math.Round(r.Center.Y)))
	axes = image.Pt(max(1, int(math.Round(major))), max(1, int(math.Round(minor))))
	return center, axes, orientation * 180 / math.Pi
}
