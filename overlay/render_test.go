//go:build cgo

package overlay

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-ipd/geometry"
	"github.com/nvr-ai/go-ipd/repeatability"
)

func renderFixture(t *testing.T) (string, *repeatability.Result) {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "img1.png")
	require.NoError(t, imaging.Save(imaging.New(120, 80, color.NRGBA{A: 255}), src))

	matched, err := geometry.NewRegion(geometry.Pt(60, 40), geometry.Shape{XX: 1.0 / 400, YY: 1.0 / 400}, 1)
	require.NoError(t, err)
	lonely, err := geometry.NewRegion(geometry.Pt(15, 15), geometry.Shape{XX: 1.0 / 25, YY: 1.0 / 25}, 1)
	require.NoError(t, err)

	res := &repeatability.Result{
		Valid1:    repeatability.NewRegionSet([]geometry.Region{matched, lonely}),
		Valid2:    repeatability.NewRegionSet([]geometry.Region{matched}),
		Remapped2: []geometry.Region{matched},
		Matching:  repeatability.Matching{{A: 0, B: 0, Score: 0.9}},
	}
	return src, res
}

func TestRender(t *testing.T) {
	src, res := renderFixture(t)
	out := filepath.Join(t.TempDir(), "overlay.png")

	require.NoError(t, Render(src, out, res, 0.5, Options{Thickness: 3}))

	img, err := imaging.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())

	want := ScoreColor(0.9)
	r, g, b, _ := img.At(80, 40).RGBA()
	assert.InDelta(t, float64(want.R), float64(r>>8), 8, "matched ellipse carries the score colour")
	assert.InDelta(t, float64(want.G), float64(g>>8), 8)
	assert.InDelta(t, 0, float64(b>>8), 8)

	r, g, b, _ = img.At(20, 15).RGBA()
	assert.InDelta(t, float64(Unmatched1.R), float64(r>>8), 8, "unmatched image-1 region")
	assert.InDelta(t, float64(Unmatched1.G), float64(g>>8), 8)
	assert.InDelta(t, float64(Unmatched1.B), float64(b>>8), 8)

	r, g, b, _ = img.At(110, 75).RGBA()
	assert.Zero(t, r|g|b, "background untouched")
}

func TestRenderResizesAndCaptions(t *testing.T) {
	src, res := renderFixture(t)
	out := filepath.Join(t.TempDir(), "overlay.jpg")

	require.NoError(t, Render(src, out, res, 0.95, Options{MaxWidth: 60, Caption: true}))

	img, err := imaging.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 60, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy(), "aspect ratio is kept")
}

func TestRenderMissingImage(t *testing.T) {
	_, res := renderFixture(t)
	err := Render(filepath.Join(t.TempDir(), "missing.png"), "out.png", res, 0.5, Options{})
	assert.Error(t, err)
}
