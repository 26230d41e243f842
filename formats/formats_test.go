package formats

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-ipd/geometry"
)

func TestReadMatrix(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected [][]float64
		wantErr  bool
	}{
		{
			name:     "Square",
			input:    "1 2 3\n4 5 6\n7 8 9\n",
			expected: [][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}},
		},
		{
			name:     "Blank lines and tabs",
			input:    "\n  1.5e-1\t2\n\n-3   4\n\n",
			expected: [][]float64{{0.15, 2}, {-3, 4}},
		},
		{
			name:    "Ragged",
			input:   "1 2 3\n4 5\n6 7 8",
			wantErr: true,
		},
		{
			name:    "Not a number",
			input:   "1 2\nx 4\n",
			wantErr: true,
		},
		{
			name:    "Infinite",
			input:   "1 Inf\n",
			wantErr: true,
		},
		{
			name:  "Empty",
			input: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadMatrix(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestReadMatrixReportsLine(t *testing.T) {
	_, err := ReadMatrix(strings.NewReader("1 2 3\n\n4 5\n"))
	require.ErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), "line 3")
}

func TestReadHomography(t *testing.T) {
	// H1to2p of the Oxford graffiti sequence.
	const graf = `
   8.7976964e-01   3.1245438e-01  -3.9430589e+01
  -1.8389418e-01   9.3847198e-01   1.5315784e+02
   1.9641425e-04  -1.6015275e-05   1.0000000e+00
`
	h, err := ReadHomography(strings.NewReader(graf))
	require.NoError(t, err)
	assert.InDelta(t, 0.87976964, h.At(0, 0), 1e-12)
	assert.InDelta(t, 153.15784, h.At(1, 2), 1e-9)
	assert.False(t, h.IsAffine())

	_, err = ReadHomography(strings.NewReader("1 0\n0 1\n"))
	assert.ErrorIs(t, err, ErrFormat, "2x2 is not a homography")

	_, err = ReadHomography(strings.NewReader("1 0 0\n0 1 0\n0 0 1\n0 0 1\n"))
	assert.ErrorIs(t, err, ErrFormat, "4x3 is not a homography")

	_, err = ReadHomography(strings.NewReader("1 2 3\n2 4 6\n0 0 1\n"))
	assert.ErrorIs(t, err, geometry.ErrSingular)
}

func TestLoadHomography(t *testing.T) {
	path := filepath.Join(t.TempDir(), "H1to2p")
	require.NoError(t, os.WriteFile(path, []byte("1 0 5\n0 1 -3\n0 0 1\n"), 0o644))

	h, err := LoadHomography(path)
	require.NoError(t, err)
	p, err := h.Project(geometry.Pt(1, 1))
	require.NoError(t, err)
	assert.Equal(t, geometry.Pt(6, -2), p)

	_, err = LoadHomography(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestReadRegions(t *testing.T) {
	const input = `1.0
3
100.5 200.25 0.01 0 0.01
10 20 0.02 0.005 0.03 1 2 3 4
50 60 0.04 -0.01 0.02
`
	regions, err := ReadRegions(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, regions, 3)

	assert.Equal(t, geometry.Pt(100.5, 200.25), regions[0].Center)
	assert.Equal(t, geometry.Shape{XX: 0.02, XY: 0.005, YY: 0.03}, regions[1].Shape, "descriptor columns are ignored")
	assert.Equal(t, MatlabScale, regions[2].Scale)
}

func TestReadRegionsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Short line", "1.0\n1\n1 2 3 4\n"},
		{"Bad number", "1.0\n1\n1 2 a 0 1\n"},
		{"Not positive definite", "1.0\n1\n1 2 1 2 1\n"},
		{"Negative diagonal", "1.0\n1\n1 2 -1 0 -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRegions(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestReadRegionsHeaderOnly(t *testing.T) {
	regions, err := ReadRegions(strings.NewReader("1.0\n0\n"))
	require.NoError(t, err)
	assert.Empty(t, regions)
}

func TestWriteRegionsRoundTrip(t *testing.T) {
	in := []geometry.Region{
		{Center: geometry.Pt(1.0/3.0, 2), Shape: geometry.Shape{XX: 0.0123456789, XY: -0.001, YY: 0.02}, Scale: MatlabScale},
		{Center: geometry.Pt(640, 480), Shape: geometry.Shape{XX: 1, YY: 2}, Scale: MatlabScale},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRegions(&buf, in))
	assert.True(t, strings.HasPrefix(buf.String(), "1.0\n2\n"))

	out, err := ReadRegions(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSaveRegions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img1.haraff")
	in := []geometry.Region{{Center: geometry.Pt(3, 4), Shape: geometry.Shape{XX: 0.5, YY: 0.5}, Scale: MatlabScale}}

	require.NoError(t, SaveRegions(path, in))
	out, err := LoadRegions(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadPNMHeader(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		width  int
		height int
	}{
		{"Binary", "P6\n800 640\n255\n\x00\x01", 800, 640},
		{"Comments", "P5\n# created by a scanner\n# second\n 320\n240 255\n", 320, 240},
		{"Single line", "P3 7 9 255 0 0 0", 7, 9},
		{"Bitmap", "P4\n16 2\n\x00\x00\x00\x00", 16, 2},
		{"Arbitrary map", "P7\nWIDTH 4\nHEIGHT 2\nDEPTH 3\nMAXVAL 255\nTUPLTYPE RGB\nENDHDR\n", 4, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, err := ReadPNMHeader(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.width, w)
			assert.Equal(t, tt.height, h)
		})
	}

	for _, bad := range []string{"", "JFIF", "P6\n800", "P6\n-3 4\n"} {
		_, _, err := ReadPNMHeader(strings.NewReader(bad))
		assert.ErrorIs(t, err, ErrFormat, "input %q", bad)
	}
}

func TestImageBounds(t *testing.T) {
	dir := t.TempDir()

	ppm := filepath.Join(dir, "img1.ppm")
	require.NoError(t, os.WriteFile(ppm, []byte("P6\n800 640\n255\n"), 0o644))
	w, h, err := ImageBounds(ppm)
	require.NoError(t, err)
	assert.Equal(t, 800.0, w)
	assert.Equal(t, 640.0, h)

	png := filepath.Join(dir, "img2.png")
	require.NoError(t, imaging.Save(imaging.New(33, 21, color.NRGBA{A: 255}), png))
	w, h, err = ImageBounds(png)
	require.NoError(t, err)
	assert.Equal(t, 33.0, w)
	assert.Equal(t, 21.0, h)

	_, _, err = ImageBounds(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}
