package formats

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-ipd/geometry"
)

// ReadHomography reads a 3x3 matrix mapping image-1 to image-2 coordinates.
// A singular matrix is reported as geometry.ErrSingular.
func ReadHomography(r io.Reader) (geometry.Homography, error) {
	rows, err := ReadMatrix(r)
	if err != nil {
		return geometry.Homography{}, err
	}
	if len(rows) != 3 || len(rows[0]) != 3 {
		cols := 0
		if len(rows) > 0 {
			cols = len(rows[0])
		}
		return geometry.Homography{}, errors.Wrapf(ErrFormat, "homography is %dx%d, expected 3x3", len(rows), cols)
	}

	values := make([]float64, 0, 9)
	for _, row := range rows {
		values = append(values, row...)
	}
	return geometry.NewHomography(values)
}

// LoadHomography reads a homography file such as H1to2p.
func LoadHomography(path string) (geometry.Homography, error) {
	f, err := os.Open(path)
	if err != nil {
		return geometry.Homography{}, errors.Wrap(err, "open homography")
	}
	defer f.Close()

	h, err := ReadHomography(f)
	if err != nil {
		return geometry.Homography{}, errors.Wrap(err, path)
	}
	return h, nil
}
