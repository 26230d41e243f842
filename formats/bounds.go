package formats

import (
	"bufio"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	// Registers the Netpbm formats with the image package.
	_ "github.com/spakin/netpbm"
)

// ImageBounds returns the pixel width and height of an image. Netpbm files
// are read from their header alone; other formats are decoded.
func ImageBounds(path string) (width, height float64, err error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ppm", ".pgm", ".pnm", ".pbm", ".pam":
		f, err := os.Open(path)
		if err != nil {
			return 0, 0, errors.Wrap(err, "open image")
		}
		defer f.Close()

		w, h, err := ReadPNMHeader(f)
		if err != nil {
			return 0, 0, errors.Wrap(err, path)
		}
		return float64(w), float64(h), nil
	}

	img, err := imaging.Open(path)
	if err != nil {
		return 0, 0, errors.Wrap(err, "decode image")
	}
	b := img.Bounds()
	return float64(b.Dx()), float64(b.Dy()), nil
}

// ReadPNMHeader reads the dimensions from a Netpbm header (P1 to P7)
// without decoding the raster.
func ReadPNMHeader(r io.Reader) (width, height int, err error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil || magic[0] != 'P' || magic[1] < '1' || magic[1] > '7' {
		return 0, 0, errors.Wrapf(ErrFormat, "not a netpbm file: magic %q", magic)
	}

	cfg, _, err := image.DecodeConfig(br)
	if err != nil {
		return 0, 0, errors.Wrapf(ErrFormat, "netpbm header: %v", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, errors.Wrapf(ErrFormat, "bad netpbm dimensions %dx%d", cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, nil
}
