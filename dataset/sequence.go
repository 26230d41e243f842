// Package dataset - Loader for Oxford-style benchmark sequences.
//
// A sequence directory holds the images img1..imgN, the homographies H1to2p
// through H1toNp mapping the reference image onto each other image, and one
// region file per image written by the detector under test.
package dataset

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Frame is one image of a sequence.
type Frame struct {
	// Index is N in imgN.
	Index int `json:"index"`
	// ImagePath is the image file.
	ImagePath string `json:"image_path"`
	// RegionsPath is the detector output for the image.
	RegionsPath string `json:"regions_path"`
	// HomographyPath maps the reference image onto this one. It is empty for
	// the reference itself.
	HomographyPath string `json:"homography_path,omitempty"`
}

// Sequence is a reference image and the images compared against it.
type Sequence struct {
	// Name is the directory base name, e.g. graf.
	Name string `json:"name"`
	// Dir is the sequence directory.
	Dir string `json:"dir"`
	// Reference is img1.
	Reference Frame `json:"reference"`
	// Pairs are img2..imgN in index order.
	Pairs []Frame `json:"pairs"`
}

var imageExts = map[string]bool{
	".ppm": true, ".pgm": true, ".pnm": true,
	".png": true, ".jpg": true, ".jpeg": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// LoadSequence scans dir for an Oxford-style sequence.
//
// Arguments:
//   - dir: The sequence directory.
//   - regionExt: The region file extension without the dot, e.g. haraff.
//     Both imgN.haraff and imgN.ppm.haraff are recognised.
//
// Returns:
//   - *Sequence: The frames ordered by index.
//   - error: An error naming the missing file when an image lacks its region
//     file or homography, or when img1 is absent.
func LoadSequence(dir, regionExt string) (*Sequence, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "read sequence directory")
	}
	regionExt = strings.TrimPrefix(regionExt, ".")

	names := make(map[string]bool, len(entries))
	var frames []Frame
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names[entry.Name()] = true

		ext := filepath.Ext(entry.Name())
		if !imageExts[strings.ToLower(ext)] {
			continue
		}
		index, ok := imageIndex(strings.TrimSuffix(entry.Name(), ext))
		if !ok {
			continue
		}
		frames = append(frames, Frame{Index: index, ImagePath: filepath.Join(dir, entry.Name())})
	}

	sort.Slice(frames, func(i, j int) bool {
		return frames[i].Index < frames[j].Index
	})
	if len(frames) == 0 || frames[0].Index != 1 {
		return nil, errors.Errorf("sequence %s has no reference image img1", dir)
	}
	for i := 1; i < len(frames); i++ {
		if frames[i].Index == frames[i-1].Index {
			return nil, errors.Errorf("sequence %s has two images with index %d", dir, frames[i].Index)
		}
	}

	for i := range frames {
		f := &frames[i]
		f.RegionsPath, err = regionsFile(dir, names, f, regionExt)
		if err != nil {
			return nil, err
		}
		if f.Index == 1 {
			continue
		}
		h := "H1to" + strconv.Itoa(f.Index) + "p"
		if !names[h] {
			return nil, errors.Errorf("sequence %s: missing homography %s", dir, h)
		}
		f.HomographyPath = filepath.Join(dir, h)
	}

	return &Sequence{
		Name:      filepath.Base(filepath.Clean(dir)),
		Dir:       dir,
		Reference: frames[0],
		Pairs:     frames[1:],
	}, nil
}

// imageIndex parses N from imgN.
func imageIndex(stem string) (int, bool) {
	if !strings.HasPrefix(stem, "img") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(stem, "img"))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func regionsFile(dir string, names map[string]bool, f *Frame, regionExt string) (string, error) {
	base := filepath.Base(f.ImagePath)
	candidates := []string{
		"img" + strconv.Itoa(f.Index) + "." + regionExt,
		base + "." + regionExt,
	}
	for _, c := range candidates {
		if names[c] {
			return filepath.Join(dir, c), nil
		}
	}
	return "", errors.Errorf("sequence %s: missing region file %s", dir, candidates[0])
}

// Len returns the number of image pairs.
func (s *Sequence) Len() int {
	return len(s.Pairs)
}
