package formats

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-ipd/geometry"
)

// MatlabScale is the detection scale assigned to regions read from matlab
// style files, which do not carry one.
const MatlabScale = 20.0

// regionVersion is written on the first line of region files.
const regionVersion = "1.0"

// ReadRegions reads a matlab-style region list:
//
//	1.0
//	<count>
//	x y a b c [descriptor...]
//
// The version and count lines are not checked. Columns after the shape are
// ignored, so descriptor files load as plain regions.
//
// Arguments:
//   - r: The text source.
//
// Returns:
//   - []geometry.Region: The regions in file order.
//   - error: ErrFormat for short lines, bad numbers or shapes that are not
//     positive definite.
func ReadRegions(r io.Reader) ([]geometry.Region, error) {
	var regions []geometry.Region
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line, header := 0, 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if header < 2 {
			header++
			continue
		}
		if len(fields) < 5 {
			return nil, errors.Wrapf(ErrFormat, "line %d: %d fields, region needs 5", line, len(fields))
		}
		v, err := parseFloats(fields[:5])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		region, err := geometry.NewRegion(geometry.Pt(v[0], v[1]), geometry.Shape{XX: v[2], XY: v[3], YY: v[4]}, MatlabScale)
		if err != nil {
			return nil, errors.Wrapf(ErrFormat, "line %d: %v", line, err)
		}
		regions = append(regions, region)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read regions")
	}
	return regions, nil
}

// LoadRegions reads a region file such as img1.haraff.
func LoadRegions(path string) ([]geometry.Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open regions")
	}
	defer f.Close()

	regions, err := ReadRegions(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return regions, nil
}

// WriteRegions writes regions in the format read by ReadRegions. Values are
// written with the shortest representation that reads back exactly.
func WriteRegions(w io.Writer, regions []geometry.Region) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n%d\n", regionVersion, len(regions))
	for _, r := range regions {
		for i, v := range []float64{r.Center.X, r.Center.Y, r.Shape.XX, r.Shape.XY, r.Shape.YY} {
			if i > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}
	return errors.Wrap(bw.Flush(), "write regions")
}

// SaveRegions writes regions to path.
func SaveRegions(path string, regions []geometry.Region) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create regions")
	}
	if err := WriteRegions(f, regions); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close regions")
}
