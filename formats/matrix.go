// Package formats - Readers and writers for the text files of the Oxford
// affine region benchmark: homography matrices, matlab-style region lists and
// image bounds.
package formats

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrFormat marks malformed input files.
var ErrFormat = errors.New("malformed input")

// ReadMatrix reads whitespace-separated numeric rows. Blank lines are
// skipped and every row must have the width of the first one.
//
// Arguments:
//   - r: The text source.
//
// Returns:
//   - [][]float64: The rows in file order.
//   - error: ErrFormat naming the offending line.
func ReadMatrix(r io.Reader) ([][]float64, error) {
	var rows [][]float64
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(rows) > 0 && len(fields) != len(rows[0]) {
			return nil, errors.Wrapf(ErrFormat, "line %d: %d columns, expected %d", line, len(fields), len(rows[0]))
		}
		row, err := parseFloats(fields)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read matrix")
	}
	return rows, nil
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Wrapf(ErrFormat, "bad number %q", f)
		}
		out[i] = v
	}
	return out, nil
}
