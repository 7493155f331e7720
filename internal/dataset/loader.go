package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"kernelpipe/internal/common"

	"github.com/rs/zerolog/log"
)

// Option configures matrix parsing.
type Option func(*options)

type options struct {
	samplesAsColumns bool
}

// WithSamplesAsColumns treats each line as one feature and each column as one sample,
// the layout of the fm_*_real.dat data files.
func WithSamplesAsColumns() Option {
	return func(o *options) { o.samplesAsColumns = true }
}

// LoadMatrix reads a delimited feature file.
func LoadMatrix(path string, opts ...Option) (Matrix, error) {
	file, err := os.Open(path)
	if err != nil {
		return Matrix{}, common.NewIOError(path, err)
	}
	defer file.Close()

	m, err := ParseMatrix(file, opts...)
	if err != nil {
		return Matrix{}, withPath(path, err)
	}

	log.Debug().
		Str("file", path).
		Int("rows", m.Rows()).
		Int("cols", m.Cols()).
		Msg("Feature matrix loaded")

	return m, nil
}

// ParseMatrix parses comma and/or whitespace separated rows from r.
func ParseMatrix(r io.Reader, opts ...Option) (Matrix, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var rows [][]float64
	cols := -1
	err := scanRecords(r, func(line int, fields []string) error {
		if cols == -1 {
			cols = len(fields)
		} else if len(fields) != cols {
			return common.NewFormatError(line, fmt.Sprintf("expected %d columns, got %d", cols, len(fields)), nil)
		}
		row, err := parseFields(line, fields)
		if err != nil {
			return err
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return Matrix{}, err
	}
	if len(rows) == 0 {
		return Matrix{}, common.NewFormatError(0, "no data rows", nil)
	}

	m, err := NewMatrix(rows)
	if err != nil {
		return Matrix{}, err
	}
	if o.samplesAsColumns {
		m = m.Transpose()
	}
	return m, nil
}

// LoadLabels reads a label file with one value in {-1, +1} per line.
func LoadLabels(path string) (Labels, error) {
	file, err := os.Open(path)
	if err != nil {
		return Labels{}, common.NewIOError(path, err)
	}
	defer file.Close()

	l, err := ParseLabels(file)
	if err != nil {
		return Labels{}, withPath(path, err)
	}

	log.Debug().Str("file", path).Int("labels", l.Len()).Msg("Label vector loaded")
	return l, nil
}

// ParseLabels parses one label per line from r.
func ParseLabels(r io.Reader) (Labels, error) {
	var values []float64
	err := scanRecords(r, func(line int, fields []string) error {
		if len(fields) != 1 {
			return common.NewFormatError(line, fmt.Sprintf("expected 1 label, got %d values", len(fields)), nil)
		}
		v, err := parseFields(line, fields)
		if err != nil {
			return err
		}
		if v[0] != -1 && v[0] != 1 {
			return common.NewFormatError(line, fmt.Sprintf("label %q is not -1 or +1", fields[0]), nil)
		}
		values = append(values, v[0])
		return nil
	})
	if err != nil {
		return Labels{}, err
	}
	if len(values) == 0 {
		return Labels{}, common.NewFormatError(0, "no labels", nil)
	}
	return NewLabels(values)
}

func scanRecords(r io.Reader, fn func(line int, fields []string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields, err := splitFields(line, text)
		if err != nil {
			return err
		}
		if err := fn(line, fields); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return common.NewIOError("input", err)
	}
	return nil
}

// splitFields splits on commas, then on whitespace within each comma-delimited piece.
// A comma-delimited piece that is empty (as in "3,,4" or "3,4,") is an error.
func splitFields(line int, text string) ([]string, error) {
	var fields []string
	for _, piece := range strings.Split(text, ",") {
		parts := strings.Fields(piece)
		if len(parts) == 0 {
			return nil, common.NewFormatError(line, fmt.Sprintf("column %d is empty", len(fields)+1), nil)
		}
		fields = append(fields, parts...)
	}
	return fields, nil
}

func parseFields(line int, fields []string) ([]float64, error) {
	row := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, common.NewFormatError(line, fmt.Sprintf("column %d: %q is not a number", i+1, f), err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, common.NewFormatError(line, fmt.Sprintf("column %d is not finite", i+1), nil)
		}
		row[i] = v
	}
	return row, nil
}

func withPath(path string, err error) error {
	var fe *common.FormatError
	if errors.As(err, &fe) {
		fe.Path = path
		return fe
	}
	var ioe *common.IOError
	if errors.As(err, &ioe) {
		ioe.Path = path
		return ioe
	}
	return err
}
