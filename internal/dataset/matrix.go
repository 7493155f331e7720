// Package dataset provides the feature matrix and label vector types consumed by the
// kernel, SVM, and embedding packages, together with loaders for delimited text files.
//
// Both types are read-only once constructed. Accessors that return slices hand out
// views into the backing storage, and callers must not mutate them.
package dataset

import (
	"fmt"
	"math"

	"kernelpipe/internal/common"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a row-major feature matrix: one sample per row, all rows of equal length.
type Matrix struct {
	rows, cols int
	data       []float64
}

// NewMatrix copies rows into a Matrix. It fails with a FormatError when rows have
// different lengths, when there are no rows or columns, or when a value is NaN/Inf.
// Rows are counted from 1 in the error reason; the error carries no file line.
func NewMatrix(rows [][]float64) (Matrix, error) {
	if len(rows) == 0 {
		return Matrix{}, common.NewFormatError(0, "matrix has no rows", nil)
	}
	cols := len(rows[0])
	if cols == 0 {
		return Matrix{}, common.NewFormatError(0, "matrix has no columns", nil)
	}

	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return Matrix{}, common.NewFormatError(0,
				fmt.Sprintf("row %d: expected %d columns, got %d", i+1, cols, len(r)), nil)
		}
		for j, v := range r {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Matrix{}, common.NewFormatError(0,
					fmt.Sprintf("row %d column %d is not finite", i+1, j+1), nil)
			}
		}
		data = append(data, r...)
	}
	return Matrix{rows: len(rows), cols: cols, data: data}, nil
}

// FromDense copies a gonum matrix into a Matrix.
func FromDense(d mat.Matrix) (Matrix, error) {
	r, c := d.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = make([]float64, c)
		for j := range rows[i] {
			rows[i][j] = d.At(i, j)
		}
	}
	return NewMatrix(rows)
}

func (m Matrix) Rows() int { return m.rows }
func (m Matrix) Cols() int { return m.cols }

// Row returns a view of sample i.
func (m Matrix) Row(i int) []float64 {
	return m.data[i*m.cols : (i+1)*m.cols : (i+1)*m.cols]
}

func (m Matrix) At(i, j int) float64 { return m.data[i*m.cols+j] }

// Dense returns a gonum copy of the matrix.
func (m Matrix) Dense() *mat.Dense {
	data := make([]float64, len(m.data))
	copy(data, m.data)
	return mat.NewDense(m.rows, m.cols, data)
}

// RowsCopy returns a deep copy of the matrix as nested slices.
func (m Matrix) RowsCopy() [][]float64 {
	out := make([][]float64, m.rows)
	for i := range out {
		out[i] = append([]float64(nil), m.Row(i)...)
	}
	return out
}

// Transpose returns the matrix with rows and columns swapped.
func (m Matrix) Transpose() Matrix {
	data := make([]float64, len(m.data))
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			data[j*m.rows+i] = m.data[i*m.cols+j]
		}
	}
	return Matrix{rows: m.cols, cols: m.rows, data: data}
}

// Labels is a binary label vector with values in {-1, +1}.
type Labels struct {
	values []float64
}

// NewLabels validates and copies values.
func NewLabels(values []float64) (Labels, error) {
	if len(values) == 0 {
		return Labels{}, common.NewFormatError(0, "label vector is empty", nil)
	}
	out := make([]float64, len(values))
	for i, v := range values {
		if v != -1 && v != 1 {
			return Labels{}, common.NewFormatError(i+1,
				fmt.Sprintf("label %v is not -1 or +1", v), nil)
		}
		out[i] = v
	}
	return Labels{values: out}, nil
}

func (l Labels) Len() int { return len(l.values) }

func (l Labels) At(i int) float64 { return l.values[i] }

// Values returns a copy of the labels.
func (l Labels) Values() []float64 {
	return append([]float64(nil), l.values...)
}

// ErrorRate returns the fraction of positions where l and other disagree.
func (l Labels) ErrorRate(other Labels) (float64, error) {
	if l.Len() != other.Len() {
		return 0, common.NewDimensionError("label count", l.Len(), other.Len())
	}
	if l.Len() == 0 {
		return 0, nil
	}
	wrong := 0
	for i, v := range l.values {
		if other.values[i] != v {
			wrong++
		}
	}
	return float64(wrong) / float64(l.Len()), nil
}
