package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/GravO8/mrs-dl/internal/table"
)

// Matrix is a dense float64 feature matrix with named columns. Missing
// values are stored as NaN.
type Matrix struct {
	names []string
	index map[string]int
	rows  int
	data  *mat.Dense
}

// NewMatrix creates a zero-filled matrix
func NewMatrix(rows int, names []string) *Matrix {
	m := &Matrix{
		names: append([]string(nil), names...),
		index: make(map[string]int, len(names)),
		rows:  rows,
	}
	for j, name := range names {
		m.index[name] = j
	}
	if rows > 0 && len(names) > 0 {
		m.data = mat.NewDense(rows, len(names), nil)
	}
	return m
}

// FromTable builds a matrix from the named table columns. Cells that do not
// read as numbers become NaN.
func FromTable(t *table.Table, names []string) (*Matrix, error) {
	m := NewMatrix(t.NumRows(), names)
	for j, name := range names {
		values, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			f, ok := v.Float()
			if !ok {
				f = math.NaN()
			}
			m.data.Set(i, j, f)
		}
	}
	return m, nil
}

// Rows returns the number of rows
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns
func (m *Matrix) Cols() int { return len(m.names) }

// Names returns the column names in order
func (m *Matrix) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Has reports whether the column exists
func (m *Matrix) Has(name string) bool {
	_, ok := m.index[name]
	return ok
}

// At returns the value at row i, column j
func (m *Matrix) At(i, j int) float64 {
	return m.data.At(i, j)
}

// Set stores v at row i, column j
func (m *Matrix) Set(i, j int, v float64) {
	m.data.Set(i, j, v)
}

// Row returns a copy of row i
func (m *Matrix) Row(i int) []float64 {
	if m.data == nil {
		return []float64{}
	}
	return mat.Row(nil, i, m.data)
}

// Column returns a copy of the named column
func (m *Matrix) Column(name string) ([]float64, error) {
	j, ok := m.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", table.ErrColumnNotFound, name)
	}
	if m.data == nil {
		return []float64{}, nil
	}
	return mat.Col(nil, j, m.data), nil
}

// SetColumn replaces the named column, or appends it when absent
func (m *Matrix) SetColumn(name string, values []float64) error {
	if len(values) != m.rows {
		return fmt.Errorf("%w: %s has %d values, matrix has %d rows", table.ErrLengthMismatch, name, len(values), m.rows)
	}
	if j, ok := m.index[name]; ok {
		if m.data != nil {
			m.data.SetCol(j, values)
		}
		return nil
	}

	grown := NewMatrix(m.rows, append(m.Names(), name))
	if grown.data != nil {
		if m.data != nil {
			grown.data.Slice(0, m.rows, 0, len(m.names)).(*mat.Dense).Copy(m.data)
		}
		grown.data.SetCol(len(m.names), values)
	}
	*m = *grown
	return nil
}

// Select returns a new matrix holding the named columns in the given order
func (m *Matrix) Select(names []string) (*Matrix, error) {
	out := NewMatrix(m.rows, names)
	for k, name := range names {
		j, ok := m.index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", table.ErrColumnNotFound, name)
		}
		if out.data != nil {
			out.data.SetCol(k, mat.Col(nil, j, m.data))
		}
	}
	return out, nil
}

// RowsAt returns a new matrix holding the given rows in the given order
func (m *Matrix) RowsAt(indices []int) *Matrix {
	out := NewMatrix(len(indices), m.names)
	if out.data == nil {
		return out
	}
	for k, i := range indices {
		out.data.SetRow(k, mat.Row(nil, i, m.data))
	}
	return out
}

// Clone returns a deep copy
func (m *Matrix) Clone() *Matrix {
	out := NewMatrix(m.rows, m.names)
	if out.data != nil {
		out.data.Copy(m.data)
	}
	return out
}

// Dense returns a copy of the underlying matrix, nil when the matrix is empty
func (m *Matrix) Dense() *mat.Dense {
	if m.data == nil {
		return nil
	}
	return mat.DenseCopyOf(m.data)
}

// CompleteRows returns the indices of rows without NaN cells
func (m *Matrix) CompleteRows() []int {
	out := make([]int, 0, m.rows)
	for i := 0; i < m.rows; i++ {
		complete := true
		for j := range m.names {
			if math.IsNaN(m.data.At(i, j)) {
				complete = false
				break
			}
		}
		if complete {
			out = append(out, i)
		}
	}
	return out
}
