package table

import (
	"errors"
	"fmt"
)

var (
	// ErrColumnNotFound is returned when a named column is absent
	ErrColumnNotFound = errors.New("column not found")
	// ErrLengthMismatch is returned when a column does not match the table height
	ErrLengthMismatch = errors.New("column length does not match table rows")
)

// Table is a column-oriented record table. Column order is preserved.
//
// A Table is owned by exactly one pipeline invocation at a time. Stages that
// receive a *Table may mutate it and must hand back the table the next stage
// should see; callers never keep using a table they have passed on.
type Table struct {
	names []string
	index map[string]int
	cols  [][]Value
	rows  int
}

// New creates an empty table with the given number of rows
func New(rows int) *Table {
	return &Table{
		index: make(map[string]int),
		rows:  rows,
	}
}

// FromRows builds a table from a header and row-major values. Short rows are
// padded with Missing.
func FromRows(header []string, rows [][]Value) (*Table, error) {
	t := New(len(rows))
	for j, name := range header {
		col := make([]Value, len(rows))
		for i, row := range rows {
			if j < len(row) {
				col[i] = row[j]
			}
		}
		if err := t.SetColumn(name, col); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// NumRows returns the number of rows
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the number of columns
func (t *Table) NumColumns() int { return len(t.names) }

// Columns returns the column names in order
func (t *Table) Columns() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Has reports whether the column exists
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns a copy of the named column
func (t *Table) Column(name string) ([]Value, error) {
	j, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	out := make([]Value, t.rows)
	copy(out, t.cols[j])
	return out, nil
}

// SetColumn adds the column or replaces it in place, keeping its position
func (t *Table) SetColumn(name string, values []Value) error {
	if len(values) != t.rows {
		return fmt.Errorf("%w: %s has %d values, table has %d rows", ErrLengthMismatch, name, len(values), t.rows)
	}
	col := make([]Value, len(values))
	copy(col, values)
	if j, ok := t.index[name]; ok {
		t.cols[j] = col
		return nil
	}
	t.index[name] = len(t.names)
	t.names = append(t.names, name)
	t.cols = append(t.cols, col)
	return nil
}

// DropColumn removes the named column
func (t *Table) DropColumn(name string) error {
	j, ok := t.index[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	t.names = append(t.names[:j], t.names[j+1:]...)
	t.cols = append(t.cols[:j], t.cols[j+1:]...)
	delete(t.index, name)
	for k := j; k < len(t.names); k++ {
		t.index[t.names[k]] = k
	}
	return nil
}

// Row is a read-only view of one table row
type Row struct {
	t *Table
	i int
}

// Index returns the row position
func (r Row) Index() int { return r.i }

// Get returns the cell for the column, Missing when the column is absent
func (r Row) Get(name string) Value {
	j, ok := r.t.index[name]
	if !ok {
		return Missing()
	}
	return r.t.cols[j][r.i]
}

// Row returns a view of row i
func (t *Table) Row(i int) Row {
	return Row{t: t, i: i}
}

// Filter returns a new table holding the rows for which keep returns true
func (t *Table) Filter(keep func(Row) bool) *Table {
	indices := make([]int, 0, t.rows)
	for i := 0; i < t.rows; i++ {
		if keep(t.Row(i)) {
			indices = append(indices, i)
		}
	}
	return t.Take(indices)
}

// Take returns a new table holding the given rows in the given order
func (t *Table) Take(indices []int) *Table {
	out := New(len(indices))
	for j, name := range t.names {
		col := make([]Value, len(indices))
		for k, i := range indices {
			col[k] = t.cols[j][i]
		}
		out.index[name] = j
		out.names = append(out.names, name)
		out.cols = append(out.cols, col)
	}
	return out
}

// Select returns a new table with only the named columns, in the given order
func (t *Table) Select(names []string) (*Table, error) {
	out := New(t.rows)
	for _, name := range names {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		if err := out.SetColumn(name, col); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Clone returns a compact deep copy of the table
func (t *Table) Clone() *Table {
	out := New(t.rows)
	out.names = make([]string, len(t.names))
	copy(out.names, t.names)
	out.cols = make([][]Value, len(t.cols))
	for j, col := range t.cols {
		out.cols[j] = make([]Value, len(col))
		copy(out.cols[j], col)
		out.index[t.names[j]] = j
	}
	return out
}
