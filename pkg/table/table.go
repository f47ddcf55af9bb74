// Package table provides the ordered, named, typed columnar container the
// indicator engine and the column classifier operate on.
package table

import (
	"errors"
	"fmt"
)

var (
	// ErrColumnNotFound is returned when a column lookup by name fails.
	ErrColumnNotFound = errors.New("column not found")
	// ErrHeightMismatch is returned when columns of different lengths are combined.
	ErrHeightMismatch = errors.New("column height mismatch")
	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("duplicate column name")
)

// Table is an immutable collection of equally sized, uniquely named columns.
// Row i across all columns is the same observation.
type Table struct {
	cols  []*Series
	index map[string]int
}

// New builds a table from the given columns in order.
func New(cols ...*Series) (*Table, error) {
	t := &Table{index: make(map[string]int, len(cols))}
	for _, c := range cols {
		if c == nil {
			continue
		}
		if _, ok := t.index[c.Name()]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name())
		}
		if len(t.cols) > 0 && c.Len() != t.cols[0].Len() {
			return nil, fmt.Errorf("%w: %q has %d rows, expected %d",
				ErrHeightMismatch, c.Name(), c.Len(), t.cols[0].Len())
		}
		t.index[c.Name()] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// MustNew is New that panics on error. Intended for tests and static tables.
func MustNew(cols ...*Series) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// Height returns the row count.
func (t *Table) Height() int {
	if t == nil || len(t.cols) == 0 {
		return 0
	}
	return t.cols[0].Len()
}

// Width returns the column count.
func (t *Table) Width() int {
	if t == nil {
		return 0
	}
	return len(t.cols)
}

// Names returns the column names in insertion order.
func (t *Table) Names() []string {
	names := make([]string, 0, t.Width())
	for _, c := range t.cols {
		names = append(names, c.Name())
	}
	return names
}

// Columns returns the columns in insertion order.
func (t *Table) Columns() []*Series {
	return append([]*Series(nil), t.cols...)
}

// Has reports whether a column named name exists.
func (t *Table) Has(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[name]
	return ok
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Series, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return t.cols[i], nil
}

// WithColumn returns a new table with s appended, or replacing the column of
// the same name in place. The receiver is left unchanged.
func (t *Table) WithColumn(s *Series) (*Table, error) {
	return t.WithColumns(s)
}

// WithColumns is WithColumn for several series. Either all columns are
// applied or none are.
func (t *Table) WithColumns(ss ...*Series) (*Table, error) {
	cols := t.Columns()
	index := make(map[string]int, len(cols)+len(ss))
	for i, c := range cols {
		index[c.Name()] = i
	}
	h := t.Height()
	for _, s := range ss {
		if len(cols) > 0 && s.Len() != h {
			return nil, fmt.Errorf("%w: %q has %d rows, expected %d",
				ErrHeightMismatch, s.Name(), s.Len(), h)
		}
		if i, ok := index[s.Name()]; ok {
			cols[i] = s
			continue
		}
		index[s.Name()] = len(cols)
		cols = append(cols, s)
		if len(cols) == 1 {
			h = s.Len()
		}
	}
	return &Table{cols: cols, index: index}, nil
}

// Rename returns a new table with column old renamed to name.
func (t *Table) Rename(old, name string) (*Table, error) {
	i, ok := t.index[old]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, old)
	}
	if old == name {
		return t, nil
	}
	if _, dup := t.index[name]; dup {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
	}
	cols := t.Columns()
	cols[i] = cols[i].Rename(name)
	return New(cols...)
}

// Slice returns rows [start, end) of every column.
func (t *Table) Slice(start, end int) *Table {
	cols := make([]*Series, 0, t.Width())
	for _, c := range t.cols {
		cols = append(cols, c.Slice(start, end))
	}
	return MustNew(cols...)
}

// Floats is a convenience for Column(name).Floats().
func (t *Table) Floats(name string) ([]float64, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	return c.Floats(), nil
}
