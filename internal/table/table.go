// Package table holds the in-memory row model shared by every pipeline stage:
// an ordered list of column names and rows of nullable string cells.
//
// Row order is significant. Stages may append derived columns or build new
// tables, but never reorder or drop input rows.
package table

import (
	"database/sql"
	"fmt"
)

// Cell is a nullable text value. Absent values (empty input fields, SQL NULL,
// unmatched join fields) have Valid == false.
type Cell = sql.NullString

// Row is one record aligned to Table.Columns.
type Row []Cell

// Value returns a non-null cell holding s.
func Value(s string) Cell { return Cell{String: s, Valid: true} }

// Null returns an absent cell.
func Null() Cell { return Cell{} }

// Table is an ordered, column-named collection of rows.
type Table struct {
	Columns []string
	Rows    []Row

	index map[string]int
}

// New returns an empty table with the given columns. Duplicate column names
// are rejected.
func New(columns ...string) (*Table, error) {
	t := &Table{Columns: append([]string(nil), columns...)}
	if err := t.reindex(); err != nil {
		return nil, err
	}
	return t, nil
}

// MustNew is New for fixed column sets; it panics on duplicate names.
func MustNew(columns ...string) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) reindex() error {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := t.index[c]; dup {
			return fmt.Errorf("table: duplicate column %q", c)
		}
		t.index[c] = i
	}
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of column name.
func (t *Table) Index(name string) (int, bool) {
	if t.index == nil {
		_ = t.reindex()
	}
	i, ok := t.index[name]
	return i, ok
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool {
	_, ok := t.Index(name)
	return ok
}

// Append adds a row. The row must match the column count.
func (t *Table) Append(r Row) error {
	if len(r) != len(t.Columns) {
		return fmt.Errorf("table: row has %d cells, want %d", len(r), len(t.Columns))
	}
	t.Rows = append(t.Rows, r)
	return nil
}

// Column returns the cells of column name in row order.
func (t *Table) Column(name string) ([]Cell, error) {
	i, ok := t.Index(name)
	if !ok {
		return nil, fmt.Errorf("table: no column %q", name)
	}
	out := make([]Cell, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// AddColumn appends a column with one value per existing row.
func (t *Table) AddColumn(name string, vals []Cell) error {
	if t.Has(name) {
		return fmt.Errorf("table: column %q already exists", name)
	}
	if len(vals) != len(t.Rows) {
		return fmt.Errorf("table: column %q has %d values, want %d", name, len(vals), len(t.Rows))
	}
	t.Columns = append(t.Columns, name)
	t.index[name] = len(t.Columns) - 1
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], vals[i])
	}
	return nil
}

// Select returns a new table holding only the named columns, in the given
// order. Row cells are copied.
func (t *Table) Select(names ...string) (*Table, error) {
	idx := make([]int, len(names))
	for j, n := range names {
		i, ok := t.Index(n)
		if !ok {
			return nil, fmt.Errorf("table: no column %q", n)
		}
		idx[j] = i
	}
	out, err := New(names...)
	if err != nil {
		return nil, err
	}
	out.Rows = make([]Row, len(t.Rows))
	for r, row := range t.Rows {
		nr := make(Row, len(idx))
		for j, i := range idx {
			nr[j] = row[i]
		}
		out.Rows[r] = nr
	}
	return out, nil
}
