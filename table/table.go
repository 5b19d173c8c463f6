// Package table is the in-memory tabular value the registry stores: an ordered set of
// uniquely named columns of equal length, nil marking a null cell.
package table

import (
	"errors"
	"fmt"

	"github.com/danthegoodman1/dfgrid/dtype"
)

var (
	ErrColumnNotFound    = errors.New("column not found")
	ErrColumnExists      = errors.New("column already exists")
	ErrRowOutOfRange     = errors.New("row index out of range")
	ErrColumnLenMismatch = errors.New("column length mismatch")
	ErrEmptyColumnName   = errors.New("empty column name")
	ErrRowWidthMismatch  = errors.New("row width does not match column count")
	ErrReservedName      = errors.New("reserved column name")
)

// RowIndexKey carries a row's position in paged output, so no column may use it.
const RowIndexKey = "__index__"

type (
	Column struct {
		Name string
		// DType is the native storage descriptor, e.g. int64, Int64, datetime64[ns], string[python]
		DType  string
		Values []any
	}

	Table struct {
		columns []*Column
		rows    int
	}
)

func NewColumn(name, descriptor string, values []any) *Column {
	return &Column{
		Name:   name,
		DType:  descriptor,
		Values: values,
	}
}

// Type is the canonical type of the column's descriptor.
func (c *Column) Type() dtype.Type {
	return dtype.Classify(c.DType)
}

// HasNulls reports whether any cell is nil or NaN.
func (c *Column) HasNulls() bool {
	for _, v := range c.Values {
		if dtype.IsNull(v) {
			return true
		}
	}
	return false
}

func (c *Column) clone() *Column {
	vals := make([]any, len(c.Values))
	copy(vals, c.Values)
	return &Column{Name: c.Name, DType: c.DType, Values: vals}
}

// New builds a table from columns, which must have distinct names and equal lengths.
func New(columns ...*Column) (*Table, error) {
	t := &Table{}
	for i, col := range columns {
		if i == 0 {
			t.rows = len(col.Values)
		}
		if err := t.AppendColumn(col); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Empty returns a table with no columns and n rows.
func Empty(n int) *Table {
	return &Table{rows: n}
}

func (t *Table) NumRows() int {
	return t.rows
}

func (t *Table) NumCols() int {
	return len(t.columns)
}

func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.Name
	}
	return names
}

func (t *Table) ColumnAt(i int) *Column {
	return t.columns[i]
}

// ColumnIndex returns the position of name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

func (t *Table) Column(name string) (*Column, bool) {
	i := t.ColumnIndex(name)
	if i < 0 {
		return nil, false
	}
	return t.columns[i], true
}

func (t *Table) Value(row, col int) any {
	return t.columns[col].Values[row]
}

// Row returns the raw values of row i in column order.
func (t *Table) Row(i int) Row {
	r := Row{
		ColNames: t.ColumnNames(),
		ColVals:  make([]any, len(t.columns)),
	}
	for j, col := range t.columns {
		r.ColVals[j] = col.Values[i]
	}
	return r
}

// SetValue overwrites a single cell in place.
func (t *Table) SetValue(row int, column string, v any) error {
	if row < 0 || row >= t.rows {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	col, ok := t.Column(column)
	if !ok {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}
	col.Values[row] = v
	return nil
}

// AppendColumn adds col as the last column in place.
func (t *Table) AppendColumn(col *Column) error {
	if col.Name == "" {
		return ErrEmptyColumnName
	}
	if col.Name == RowIndexKey {
		return fmt.Errorf("%w: %s", ErrReservedName, col.Name)
	}
	if t.HasColumn(col.Name) {
		return fmt.Errorf("%w: %s", ErrColumnExists, col.Name)
	}
	if len(col.Values) != t.rows {
		return fmt.Errorf("%w: %s has %d values, table has %d rows", ErrColumnLenMismatch, col.Name, len(col.Values), t.rows)
	}
	t.columns = append(t.columns, col)
	return nil
}

// ReplaceColumn swaps the column called col.Name for col in place, keeping its position.
func (t *Table) ReplaceColumn(col *Column) error {
	i := t.ColumnIndex(col.Name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, col.Name)
	}
	if len(col.Values) != t.rows {
		return fmt.Errorf("%w: %s has %d values, table has %d rows", ErrColumnLenMismatch, col.Name, len(col.Values), t.rows)
	}
	t.columns[i] = col
	return nil
}

// Clone deep-copies the column slices; cell values themselves are shared.
func (t *Table) Clone() *Table {
	c := &Table{
		columns: make([]*Column, len(t.columns)),
		rows:    t.rows,
	}
	for i, col := range t.columns {
		c.columns[i] = col.clone()
	}
	return c
}
