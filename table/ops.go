package table

import "fmt"

// WithRow returns a copy of t with values appended as the last row. values must be
// in column order.
func (t *Table) WithRow(values []any) (*Table, error) {
	if len(values) != len(t.columns) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrRowWidthMismatch, len(values), len(t.columns))
	}
	c := t.Clone()
	for i, col := range c.columns {
		col.Values = append(col.Values, values[i])
	}
	c.rows++
	return c, nil
}

// WithoutRow returns a copy of t without row i. Later rows shift down by one.
func (t *Table) WithoutRow(i int) (*Table, error) {
	if i < 0 || i >= t.rows {
		return nil, fmt.Errorf("%w: %d", ErrRowOutOfRange, i)
	}
	c := &Table{
		columns: make([]*Column, len(t.columns)),
		rows:    t.rows - 1,
	}
	for j, col := range t.columns {
		vals := make([]any, 0, t.rows-1)
		vals = append(vals, col.Values[:i]...)
		vals = append(vals, col.Values[i+1:]...)
		c.columns[j] = &Column{Name: col.Name, DType: col.DType, Values: vals}
	}
	return c, nil
}

// WithoutColumn returns a copy of t without the named column.
func (t *Table) WithoutColumn(name string) (*Table, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	c := &Table{rows: t.rows}
	for j, col := range t.columns {
		if j == idx {
			continue
		}
		c.columns = append(c.columns, col.clone())
	}
	return c, nil
}

// WithColumnRenamed returns a copy of t with column from called to. Renaming a
// column to its own name is allowed.
func (t *Table) WithColumnRenamed(from, to string) (*Table, error) {
	idx := t.ColumnIndex(from)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, from)
	}
	if to == "" {
		return nil, ErrEmptyColumnName
	}
	if to == RowIndexKey {
		return nil, fmt.Errorf("%w: %s", ErrReservedName, to)
	}
	if to != from && t.HasColumn(to) {
		return nil, fmt.Errorf("%w: %s", ErrColumnExists, to)
	}
	c := t.Clone()
	c.columns[idx].Name = to
	return c, nil
}
