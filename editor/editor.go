// Package editor applies validated cell and structural edits to registered tables.
//
// Every operation checks that the id is registered before anything else, then its
// own preconditions, then builds the new table inside Registry.Update so a failed
// edit never changes the stored entry. Successful edits are written back to the
// caller's variable binding through a Binder.
package editor

import (
	"errors"
	"fmt"
	"time"

	"github.com/danthegoodman1/dfgrid/dtype"
	"github.com/danthegoodman1/dfgrid/gologger"
	"github.com/danthegoodman1/dfgrid/pager"
	"github.com/danthegoodman1/dfgrid/registry"
	"github.com/danthegoodman1/dfgrid/table"
)

var logger = gologger.NewLogger()

// Binder connects tables to the caller's variable scope. Both methods are best
// effort: ResolveDisplayName returns "" when no name is known and Rebind ignores an
// empty name.
type Binder interface {
	ResolveDisplayName(t *table.Table) string
	Rebind(name string, t *table.Table)
}

type Editor struct {
	reg    *registry.Registry
	binder Binder
}

// New returns an Editor over reg. binder may be nil, in which case edits are never
// written back.
func New(reg *registry.Registry, binder Binder) *Editor {
	return &Editor{
		reg:    reg,
		binder: binder,
	}
}

func (e *Editor) Registry() *registry.Registry {
	return e.reg
}

// GetPage returns a clamped page of the table with row positions included.
func (e *Editor) GetPage(id string, page, pageSize int) PageResult {
	var p pager.Page
	if !e.reg.View(id, func(entry registry.Entry) {
		p = pager.Paginate(entry.Table, page, pageSize, pager.WithRowIndex())
	}) {
		err := notFound(id)
		return PageResult{Success: false, Error: err.Error(), err: err}
	}
	return PageResult{
		Success:    true,
		Data:       p.Rows,
		Pagination: p.Pagination,
	}
}

// EditCell coerces value to the column's type and assigns it to one cell. The stored
// table is mutated in place.
func (e *Editor) EditCell(id string, row int, column string, value any) Result {
	return e.apply("edit_cell", id, func(t *table.Table) (*table.Table, error) {
		if row < 0 || row >= t.NumRows() {
			return nil, rowOutOfRange(row)
		}
		col, ok := t.Column(column)
		if !ok {
			return nil, columnNotFound(column)
		}
		v, err := dtype.Coerce(dtype.Normalize(value), col.Type())
		if err != nil {
			return nil, err
		}
		if err := t.SetValue(row, column, v); err != nil {
			return nil, fmt.Errorf("error in SetValue: %w", err)
		}
		return t, nil
	})
}

// AddRow appends a row. Keys of rowData naming a column are coerced to that
// column's type, other keys are ignored and missing columns are null. A nil rowData
// appends an all-null row.
func (e *Editor) AddRow(id string, rowData map[string]any) Result {
	return e.apply("add_row", id, func(t *table.Table) (*table.Table, error) {
		values := make([]any, t.NumCols())
		if rowData != nil {
			for i := 0; i < t.NumCols(); i++ {
				col := t.ColumnAt(i)
				raw, ok := rowData[col.Name]
				if !ok {
					continue
				}
				v, err := dtype.Coerce(dtype.Normalize(raw), col.Type())
				if err != nil {
					return nil, err
				}
				values[i] = v
			}
		}
		return t.WithRow(values)
	})
}

// DeleteRow removes a row. Later rows move up, so positions stay contiguous.
func (e *Editor) DeleteRow(id string, row int) Result {
	return e.apply("delete_row", id, func(t *table.Table) (*table.Table, error) {
		if row < 0 || row >= t.NumRows() {
			return nil, rowOutOfRange(row)
		}
		return t.WithoutRow(row)
	})
}

// AddColumn appends a column of dtypeName (object when empty) filled with
// defaultValue coerced to that type, or nulls when defaultValue is nil.
func (e *Editor) AddColumn(id, column, dtypeName string, defaultValue any) Result {
	return e.apply("add_column", id, func(t *table.Table) (*table.Table, error) {
		if t.HasColumn(column) {
			return nil, columnExists(column)
		}
		if column == "" {
			return nil, newError(InvalidArgument, table.ErrEmptyColumnName, "Column name must not be empty")
		}
		if column == table.RowIndexKey {
			return nil, reservedName(column)
		}
		if dtypeName == "" {
			dtypeName = dtype.Object.String()
		}
		typ, err := dtype.Parse(dtypeName)
		if err != nil {
			return nil, newError(InvalidArgument, err, "%s", err.Error())
		}

		fill, err := dtype.Coerce(dtype.Normalize(defaultValue), typ)
		if err != nil {
			return nil, err
		}
		values := make([]any, t.NumRows())
		for i := range values {
			values[i] = fill
		}

		next := t.Clone()
		if err := next.AppendColumn(table.NewColumn(column, typ.StorageDescriptor(), values)); err != nil {
			return nil, fmt.Errorf("error in AppendColumn: %w", err)
		}
		return next, nil
	})
}

func (e *Editor) DeleteColumn(id, column string) Result {
	return e.apply("delete_column", id, func(t *table.Table) (*table.Table, error) {
		if !t.HasColumn(column) {
			return nil, columnNotFound(column)
		}
		return t.WithoutColumn(column)
	})
}

// RenameColumn renames column in place in the column order. Renaming a column to
// its current name succeeds and changes nothing.
func (e *Editor) RenameColumn(id, column, newName string) Result {
	return e.apply("rename_column", id, func(t *table.Table) (*table.Table, error) {
		if !t.HasColumn(column) {
			return nil, columnNotFound(column)
		}
		if newName != column && t.HasColumn(newName) {
			return nil, columnExists(newName)
		}
		if newName == "" {
			return nil, newError(InvalidArgument, table.ErrEmptyColumnName, "Column name must not be empty")
		}
		if newName == table.RowIndexKey {
			return nil, reservedName(newName)
		}
		return t.WithColumnRenamed(column, newName)
	})
}

// ChangeColumnType converts every cell of column to newType. Cells that cannot be
// converted become null rather than failing the edit.
func (e *Editor) ChangeColumnType(id, column, newType string) Result {
	return e.apply("change_column_type", id, func(t *table.Table) (*table.Table, error) {
		col, ok := t.Column(column)
		if !ok {
			return nil, columnNotFound(column)
		}
		typ, err := dtype.Parse(newType)
		if err != nil {
			return nil, newError(InvalidArgument, err, "%s", err.Error())
		}

		values := make([]any, len(col.Values))
		for i, v := range col.Values {
			values[i] = dtype.CoerceOrNull(dtype.Normalize(v), typ)
		}
		next := t.Clone()
		if err := next.ReplaceColumn(table.NewColumn(column, typ.StorageDescriptor(), values)); err != nil {
			return nil, fmt.Errorf("error in ReplaceColumn: %w", err)
		}
		return next, nil
	})
}

// Cleanup drops entries not edited within maxAge, or every entry when maxAge <= 0.
func (e *Editor) Cleanup(maxAge time.Duration) registry.CleanupResult {
	res := e.reg.Sweep(maxAge)
	logger.Debug().Int("removed", res.Removed).Int("remaining", res.Remaining).Msg("cleaned up registry")
	return res
}

// apply runs build on the registered table under the registry lock and commits its
// result only when it succeeds.
func (e *Editor) apply(op, id string, build func(t *table.Table) (*table.Table, error)) Result {
	var md table.Metadata
	entry, err := e.reg.Update(id, func(entry registry.Entry) (*table.Table, error) {
		next, err := guard(func() (*table.Table, error) {
			return build(entry.Table)
		})
		if err != nil {
			return nil, err
		}
		md = table.BuildMetadata(next)
		return next, nil
	})
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return failure(notFound(id))
		}
		editErr := asEditError(err)
		if editErr.Kind == Internal {
			logger.Error().Err(err).Str("op", op).Str("dfId", id).Msg("edit failed")
		} else {
			logger.Debug().Err(err).Str("op", op).Str("dfId", id).Msg("edit rejected")
		}
		return failure(editErr)
	}

	if e.binder != nil && entry.DisplayName != "" {
		e.binder.Rebind(entry.DisplayName, entry.Table)
	}
	return success(md)
}

// guard turns a panic inside build into an Internal error.
func guard(build func() (*table.Table, error)) (next *table.Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			next = nil
			err = &Error{Kind: Internal, Msg: fmt.Sprint(r)}
		}
	}()
	return build()
}
