// Package pager slices a table into fixed-size windows of JSON-safe rows.
package pager

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/danthegoodman1/dfgrid/dtype"
	"github.com/danthegoodman1/dfgrid/table"
)

const (
	DefaultPageSize = 25
	// RowIndexKey carries a row's position in the edit-support page shape
	RowIndexKey = table.RowIndexKey
)

type (
	Pagination struct {
		Page       int `json:"page"`
		PageSize   int `json:"pageSize"`
		TotalRows  int `json:"totalRows"`
		TotalPages int `json:"totalPages"`
	}

	Page struct {
		Pagination Pagination
		Rows       []table.Row
	}

	options struct {
		rowIndex bool
	}

	Option func(*options)
)

// WithRowIndex prepends each row's position under RowIndexKey.
func WithRowIndex() Option {
	return func(o *options) {
		o.rowIndex = true
	}
}

// Window computes the clamped page for a table of totalRows rows. A pageSize of zero
// or less falls back to DefaultPageSize.
func Window(totalRows, page, pageSize int) Pagination {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if totalRows < 0 {
		totalRows = 0
	}
	totalPages := (totalRows + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 0 {
		page = 0
	}
	if page > totalPages-1 {
		page = totalPages - 1
	}
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalRows:  totalRows,
		TotalPages: totalPages,
	}
}

// Bounds is the half-open row range [start, end) the window covers.
func (p Pagination) Bounds() (int, int) {
	start := p.Page * p.PageSize
	if start > p.TotalRows {
		start = p.TotalRows
	}
	end := start + p.PageSize
	if end > p.TotalRows {
		end = p.TotalRows
	}
	return start, end
}

// Paginate returns the clamped window of t with every cell converted by ConvertCell.
func Paginate(t *table.Table, page, pageSize int, opts ...Option) Page {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	p := Window(t.NumRows(), page, pageSize)
	start, end := p.Bounds()
	names := t.ColumnNames()

	rows := make([]table.Row, 0, end-start)
	for i := start; i < end; i++ {
		row := table.Row{
			ColNames: make([]string, 0, len(names)+1),
			ColVals:  make([]any, 0, len(names)+1),
		}
		if o.rowIndex {
			row.ColNames = append(row.ColNames, RowIndexKey)
			row.ColVals = append(row.ColVals, i)
		}
		for j, name := range names {
			row.ColNames = append(row.ColNames, name)
			row.ColVals = append(row.ColVals, ConvertCell(t.Value(i, j)))
		}
		rows = append(rows, row)
	}
	return Page{Pagination: p, Rows: rows}
}

// ConvertCell turns a cell into a value encoding/json can always marshal.
func ConvertCell(v any) any {
	switch c := v.(type) {
	case nil:
		return nil
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return c
	case float64:
		return convertFloat(c)
	case float32:
		return convertFloat(float64(c))
	case json.Number:
		return dtype.Normalize(c)
	case time.Time:
		return FormatTime(c)
	case *time.Time:
		if c == nil {
			return nil
		}
		return FormatTime(*c)
	case []byte:
		return string(c)
	case fmt.Stringer:
		return c.String()
	}
	return v
}

func convertFloat(f float64) any {
	switch {
	case math.IsNaN(f):
		return nil
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return f
}

// FormatTime renders an ISO-8601 timestamp. Fractional seconds are omitted when zero,
// written as microseconds when that is exact, nanoseconds otherwise. UTC times carry
// no offset.
func FormatTime(t time.Time) string {
	layout := "2006-01-02T15:04:05"
	switch ns := t.Nanosecond(); {
	case ns == 0:
	case ns%1000 == 0:
		layout += ".000000"
	default:
		layout += ".000000000"
	}
	if t.Location() != time.UTC {
		layout += "-07:00"
	}
	return t.Format(layout)
}
