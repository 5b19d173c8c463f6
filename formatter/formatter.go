// Package formatter builds the display payload a notebook client renders for a table.
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/danthegoodman1/dfgrid/editor"
	"github.com/danthegoodman1/dfgrid/pager"
	"github.com/danthegoodman1/dfgrid/registry"
	"github.com/danthegoodman1/dfgrid/table"
	"github.com/danthegoodman1/dfgrid/utils"
)

// MIMEType identifies display payloads to the client.
const MIMEType = "application/vnd.promptbook.dataframe+json"

type (
	Display struct {
		DFID         string             `json:"dfId"`
		VariableName string             `json:"variableName"`
		Columns      []table.ColumnInfo `json:"columns"`
		TotalRows    int                `json:"totalRows"`
		PageData     []table.Row        `json:"pageData"`
		Pagination   pager.Pagination   `json:"pagination"`
	}

	Formatter struct {
		reg             *registry.Registry
		binder          editor.Binder
		defaultPageSize int
	}
)

func New(reg *registry.Registry, binder editor.Binder, defaultPageSize int) *Formatter {
	if defaultPageSize <= 0 {
		defaultPageSize = pager.DefaultPageSize
	}
	return &Formatter{
		reg:             reg,
		binder:          binder,
		defaultPageSize: defaultPageSize,
	}
}

// Format registers t under a new id and returns its first requested page. Every call
// mints a new id, so displaying the same table twice yields two entries.
func (f *Formatter) Format(t *table.Table, varName string, page, pageSize int) Display {
	if pageSize <= 0 {
		pageSize = f.defaultPageSize
	}
	id := f.reg.Register(t, varName)
	p := pager.Paginate(t, page, pageSize)
	return Display{
		DFID:         id,
		VariableName: varName,
		Columns:      utils.ArrayOrEmpty(table.DescribeColumns(t)),
		TotalRows:    t.NumRows(),
		PageData:     utils.ArrayOrEmpty(p.Rows),
		Pagination:   p.Pagination,
	}
}

// Render formats t under whatever name the binder resolves and returns the JSON body
// for MIMEType.
func (f *Formatter) Render(t *table.Table) ([]byte, error) {
	var name string
	if f.binder != nil {
		name = f.binder.ResolveDisplayName(t)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(f.Format(t, name, 0, f.defaultPageSize)); err != nil {
		return nil, fmt.Errorf("error encoding display: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Bundle is Render keyed by MIME type, the shape display hooks consume.
func (f *Formatter) Bundle(t *table.Table) (map[string]json.RawMessage, error) {
	b, err := f.Render(t)
	if err != nil {
		return nil, err
	}
	return map[string]json.RawMessage{MIMEType: b}, nil
}
