package table

import (
	"bytes"
	"encoding/json"
)

// Row is an ordered column -> value object. It marshals as a JSON object whose keys
// keep column order.
type Row struct {
	// The list of column names, same order as ColVals
	ColNames []string
	// The list of column values, same order as ColNames
	ColVals []any
}

func (r Row) Get(name string) (any, bool) {
	for i, n := range r.ColNames {
		if n == name {
			return r.ColVals[i], true
		}
	}
	return nil, false
}

// Set overwrites name's value or appends it as the last key.
func (r *Row) Set(name string, v any) {
	for i, n := range r.ColNames {
		if n == name {
			r.ColVals[i] = v
			return
		}
	}
	r.ColNames = append(r.ColNames, name)
	r.ColVals = append(r.ColVals, v)
}

// Map returns the row as an unordered map.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.ColNames))
	for i, n := range r.ColNames {
		m[n] = r.ColVals[i]
	}
	return m
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, name := range r.ColNames {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(name); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1) // Encode appends a newline
		buf.WriteByte(':')
		if err := enc.Encode(r.ColVals[i]); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
