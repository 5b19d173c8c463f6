package parquet_export

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/danthegoodman1/dfgrid/dtype"
	"github.com/danthegoodman1/dfgrid/table"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// Write encodes the given rows of t, in order, as one parquet file. A nil rows
// writes every row.
func Write(w io.Writer, t *table.Table, schema Schema, rows []int) (int64, error) {
	schemaString, err := schema.String()
	if err != nil {
		return 0, fmt.Errorf("error in Schema.String: %w", err)
	}

	pw, err := writer.NewJSONWriterFromWriter(schemaString, w, 4)
	if err != nil {
		return 0, fmt.Errorf("error in writer.NewJSONWriterFromWriter: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	if rows == nil {
		rows = make([]int, t.NumRows())
		for i := range rows {
			rows[i] = i
		}
	}

	colIdx := make([]int, len(schema.Fields))
	for i, field := range schema.Fields {
		colIdx[i] = t.ColumnIndex(field.Column)
		if colIdx[i] < 0 {
			return 0, fmt.Errorf("%w: %s", table.ErrColumnNotFound, field.Column)
		}
	}

	var written int64
	for _, r := range rows {
		rec := make(map[string]any, len(schema.Fields))
		for i, field := range schema.Fields {
			rec[field.Tag.Name] = jsonValue(t.Value(r, colIdx[i]), field.Type)
		}
		b, err := json.Marshal(rec)
		if err != nil {
			return written, fmt.Errorf("error in json.Marshal: %w", err)
		}
		if err := pw.Write(string(b)); err != nil {
			return written, fmt.Errorf("error in JSONWriter.Write: %w", err)
		}
		written++
	}

	if err := pw.WriteStop(); err != nil {
		return written, fmt.Errorf("error in WriteStop: %w", err)
	}
	return written, nil
}

// jsonValue converts a cell to what the JSON writer expects for a field of type t.
func jsonValue(v any, t dtype.Type) any {
	if dtype.IsNull(v) {
		return nil
	}
	switch t {
	case dtype.Int, dtype.Bool:
		return dtype.CoerceOrNull(v, t)
	case dtype.Float:
		f, ok := dtype.CoerceOrNull(v, t).(float64)
		if !ok || math.IsInf(f, 0) {
			return nil
		}
		return f
	case dtype.Datetime:
		ts, ok := dtype.CoerceOrNull(v, t).(time.Time)
		if !ok {
			return nil
		}
		return ts.UnixMilli()
	}
	return dtype.Render(v)
}
