// Package sqlsource loads tables from Postgres or CockroachDB queries.
package sqlsource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/danthegoodman1/dfgrid/dtype"
	"github.com/danthegoodman1/dfgrid/gologger"
	"github.com/danthegoodman1/dfgrid/table"
	"github.com/danthegoodman1/dfgrid/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
)

var logger = gologger.NewLogger()

// Query runs sql in a read-only transaction and returns the result set as a table.
// Transient failures are retried, each attempt bounded by tryTimeout.
func Query(ctx context.Context, pool *pgxpool.Pool, tryTimeout time.Duration, sql string, args ...any) (*table.Table, error) {
	ctx = logger.WithContext(ctx)
	logger := zerolog.Ctx(ctx)

	var result *table.Table
	s := time.Now()
	err := utils.ReliableExecInTx(ctx, pool, tryTimeout, pgx.TxOptions{AccessMode: pgx.ReadOnly}, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("error in tx.Query: %w", err)
		}
		defer rows.Close()

		t, err := Collect(rows, tx.Conn().ConnInfo())
		if err != nil {
			return utils.PermError{Err: err}
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error in ReliableExecInTx: %w", err)
	}

	logger.Debug().Int("rows", result.NumRows()).Int("columns", result.NumCols()).Str("duration", time.Since(s).String()).Msg("loaded table from sql")
	return result, nil
}

// Collect drains rows into a table, naming column types through ci.
func Collect(rows pgx.Rows, ci *pgtype.ConnInfo) (*table.Table, error) {
	fields := rows.FieldDescriptions()
	descriptors := make([]string, len(fields))
	values := make([][]any, len(fields))
	for i, f := range fields {
		typeName := ""
		if dt, ok := ci.DataTypeForOID(f.DataTypeOID); ok {
			typeName = dt.Name
		}
		descriptors[i] = DescriptorForPGType(typeName)
	}

	for rows.Next() {
		raw, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("error in rows.Values: %w", err)
		}
		for i, v := range raw {
			values[i] = append(values[i], ConvertValue(v, descriptors[i]))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	n := 0
	if len(values) > 0 {
		n = len(values[0])
	}
	t := table.Empty(n)
	for i, f := range fields {
		name := string(f.Name)
		for t.HasColumn(name) {
			name += "_"
		}
		col := table.NewColumn(name, descriptors[i], utils.ArrayOrEmpty(values[i]))
		if err := t.AppendColumn(col); err != nil {
			return nil, fmt.Errorf("error in AppendColumn: %w", err)
		}
	}
	return t, nil
}

// DescriptorForPGType maps a Postgres type name to the descriptor its column gets.
func DescriptorForPGType(name string) string {
	switch strings.ToLower(name) {
	case "int2", "int4", "int8", "smallint", "integer", "bigint", "oid":
		return "int64"
	case "float4", "float8", "numeric", "real", "double precision", "decimal":
		return "float64"
	case "bool", "boolean":
		return "bool"
	case "timestamp", "timestamptz", "date":
		return "datetime64[ns]"
	case "text", "varchar", "bpchar", "name", "uuid", "char":
		return "string"
	}
	return "object"
}

// ConvertValue turns a decoded pgx value into a cell for a column of descriptor.
func ConvertValue(v any, descriptor string) any {
	switch c := v.(type) {
	case nil:
		return nil
	case pgtype.Numeric:
		var f float64
		if err := c.AssignTo(&f); err != nil {
			return nil
		}
		v = f
	case [16]byte:
		v = uuid.UUID(c).String()
	case pgtype.UUID:
		if c.Status != pgtype.Present {
			return nil
		}
		v = uuid.UUID(c.Bytes).String()
	case int16:
		v = int64(c)
	case int32:
		v = int64(c)
	case float32:
		v = float64(c)
	}

	if typ := dtype.Classify(descriptor); typ != dtype.Object {
		return dtype.CoerceOrNull(v, typ)
	}
	return v
}
