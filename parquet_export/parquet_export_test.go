package parquet_export

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/danthegoodman1/dfgrid/datastore"
	"github.com/danthegoodman1/dfgrid/dtype"
	"github.com/danthegoodman1/dfgrid/partitioner"
	"github.com/danthegoodman1/dfgrid/table"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

func orders(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New(
		table.NewColumn("order id", "int64", []any{int64(1), int64(2), int64(3)}),
		table.NewColumn("Amount", "float64", []any{9.5, nil, 12.0}),
		table.NewColumn("amount", "Int64", []any{int64(9), nil, int64(12)}),
		table.NewColumn("paid", "boolean", []any{true, false, nil}),
		table.NewColumn("placed", "datetime64[ns]", []any{
			time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC),
			time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC),
		}),
		table.NewColumn("9lives", "category", []any{"a", "b", "a"}),
	)
	require.NoError(t, err)
	return tbl
}

func TestSchemaString(t *testing.T) {
	schema := BuildSchema(orders(t))
	require.Equal(t, []string{"order_id", "Amount", "amount_2", "paid", "placed", "c_9lives"}, schema.ColumnNames())

	s, err := schema.String()
	require.NoError(t, err)
	require.Equal(t, `{"Tag":"name=parquet_go_root, repetitiontype=REQUIRED","Fields":[`+
		`{"Tag":"type=INT64, name=order_id, repetitiontype=OPTIONAL"},`+
		`{"Tag":"type=DOUBLE, name=Amount, repetitiontype=OPTIONAL"},`+
		`{"Tag":"type=INT64, name=amount_2, repetitiontype=OPTIONAL"},`+
		`{"Tag":"type=BOOLEAN, name=paid, repetitiontype=OPTIONAL"},`+
		`{"Tag":"type=INT64, convertedtype=TIMESTAMP_MILLIS, name=placed, repetitiontype=OPTIONAL"},`+
		`{"Tag":"type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN, name=c_9lives, repetitiontype=OPTIONAL"}]}`, s)
}

func TestJSONValue(t *testing.T) {
	placed := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	require.Equal(t, placed.UnixMilli(), jsonValue(placed, dtype.Datetime))
	require.Nil(t, jsonValue(nil, dtype.Int))
	require.Nil(t, jsonValue(math.Inf(1), dtype.Float))
	require.Equal(t, "True", jsonValue(true, dtype.String))
	require.Equal(t, int64(3), jsonValue("3", dtype.Int))
}

func TestExportPartitioned(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := datastore.NewDiskDataStore(root)
	require.NoError(t, err)

	tbl := orders(t)
	parts, err := Export(ctx, store, "abc123", tbl, []partitioner.PartitionPlan{
		{Func: "toYear", Args: []string{"placed"}, As: "y"},
		{Func: "toMonth", Args: []string{"placed"}, As: "m"},
	})
	require.NoError(t, err)
	require.Len(t, parts, 2)
	require.Equal(t, "y=2024/m=01", parts[0].Partition)
	require.Equal(t, int64(2), parts[0].RowCount)
	require.Equal(t, "y=2024/m=02", parts[1].Partition)
	require.Equal(t, int64(1), parts[1].RowCount)
	require.Equal(t, "frames/abc123/y=2024/m=01/"+parts[0].ID+".parquet", parts[0].Key)

	schemaString, err := BuildSchema(tbl).String()
	require.NoError(t, err)
	for _, p := range parts {
		require.Positive(t, p.Bytes)
		path, err := store.Path(p.Key)
		require.NoError(t, err)

		fr, err := local.NewLocalFileReader(path)
		require.NoError(t, err)
		pr, err := reader.NewParquetReader(fr, schemaString, 4)
		require.NoError(t, err)
		require.Equal(t, p.RowCount, pr.GetNumRows())
		pr.ReadStop()
		require.NoError(t, fr.Close())
	}
}

func TestExportWholeTable(t *testing.T) {
	store, err := datastore.NewDiskDataStore(t.TempDir())
	require.NoError(t, err)

	parts, err := Export(context.Background(), store, "xyz", orders(t), nil)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	require.Equal(t, "", parts[0].Partition)
	require.Equal(t, int64(3), parts[0].RowCount)
	require.Equal(t, "frames/xyz/"+parts[0].ID+".parquet", parts[0].Key)

	_, err = Export(context.Background(), store, "xyz", orders(t), []partitioner.PartitionPlan{{Func: "nope", As: "n"}})
	require.ErrorIs(t, err, partitioner.ErrFuncNotFound)
	require.ErrorIs(t, err, ErrPartition)
}
