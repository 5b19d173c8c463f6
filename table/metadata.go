package table

import "github.com/danthegoodman1/dfgrid/dtype"

type (
	ColumnInfo struct {
		Name     string     `json:"name"`
		DType    dtype.Type `json:"dtype"`
		Nullable bool       `json:"nullable"`
	}

	Metadata struct {
		Columns   []ColumnInfo `json:"columns"`
		TotalRows int          `json:"totalRows"`
	}
)

// DescribeColumns derives {name, canonical type, nullable} for every column, in order.
func DescribeColumns(t *Table) []ColumnInfo {
	infos := make([]ColumnInfo, 0, t.NumCols())
	for _, col := range t.columns {
		infos = append(infos, ColumnInfo{
			Name:     col.Name,
			DType:    col.Type(),
			Nullable: col.HasNulls(),
		})
	}
	return infos
}

func BuildMetadata(t *Table) Metadata {
	return Metadata{
		Columns:   DescribeColumns(t),
		TotalRows: t.NumRows(),
	}
}
