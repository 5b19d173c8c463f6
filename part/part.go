package part

import (
	"path"
	"time"
)

type (
	// Part is one exported file: the rows of a table snapshot that fell into the same
	// partition.
	Part struct {
		ID        string    `json:"id"`
		Key       string    `json:"key"`
		Partition string    `json:"partition"`
		RowCount  int64     `json:"rowCount"`
		Bytes     int64     `json:"bytes"`
		CreatedAt time.Time `json:"createdAt"`
	}
)

// Key is where a part lives in a data store: frames/<dfID>/<partition>/<partID>.parquet.
// An empty partition puts the part directly under the table's prefix.
func Key(dfID, partition, partID string) string {
	if partition == "" {
		return path.Join("frames", dfID, partID+".parquet")
	}
	return path.Join("frames", dfID, partition, partID+".parquet")
}
