package parquet_export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danthegoodman1/dfgrid/datastore"
	"github.com/danthegoodman1/dfgrid/gologger"
	"github.com/danthegoodman1/dfgrid/part"
	"github.com/danthegoodman1/dfgrid/partitioner"
	"github.com/danthegoodman1/dfgrid/table"
	"github.com/danthegoodman1/dfgrid/utils"
	"github.com/rs/zerolog"
)

var (
	logger = gologger.NewLogger()

	ErrPartition = errors.New("row cannot be partitioned")
)

type group struct {
	partition string
	rows      []int
}

// Export writes a snapshot of t to store, one parquet file per partition. With no
// plans the whole table is a single part.
func Export(ctx context.Context, store datastore.DataStore, dfID string, t *table.Table, plans []partitioner.PartitionPlan) ([]part.Part, error) {
	ctx = logger.WithContext(ctx)
	logger := zerolog.Ctx(ctx)

	if err := partitioner.Validate(plans); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPartition, err)
	}
	groups, err := groupRows(t, plans)
	if err != nil {
		return nil, err
	}

	schema := BuildSchema(t)
	s := time.Now()
	parts := make([]part.Part, 0, len(groups))
	for _, g := range groups {
		var buf bytes.Buffer
		rowCount, err := Write(&buf, t, schema, g.rows)
		if err != nil {
			return nil, fmt.Errorf("error writing partition %q: %w", g.partition, err)
		}

		partID := utils.GenKSortedID("")
		key := part.Key(dfID, g.partition, partID)
		n, err := store.WriteFile(ctx, key, &buf)
		if err != nil {
			return nil, fmt.Errorf("error in WriteFile: %w", err)
		}
		parts = append(parts, part.Part{
			ID:        partID,
			Key:       key,
			Partition: g.partition,
			RowCount:  rowCount,
			Bytes:     n,
			CreatedAt: time.Now(),
		})
	}

	logger.Debug().Str("dfId", dfID).Int("parts", len(parts)).Str("duration", time.Since(s).String()).Msg("exported table")
	return parts, nil
}

// groupRows buckets row positions by partition, partitions in first-seen order.
func groupRows(t *table.Table, plans []partitioner.PartitionPlan) ([]*group, error) {
	if len(plans) == 0 {
		return []*group{{partition: "", rows: nil}}, nil
	}

	var groups []*group
	byPartition := make(map[string]*group)
	for i := 0; i < t.NumRows(); i++ {
		p, err := partitioner.GetRowPartition(t.Row(i).Map(), plans)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrPartition, i, err)
		}
		g, ok := byPartition[p]
		if !ok {
			g = &group{partition: p}
			byPartition[p] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, i)
	}
	return groups, nil
}
