// Package metastore catalogs the parquet parts written by exports.
package metastore

import (
	"context"

	"github.com/danthegoodman1/dfgrid/gologger"
	"github.com/danthegoodman1/dfgrid/part"
)

var (
	logger = gologger.NewLogger()
)

type (
	MetaStore interface {
		// RecordParts adds parts exported from one registered table
		RecordParts(ctx context.Context, sessionID, dfID string, parts []part.Part) error

		// ListParts lists every part recorded for a table, oldest first
		ListParts(ctx context.Context, sessionID, dfID string) ([]part.Part, error)

		Shutdown(ctx context.Context) error
	}
)
