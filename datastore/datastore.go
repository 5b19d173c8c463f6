package datastore

import (
	"context"
	"io"

	"github.com/danthegoodman1/dfgrid/gologger"
)

var (
	logger = gologger.NewLogger()
)

type (
	// DataStore holds exported files under slash separated keys.
	DataStore interface {
		// WriteFile stores everything read from r under key and returns the byte count
		WriteFile(ctx context.Context, key string, r io.Reader) (int64, error)
		ReadFile(ctx context.Context, key string) ([]byte, error)

		Shutdown(ctx context.Context) error
	}
)
