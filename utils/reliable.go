package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UltimateTournament/backoff/v4"
	"github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgx"
	"github.com/danthegoodman1/dfgrid/gologger"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const maxExecRetries = 5

var logger = gologger.NewLogger()

type permanent interface {
	IsPermanent() bool
}

// ReliableExec acquires a pool connection and runs f, retrying transient failures
// with exponential backoff. Each attempt gets its own tryTimeout.
func ReliableExec(ctx context.Context, pool *pgxpool.Pool, tryTimeout time.Duration, f func(ctx context.Context, conn *pgxpool.Conn) error) error {
	return retry(ctx, func() error {
		tryCtx, cancel := context.WithTimeout(ctx, tryTimeout)
		defer cancel()
		conn, err := pool.Acquire(tryCtx)
		if err != nil {
			return fmt.Errorf("error in pool.Acquire: %w", err)
		}
		defer conn.Release()
		return f(tryCtx, conn)
	})
}

// ReliableExecInTx is ReliableExec inside a transaction; serialization failures
// are retried by crdbpgx before the outer backoff sees them.
func ReliableExecInTx(ctx context.Context, pool *pgxpool.Pool, tryTimeout time.Duration, txOptions pgx.TxOptions, f func(ctx context.Context, tx pgx.Tx) error) error {
	return retry(ctx, func() error {
		tryCtx, cancel := context.WithTimeout(ctx, tryTimeout)
		defer cancel()
		return crdbpgx.ExecuteTx(tryCtx, pool, txOptions, func(tx pgx.Tx) error {
			return f(tryCtx, tx)
		})
	})
}

func retry(ctx context.Context, op func() error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxExecRetries), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if IsPermanentDBError(err) {
			return backoff.Permanent(err)
		}
		logger.Warn().Err(err).Msg("retrying db operation")
		return err
	}, b)
}

// IsPermanentDBError reports whether retrying err cannot help: explicit permanent
// errors, context expiry, and SQL errors outside the connection/transaction classes.
func IsPermanentDBError(err error) bool {
	var p permanent
	if errors.As(err, &p) && p.IsPermanent() {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "08", "40", "57":
			// connection exception, transaction rollback, operator intervention
			return false
		}
		return true
	}
	return false
}
