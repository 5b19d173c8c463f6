package metastore

import (
	"context"
	"fmt"
	"time"

	"github.com/danthegoodman1/dfgrid/part"
	"github.com/danthegoodman1/dfgrid/utils"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
)

// CRDBMetaStore keeps the catalog in the exported_parts table.
type CRDBMetaStore struct {
	pool       *pgxpool.Pool
	tryTimeout time.Duration
}

func NewCRDBMetaStore(pool *pgxpool.Pool, tryTimeout time.Duration) *CRDBMetaStore {
	return &CRDBMetaStore{
		pool:       pool,
		tryTimeout: tryTimeout,
	}
}

func (cms *CRDBMetaStore) RecordParts(ctx context.Context, sessionID, dfID string, parts []part.Part) error {
	ctx = logger.WithContext(ctx)
	logger := zerolog.Ctx(ctx)
	if len(parts) == 0 {
		return nil
	}

	s := time.Now()
	err := utils.ReliableExecInTx(ctx, cms.pool, cms.tryTimeout, pgx.TxOptions{}, func(ctx context.Context, tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, p := range parts {
			batch.Queue(`
				INSERT INTO exported_parts (id, session_id, df_id, key, partition, row_count, bytes, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (id) DO NOTHING
			`, p.ID, sessionID, dfID, p.Key, p.Partition, p.RowCount, p.Bytes, p.CreatedAt)
		}
		br := tx.SendBatch(ctx, batch)
		defer br.Close()
		for range parts {
			if _, err := br.Exec(); err != nil {
				return fmt.Errorf("error inserting part: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error in ReliableExecInTx: %w", err)
	}
	logger.Debug().Str("dfId", dfID).Int("parts", len(parts)).Str("duration", time.Since(s).String()).Msg("recorded parts")
	return nil
}

func (cms *CRDBMetaStore) ListParts(ctx context.Context, sessionID, dfID string) ([]part.Part, error) {
	var parts []part.Part
	err := utils.ReliableExec(ctx, cms.pool, cms.tryTimeout, func(ctx context.Context, conn *pgxpool.Conn) error {
		parts = parts[:0]
		rows, err := conn.Query(ctx, `
			SELECT id, key, partition, row_count, bytes, created_at
			FROM exported_parts
			WHERE session_id = $1 AND df_id = $2
			ORDER BY created_at, id
		`, sessionID, dfID)
		if err != nil {
			return fmt.Errorf("error in conn.Query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var p part.Part
			if err := rows.Scan(&p.ID, &p.Key, &p.Partition, &p.RowCount, &p.Bytes, &p.CreatedAt); err != nil {
				return fmt.Errorf("error in rows.Scan: %w", err)
			}
			parts = append(parts, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("error in ReliableExec: %w", err)
	}
	return parts, nil
}

func (cms *CRDBMetaStore) Shutdown(context.Context) error {
	return nil
}
