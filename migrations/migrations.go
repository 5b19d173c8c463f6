// Package migrations applies the catalog schema with sql-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/danthegoodman1/dfgrid/gologger"
	// registers the "pgx" database/sql driver
	_ "github.com/jackc/pgx/v4/stdlib"
	migrate "github.com/rubenv/sql-migrate"
)

var (
	//go:embed *.sql
	migrations embed.FS

	ErrMigrationsNotRun = errors.New("not all migrations applied")

	logger = gologger.NewLogger()
)

const migrationTable = "dfgrid_migrations"

func source() migrate.MigrationSource {
	return migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrations,
		Root:       ".",
	}
}

func open(dsn string) (*sql.DB, migrate.MigrationSet, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, migrate.MigrationSet{}, fmt.Errorf("error in sql.Open: %w", err)
	}
	return db, migrate.MigrationSet{TableName: migrationTable}, nil
}

// RunMigrations applies every pending migration and returns how many ran.
func RunMigrations(dsn string) (int, error) {
	db, ms, err := open(dsn)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	n, err := ms.Exec(db, "postgres", source(), migrate.Up)
	if err != nil {
		return n, fmt.Errorf("error in MigrationSet.Exec: %w", err)
	}
	logger.Info().Int("applied", n).Msg("ran migrations")
	return n, nil
}

// CheckMigrations returns ErrMigrationsNotRun when any migration is pending.
func CheckMigrations(dsn string) error {
	db, ms, err := open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	pending, _, err := ms.PlanMigration(db, "postgres", source(), migrate.Up, 0)
	if err != nil {
		return fmt.Errorf("error in PlanMigration: %w", err)
	}
	if len(pending) > 0 {
		for _, mig := range pending {
			logger.Warn().Str("migrationID", mig.Id).Msg("missing migration")
		}
		return ErrMigrationsNotRun
	}
	return nil
}
