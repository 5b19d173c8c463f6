package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danthegoodman1/dfgrid/config"
	"github.com/danthegoodman1/dfgrid/crdb"
	"github.com/danthegoodman1/dfgrid/datastore"
	"github.com/danthegoodman1/dfgrid/gologger"
	"github.com/danthegoodman1/dfgrid/http_server"
	"github.com/danthegoodman1/dfgrid/metastore"
	"github.com/danthegoodman1/dfgrid/migrations"
	"github.com/danthegoodman1/dfgrid/s3_helper"
	"github.com/danthegoodman1/dfgrid/session"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

var (
	logger = gologger.NewLogger()

	cfgFile     string
	autoMigrate bool
)

var rootCmd = &cobra.Command{
	Use:   "dfgrid",
	Short: "Paginated, editable tables for notebook clients",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply catalog migrations to the configured database",
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml or json)")
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.Debug().Msg("starting dfgrid api")

	cfg, err := config.Load(cfgFile)
	if err != nil {
		logger.Error().Err(err).Msg("error loading config")
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pool *pgxpool.Pool
	var meta metastore.MetaStore = metastore.NewMemoryMetaStore()
	if cfg.SQL.DSN != "" {
		pool, err = crdb.ConnectToDB(ctx, cfg.SQL.DSN)
		if err != nil {
			logger.Error().Err(err).Msg("error connecting to CRDB")
			return err
		}
		defer pool.Close()

		if autoMigrate {
			_, err = migrations.RunMigrations(cfg.SQL.DSN)
		} else {
			err = migrations.CheckMigrations(cfg.SQL.DSN)
		}
		if err != nil {
			logger.Error().Err(err).Msg("Error checking migrations")
			return err
		}
		meta = metastore.NewCRDBMetaStore(pool, cfg.SQL.QueryTimeout)
	}

	store, err := openStore(cfg.Export)
	if err != nil {
		logger.Error().Err(err).Msg("error opening export store")
		return err
	}

	sessions := session.NewManager(session.WithDefaultPageSize(cfg.Pager.DefaultPageSize))
	go sessions.Run(logger.WithContext(ctx), cfg.Sessions.SweepInterval, cfg.Sessions.IdleTTL, cfg.Registry.MaxAge)

	httpServer, err := http_server.StartHTTPServer(http_server.Deps{
		Config:   cfg,
		Sessions: sessions,
		Pool:     pool,
		Store:    store,
		Meta:     meta,
	})
	if err != nil {
		logger.Error().Err(err).Msg("error starting http server")
		return err
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Warn().Msg("received shutdown signal!")

	// For AWS ALB needing some time to de-register pod
	sleepTime := cfg.ShutdownSleepSec
	logger.Info().Msg(fmt.Sprintf("sleeping for %ds before exiting", sleepTime))

	time.Sleep(time.Second * time.Duration(sleepTime))
	logger.Info().Msg(fmt.Sprintf("slept for %ds, exiting", sleepTime))

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second*10)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown HTTP server")
	} else {
		logger.Info().Msg("successfully shutdown HTTP server")
	}
	if err := store.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown export store")
	}
	if err := meta.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown metastore")
	}
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cfg.SQL.DSN == "" {
		return fmt.Errorf("sql.dsn (or CRDB_DSN) is required to migrate")
	}
	n, err := migrations.RunMigrations(cfg.SQL.DSN)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "applied %d migrations\n", n)
	return nil
}

func openStore(cfg config.ExportConfig) (datastore.DataStore, error) {
	switch cfg.Type {
	case config.ExportS3:
		client, err := s3_helper.NewClient(s3_helper.Config{
			Bucket:   cfg.S3.Bucket,
			Region:   cfg.S3.Region,
			Endpoint: cfg.S3.Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("error in s3_helper.NewClient: %w", err)
		}
		return datastore.NewS3DataStore(client), nil
	default:
		store, err := datastore.NewDiskDataStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("error in NewDiskDataStore: %w", err)
		}
		return store, nil
	}
}
