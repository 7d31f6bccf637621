package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/providingshelter/ingest/internal/adapter"
	"github.com/providingshelter/ingest/internal/config"
	"github.com/providingshelter/ingest/internal/logger"
	"github.com/providingshelter/ingest/internal/messaging"
	"github.com/providingshelter/ingest/internal/providers/jetstream"
	"github.com/providingshelter/ingest/internal/store"
)

var (
	configPath string
	envPath    string
)

var rootCmd = &cobra.Command{
	Use:           "importer",
	Short:         "Synchronize the open data catalog, harvest resources and import cross-tab spreadsheets",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Flush(2 * time.Second)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", "", "Directory holding the .env files")

	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newHarvestCmd())
	rootCmd.AddCommand(newCrossTabCmd())
	rootCmd.AddCommand(newResyncCityCodesCmd())
}

// app holds the dependencies shared by the subcommands
type app struct {
	cfg       *config.ImporterConfig
	store     store.Store
	publisher messaging.Publisher
	http      adapter.HTTPClient
	fs        adapter.FileSystem
	json      adapter.JSON
	clock     adapter.Clock
}

// setup loads the configuration, initializes the logger and connects to the
// database and, when configured, to NATS
func setup(ctx context.Context) (*app, func(), error) {
	cfg, err := config.LoadImporterConfig(configPath, envPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Initialize(logger.Config{
		Service:   "importer",
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := store.ConfigureConnectionPool(db,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
		cfg.Database.ConnMaxIdleTime,
	); err != nil {
		return nil, nil, fmt.Errorf("failed to configure connection pool: %w", err)
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("dbname", cfg.Database.DBName),
	)

	jsonAdapter := adapter.NewJSON()

	var publisher messaging.Publisher = messaging.NopPublisher{}
	if cfg.NATS.URL != "" {
		publisher, err = jetstream.NewPublisher(ctx, jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		}, adapter.NewNatsJetStream(), jsonAdapter)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create publisher: %w", err)
		}
		logger.InfoCtx(ctx, "Connected to NATS", zap.String("url", cfg.NATS.URL))
	} else {
		logger.WarnCtx(ctx, "NATS URL not configured, events will not be published")
	}

	a := &app{
		cfg:       cfg,
		store:     store.NewPGStore(db),
		publisher: publisher,
		http: adapter.NewHTTPClient(adapter.HTTPOptions{
			Timeout:           cfg.HTTP.Timeout,
			UserAgent:         cfg.HTTP.UserAgent,
			RequestsPerSecond: cfg.Harvest.RequestsPerSecond,
		}),
		fs:    adapter.NewFileSystem(),
		json:  jsonAdapter,
		clock: adapter.NewClock(),
	}

	cleanup := func() {
		publisher.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return a, cleanup, nil
}
