package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sakilahypo/internal/config"
	"sakilahypo/internal/container"
	"sakilahypo/internal/logging"
	"sakilahypo/ui"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// datasetTTL bounds how long a database extract is served before reloading
const datasetTTL = 30 * time.Minute

func main() {
	// Load environment variables from .env file
	envErr := godotenv.Load()

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = appConfig.Logging.Level
	logCfg.Format = appConfig.Logging.Format
	logging.Init(logCfg)
	if envErr != nil {
		logging.Debug().Msg("no .env file found, using system environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create dependency injection container
	appContainer, err := container.New(appConfig)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create application container")
	}
	defer appContainer.Shutdown(context.Background())

	// Initialize database when configured; runs are kept in memory otherwise
	if appConfig.HasDatabase() {
		db, err := container.Connect(ctx, appConfig.Database.URL)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to connect to database")
		}
		if err := appContainer.InitWithDatabase(ctx, db); err != nil {
			logging.Fatal().Err(err).Msg("failed to initialize container")
		}
	} else {
		logging.Warn().Msg("DATABASE_URL not set, analysis runs are not persisted")
	}

	source := appContainer.DatasetSource()
	if source == nil {
		logging.Warn().Str("dataset_path", appConfig.Data.DatasetPath).Msg("no dataset available, upload one via POST /api/datasets")
	} else {
		logging.Info().Str("source", source.Name()).Msg("serving dataset")
	}

	cache := ui.NewDatasetCache(source, datasetTTL)
	server := ui.NewApp(appContainer.Service, cache, appContainer.Storage)

	if err := server.Start(ctx, ":"+appConfig.Server.Port); err != nil {
		logging.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
	logging.Info().Msg("server stopped")
}
