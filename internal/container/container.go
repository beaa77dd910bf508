package container

import (
	"context"
	"os"

	"sakilahypo/adapters/excel"
	"sakilahypo/adapters/memory"
	"sakilahypo/adapters/postgres"
	"sakilahypo/app"
	"sakilahypo/internal/config"
	idataset "sakilahypo/internal/dataset"
	"sakilahypo/internal/errors"
	"sakilahypo/internal/hypothesis"
	"sakilahypo/internal/logging"
	"sakilahypo/internal/migration"
	"sakilahypo/ports"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB      *sqlx.DB
	Storage *idataset.LocalFileStorage

	// Repositories (data access layer)
	RunRepo ports.AnalysisRepository

	// Analysis
	Analyzer *hypothesis.Analyzer
	Service  *app.AnalysisService

	log zerolog.Logger
}

// New creates a container with in-memory run history. Call InitWithDatabase
// to switch to PostgreSQL.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, errors.ConfigInvalid("config cannot be nil")
	}

	storageCfg := idataset.DefaultStorageConfig()
	if cfg.Data.UploadPath != "" {
		storageCfg.BasePath = cfg.Data.UploadPath
	}

	c := &Container{
		Config:   cfg,
		Storage:  idataset.NewLocalFileStorage(storageCfg),
		RunRepo:  memory.NewAnalysisRepository(),
		Analyzer: hypothesis.NewAnalyzer(hypothesis.ConfigFromStats(cfg.Stats)),
		log:      logging.Component("container"),
	}
	c.Service = app.NewAnalysisService(c.Analyzer, c.RunRepo)
	return c, nil
}

// Connect opens and pings a PostgreSQL connection
func Connect(ctx context.Context, url string) (*sqlx.DB, error) {
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	return db, nil
}

// InitWithDatabase migrates the schema and persists runs in db
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return errors.InternalError("database connection cannot be nil")
	}

	if err := db.PingContext(ctx); err != nil {
		return errors.DatabaseError("database connection test failed", err)
	}

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, err)
	}

	c.DB = db
	c.RunRepo = postgres.NewAnalysisRepository(db)
	c.Service = app.NewAnalysisService(c.Analyzer, c.RunRepo)

	c.log.Info().Str("schema_version", runner.Version()).Msg("container initialized with database")
	return nil
}

// DatasetSource picks where the served dataset comes from: the configured
// file when it exists, otherwise the optimized Sakila extract when a
// database is attached. It returns nil when neither is available.
func (c *Container) DatasetSource() ports.TableSource {
	if path := c.Config.Data.DatasetPath; path != "" {
		if _, err := os.Stat(path); err == nil {
			return excel.NewFileSource(path)
		}
	}
	if c.DB != nil {
		extractor := postgres.NewSakilaExtractor(c.DB)
		return idataset.NewOptimizedSource(extractor, idataset.NewOptimizer(idataset.DefaultOptimizerConfig()))
	}
	return nil
}

// Shutdown releases the database connection
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
