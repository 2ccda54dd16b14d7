package container

import (
	"context"
	"fmt"

	"biasaudit/adapters/llm"
	"biasaudit/adapters/postgres"
	"biasaudit/app"
	"biasaudit/internal/config"
	"biasaudit/internal/errors"
	"biasaudit/internal/migration"
	"biasaudit/ports"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	AuditRunRepo ports.AuditRunRepository

	// Analysis provider
	LLM ports.LLMClient

	// Services
	Audits   *app.AuditService
	Analyses *app.AnalysisService
}

// New creates a new dependency injection container. The archive stays
// disabled until InitWithDatabase is called.
func New(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = zap.L()
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
		LLM:    llm.NewClient(cfg.LLM),
	}
	c.Audits = app.NewAuditService(cfg.Dataset, logger.Named("audit"))
	c.Analyses = c.newAnalysisService()

	return c, nil
}

// InitWithDatabase migrates db and routes analyses into the archive
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	if err := db.PingContext(ctx); err != nil {
		return errors.DatabaseError("failed to ping database", err)
	}
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return errors.Wrap(err, "database migration failed")
	}

	c.DB = db
	c.AuditRunRepo = postgres.NewAuditRunRepository(db)
	c.Analyses = c.newAnalysisService()

	c.Logger.Info("audit archive enabled")
	return nil
}

func (c *Container) newAnalysisService() *app.AnalysisService {
	return app.NewAnalysisService(c.LLM, c.AuditRunRepo, app.AnalysisConfig{
		Timeout:       c.Config.LLM.Timeout,
		RatePerMinute: c.Config.LLM.RatePerMinute,
	}, c.Logger.Named("analysis"))
}

// Shutdown waits for an in-flight analysis and releases resources
func (c *Container) Shutdown(ctx context.Context) error {
	if err := c.Analyses.Wait(ctx); err != nil {
		c.Logger.Warn("analysis still in flight at shutdown", zap.Error(err))
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return errors.DatabaseError("failed to close database", err)
		}
	}
	return nil
}
