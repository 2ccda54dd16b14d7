package migration

import (
	"context"

	"biasaudit/internal/errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// MigrationRunner handles database schema migrations. The statements stay
// within the SQL shared by Postgres and SQLite.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createAuditRunsTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create audit_runs table", err)
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createAuditRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_runs (
			id VARCHAR(36) PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			source VARCHAR(20) NOT NULL,
			dataset_name VARCHAR(255) NOT NULL DEFAULT '',
			record_count INTEGER NOT NULL,
			max_di DOUBLE PRECISION,
			top_group VARCHAR(255) NOT NULL DEFAULT '',
			provider VARCHAR(50) NOT NULL DEFAULT '',
			model VARCHAR(100) NOT NULL DEFAULT '',
			prompt TEXT NOT NULL,
			response TEXT NOT NULL,
			failed BOOLEAN NOT NULL DEFAULT false,
			duration_ms BIGINT NOT NULL DEFAULT 0
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_audit_runs_created_at ON audit_runs(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_audit_runs_source ON audit_runs(source)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Log but don't fail on index creation errors
			zap.L().Warn("failed to create index", zap.String("sql", idxSQL), zap.Error(err))
		}
	}

	return nil
}
