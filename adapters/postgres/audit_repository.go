package postgres

import (
	"context"
	"time"

	"biasaudit/internal/errors"
	"biasaudit/models"
	"biasaudit/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const defaultListLimit = 20

// AuditRunRepositoryImpl implements AuditRunRepository over sqlx. Queries
// are rebound for the driver so the same code runs against SQLite.
type AuditRunRepositoryImpl struct {
	db *sqlx.DB
}

// NewAuditRunRepository creates a new audit run repository
func NewAuditRunRepository(db *sqlx.DB) ports.AuditRunRepository {
	return &AuditRunRepositoryImpl{db: db}
}

// SaveRun inserts an audit run
func (r *AuditRunRepositoryImpl) SaveRun(ctx context.Context, run *models.AuditRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC()

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO audit_runs (
			id, created_at, source, dataset_name, record_count, max_di, top_group,
			provider, model, prompt, response, failed, duration_ms
		) VALUES (
			:id, :created_at, :source, :dataset_name, :record_count, :max_di, :top_group,
			:provider, :model, :prompt, :response, :failed, :duration_ms
		)
	`, run)
	if err != nil {
		return errors.DatabaseError("failed to save audit run", err)
	}
	return nil
}

// ListRecent returns the newest audit runs first
func (r *AuditRunRepositoryImpl) ListRecent(ctx context.Context, limit int) ([]*models.AuditRun, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	runs := []*models.AuditRun{}
	err := r.db.SelectContext(ctx, &runs, r.db.Rebind(`
		SELECT id, created_at, source, dataset_name, record_count, max_di, top_group,
		       provider, model, prompt, response, failed, duration_ms
		FROM audit_runs
		ORDER BY created_at DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to list audit runs", err)
	}
	return runs, nil
}
