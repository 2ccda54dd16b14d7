package ports

import (
	"context"

	"biasaudit/models"
)

// AuditRunRepository archives completed analyses
type AuditRunRepository interface {
	// SaveRun persists a run, assigning an ID when it has none
	SaveRun(ctx context.Context, run *models.AuditRun) error

	// ListRecent returns up to limit runs, newest first
	ListRecent(ctx context.Context, limit int) ([]*models.AuditRun, error)
}
