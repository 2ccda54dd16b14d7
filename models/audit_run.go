package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditRun is one archived fairness analysis
type AuditRun struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	Source      string    `json:"source" db:"source"` // 'generated' or 'uploaded'
	DatasetName string    `json:"dataset_name" db:"dataset_name"`
	RecordCount int       `json:"record_count" db:"record_count"`
	MaxDI       *float64  `json:"max_di,omitempty" db:"max_di"`
	TopGroup    string    `json:"top_group" db:"top_group"` // "race:Black"
	Provider    string    `json:"provider" db:"provider"`
	Model       string    `json:"model" db:"model"`
	Prompt      string    `json:"prompt" db:"prompt"`
	Response    string    `json:"response" db:"response"`
	Failed      bool      `json:"failed" db:"failed"`
	DurationMS  int64     `json:"duration_ms" db:"duration_ms"`
}
