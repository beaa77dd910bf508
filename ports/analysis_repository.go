package ports

import (
	"context"

	"sakilahypo/models"

	"github.com/google/uuid"
)

// AnalysisRepository defines the interface for analysis run persistence
type AnalysisRepository interface {
	// SaveRun inserts a run, replacing an existing run with the same ID
	SaveRun(ctx context.Context, run *models.AnalysisRun) error

	// GetRun retrieves a run by ID; unknown IDs return core.ErrRunNotFound
	GetRun(ctx context.Context, id uuid.UUID) (*models.AnalysisRun, error)

	// ListRuns returns the most recent runs first, optionally limited
	ListRuns(ctx context.Context, limit int) ([]*models.AnalysisRun, error)
}
