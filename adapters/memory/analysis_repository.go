// Package memory holds in-process implementations of the ports, used when
// no database is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"sakilahypo/domain/core"
	"sakilahypo/internal/errors"
	"sakilahypo/models"
	"sakilahypo/ports"

	"github.com/google/uuid"
)

// AnalysisRepository keeps runs in a map; history is lost on restart
type AnalysisRepository struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*models.AnalysisRun
}

var _ ports.AnalysisRepository = (*AnalysisRepository)(nil)

// NewAnalysisRepository creates an empty repository
func NewAnalysisRepository() *AnalysisRepository {
	return &AnalysisRepository{runs: make(map[uuid.UUID]*models.AnalysisRun)}
}

// SaveRun stores a copy of the run, replacing any run with the same ID
func (r *AnalysisRepository) SaveRun(ctx context.Context, run *models.AnalysisRun) error {
	stored := *run
	r.mu.Lock()
	r.runs[run.ID] = &stored
	r.mu.Unlock()
	return nil
}

// GetRun loads a run by ID
func (r *AnalysisRepository) GetRun(ctx context.Context, id uuid.UUID) (*models.AnalysisRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, errors.WithCode(errors.CodeNotFound, core.ErrRunNotFound)
	}
	out := *run
	return &out, nil
}

// ListRuns returns the most recent runs first
func (r *AnalysisRepository) ListRuns(ctx context.Context, limit int) ([]*models.AnalysisRun, error) {
	r.mu.RLock()
	runs := make([]*models.AnalysisRun, 0, len(r.runs))
	for _, run := range r.runs {
		out := *run
		runs = append(runs, &out)
	}
	r.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID.String() > runs[j].ID.String()
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
