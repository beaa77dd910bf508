package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"sakilahypo/domain/core"
	"sakilahypo/internal/errors"
	"sakilahypo/models"
	"sakilahypo/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const defaultListLimit = 50

const runColumns = `id, source, row_count, column_count, alpha, seed,
	results, metrics, warnings, result_hash, duration_ms, created_at`

// AnalysisRepositoryImpl implements AnalysisRepository for PostgreSQL
type AnalysisRepositoryImpl struct {
	db *sqlx.DB
}

// NewAnalysisRepository creates a new PostgreSQL analysis run repository
func NewAnalysisRepository(db *sqlx.DB) ports.AnalysisRepository {
	return &AnalysisRepositoryImpl{db: db}
}

// SaveRun inserts a run, replacing its results if the ID already exists
func (r *AnalysisRepositoryImpl) SaveRun(ctx context.Context, run *models.AnalysisRun) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analysis_runs (`+runColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			results = EXCLUDED.results,
			metrics = EXCLUDED.metrics,
			warnings = EXCLUDED.warnings,
			result_hash = EXCLUDED.result_hash,
			duration_ms = EXCLUDED.duration_ms`,
		run.ID, run.Source, run.RowCount, run.Columns, run.Alpha, run.Seed,
		run.Results, run.Metrics, run.Warnings, run.ResultHash, run.DurationMS, run.CreatedAt)
	if err != nil {
		return errors.DatabaseError("failed to save analysis run", err)
	}
	return nil
}

// GetRun loads a run by ID
func (r *AnalysisRepositoryImpl) GetRun(ctx context.Context, id uuid.UUID) (*models.AnalysisRun, error) {
	var run models.AnalysisRun
	err := r.db.GetContext(ctx, &run, `SELECT `+runColumns+` FROM analysis_runs WHERE id = $1`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.WithCode(errors.CodeNotFound, core.ErrRunNotFound)
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to load analysis run", err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs first
func (r *AnalysisRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]*models.AnalysisRun, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	runs := []*models.AnalysisRun{}
	err := r.db.SelectContext(ctx, &runs, `
		SELECT `+runColumns+`
		FROM analysis_runs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to list analysis runs", err)
	}
	return runs, nil
}
