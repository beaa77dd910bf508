package app

import (
	"context"
	"time"

	"sakilahypo/domain/core"
	"sakilahypo/domain/dataset"
	"sakilahypo/domain/stats"
	"sakilahypo/internal/errors"
	"sakilahypo/internal/features"
	"sakilahypo/internal/hypothesis"
	"sakilahypo/internal/logging"
	"sakilahypo/internal/profiling"
	"sakilahypo/internal/telemetry"
	"sakilahypo/models"
	"sakilahypo/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// AnalysisService runs the full pipeline over a table: derived features,
// encodings, column metrics and every built-in hypothesis
type AnalysisService struct {
	analyzer *hypothesis.Analyzer
	repo     ports.AnalysisRepository
	log      zerolog.Logger
}

// NewAnalysisService creates the service. A nil repository disables
// persistence and run history.
func NewAnalysisService(analyzer *hypothesis.Analyzer, repo ports.AnalysisRepository) *AnalysisService {
	return &AnalysisService{
		analyzer: analyzer,
		repo:     repo,
		log:      logging.Component("analysis"),
	}
}

// Analyzer returns the hypothesis analyzer
func (s *AnalysisService) Analyzer() *hypothesis.Analyzer {
	return s.analyzer
}

// Run executes the pipeline and persists the run when a repository is
// configured. Feature or encoding failures are recorded as warnings and
// the analysis continues on the columns available.
func (s *AnalysisService) Run(ctx context.Context, table *dataset.Table, source string) (*models.AnalysisRun, error) {
	start := time.Now()
	cfg := s.analyzer.Config()

	run := models.NewAnalysisRun(source)
	run.RowCount = table.Rows()
	run.Alpha = cfg.Alpha
	run.Seed = int64(cfg.Seed)

	prepared := s.prepare(table, run)
	run.Columns = len(prepared.Columns())

	names := hypothesis.Names()
	results := make([]stats.TestResult, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		run.Metrics = profiling.Calculate(prepared)
		return nil
	})
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.analyzer.Run(name, prepared)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		telemetry.RecordRun(telemetry.StatusFailure, time.Since(start))
		return nil, errors.Wrap(err, "analysis failed")
	}

	run.Results = results
	for _, res := range results {
		telemetry.RecordHypothesis(res, cfg.Alpha)
	}
	run.ComputeHash()
	run.DurationMS = time.Since(start).Milliseconds()

	if s.repo != nil {
		if err := s.repo.SaveRun(ctx, run); err != nil {
			telemetry.RecordRun(telemetry.StatusFailure, time.Since(start))
			return nil, errors.Wrap(err, "failed to persist analysis run")
		}
	}
	telemetry.RecordRun(telemetry.StatusSuccess, time.Since(start))

	s.log.Info().
		Str("run_id", run.ID.String()).
		Str("source", source).
		Int("rows", run.RowCount).
		Str("result_hash", core.Hash(run.ResultHash).Short()).
		Int64("duration_ms", run.DurationMS).
		Msg("analysis run complete")
	return run, nil
}

// prepare adds derived and encoded columns, skipping a step that fails
func (s *AnalysisService) prepare(table *dataset.Table, run *models.AnalysisRun) *dataset.Table {
	prepared := table
	if out, err := features.Create(prepared); err != nil {
		s.log.Warn().Err(err).Msg("feature creation skipped")
		run.Warnings["features"] = err.Error()
	} else {
		prepared = out
	}

	if out, err := features.Encode(prepared); err != nil {
		s.log.Warn().Err(err).Msg("encoding skipped")
		run.Warnings["encoding"] = err.Error()
	} else {
		prepared = out
	}
	return prepared
}

// Hypothesis evaluates one built-in hypothesis
func (s *AnalysisService) Hypothesis(name string, table *dataset.Table) (stats.TestResult, error) {
	res, err := s.analyzer.Run(name, table)
	if err != nil {
		return res, err
	}
	telemetry.RecordHypothesis(res, s.analyzer.Config().Alpha)
	return res, nil
}

// Compare evaluates an ad-hoc comparison of a numeric column across groups
func (s *AnalysisService) Compare(table *dataset.Table, req hypothesis.CompareRequest) stats.TestResult {
	res := s.analyzer.Compare(table, req)
	telemetry.RecordComparison(res, s.analyzer.Config().Alpha)
	return res
}

// GetRun loads a stored run
func (s *AnalysisService) GetRun(ctx context.Context, id uuid.UUID) (*models.AnalysisRun, error) {
	if s.repo == nil {
		return nil, errors.NotFound("run history")
	}
	return s.repo.GetRun(ctx, id)
}

// ListRuns returns stored runs, newest first
func (s *AnalysisService) ListRuns(ctx context.Context, limit int) ([]*models.AnalysisRun, error) {
	if s.repo == nil {
		return []*models.AnalysisRun{}, nil
	}
	return s.repo.ListRuns(ctx, limit)
}
