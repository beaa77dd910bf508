// Package dataset prepares raw rental exports for analysis and stores
// uploaded dataset files.
package dataset

import (
	"context"

	"sakilahypo/domain/dataset"
	"sakilahypo/internal/errors"
	"sakilahypo/internal/logging"
	"sakilahypo/ports"

	"github.com/rs/zerolog"
)

// RedundantColumns are constant or duplicated in the Sakila export: the
// release year and language never vary, district and address2 are empty,
// and the id columns repeat film_id, staff_id and category.
var RedundantColumns = []string{
	"release_year",
	"language_id",
	"district",
	"language",
	"address2",
	"film_category_id",
	"film_actor_id",
	"manager_staff_id",
	"category_id",
}

// OptimizerConfig controls which columns and rows are removed
type OptimizerConfig struct {
	DropColumns []string
	// RequiredColumn rows missing this value are dropped; empty keeps all rows
	RequiredColumn string
}

// DefaultOptimizerConfig drops the redundant columns and unreturned rentals
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		DropColumns:    RedundantColumns,
		RequiredColumn: "return_date",
	}
}

// OptimizeStats reports what Optimize removed
type OptimizeStats struct {
	DroppedColumns []string `json:"dropped_columns"`
	DroppedRows    int      `json:"dropped_rows"`
}

// Optimizer shrinks an export before analysis
type Optimizer struct {
	cfg OptimizerConfig
	log zerolog.Logger
}

// NewOptimizer creates an optimizer
func NewOptimizer(cfg OptimizerConfig) *Optimizer {
	return &Optimizer{
		cfg: cfg,
		log: logging.Component("optimizer"),
	}
}

// Optimize drops the configured columns that are present, then the rows
// missing the required column. The input table is not modified.
func (o *Optimizer) Optimize(table *dataset.Table) (*dataset.Table, OptimizeStats, error) {
	var st OptimizeStats
	for _, name := range o.cfg.DropColumns {
		if table.Has(name) {
			st.DroppedColumns = append(st.DroppedColumns, name)
		}
	}
	out := table.DropColumns(st.DroppedColumns...)

	if o.cfg.RequiredColumn != "" {
		filtered, err := out.DropMissing(o.cfg.RequiredColumn)
		if err != nil {
			return nil, st, errors.WithCode(errors.CodeMissingColumn, err)
		}
		st.DroppedRows = out.Rows() - filtered.Rows()
		out = filtered
	}

	o.log.Info().
		Strs("dropped_columns", st.DroppedColumns).
		Int("dropped_rows", st.DroppedRows).
		Int("rows", out.Rows()).
		Msg("dataset optimized")
	return out, st, nil
}

// OptimizedSource optimizes every table its source loads
type OptimizedSource struct {
	source    ports.TableSource
	optimizer *Optimizer
}

var _ ports.TableSource = (*OptimizedSource)(nil)

// NewOptimizedSource wraps a source
func NewOptimizedSource(source ports.TableSource, optimizer *Optimizer) *OptimizedSource {
	return &OptimizedSource{source: source, optimizer: optimizer}
}

// Name returns the wrapped source name
func (s *OptimizedSource) Name() string {
	return s.source.Name()
}

// Load loads and optimizes the table
func (s *OptimizedSource) Load(ctx context.Context) (*dataset.Table, error) {
	table, err := s.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	out, _, err := s.optimizer.Optimize(table)
	return out, err
}
