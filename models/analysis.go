package models

import (
	"database/sql/driver"
	"time"

	"sakilahypo/domain/core"
	"sakilahypo/domain/stats"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// TestResults is a JSONB column holding hypothesis outcomes
type TestResults []stats.TestResult

// Value implements driver.Valuer interface
func (r TestResults) Value() (driver.Value, error) {
	if r == nil {
		return json.Marshal([]stats.TestResult{})
	}
	return json.Marshal([]stats.TestResult(r))
}

// Scan implements sql.Scanner interface
func (r *TestResults) Scan(value interface{}) error {
	var out []stats.TestResult
	if err := scanJSON(value, &out); err != nil {
		return err
	}
	*r = out
	return nil
}

// MetricsList is a JSONB column holding per-column metrics
type MetricsList []stats.ColumnMetrics

// Value implements driver.Valuer interface
func (m MetricsList) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal([]stats.ColumnMetrics{})
	}
	return json.Marshal([]stats.ColumnMetrics(m))
}

// Scan implements sql.Scanner interface
func (m *MetricsList) Scan(value interface{}) error {
	var out []stats.ColumnMetrics
	if err := scanJSON(value, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// AnalysisRun is one execution of the analysis pipeline over a dataset
type AnalysisRun struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	Source     string      `json:"source" db:"source"`
	RowCount   int         `json:"row_count" db:"row_count"`
	Columns    int         `json:"column_count" db:"column_count"`
	Alpha      float64     `json:"alpha" db:"alpha"`
	Seed       int64       `json:"seed" db:"seed"`
	Results    TestResults `json:"results" db:"results"`
	Metrics    MetricsList `json:"metrics" db:"metrics"`
	Warnings   JSONBMap    `json:"warnings,omitempty" db:"warnings"`
	ResultHash string      `json:"result_hash" db:"result_hash"`
	DurationMS int64       `json:"duration_ms" db:"duration_ms"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}

// NewAnalysisRun creates a run with a fresh time-ordered ID
func NewAnalysisRun(source string) *AnalysisRun {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &AnalysisRun{
		ID:        id,
		Source:    source,
		Warnings:  make(JSONBMap),
		CreatedAt: time.Now().UTC(),
	}
}

// Result returns the outcome of the named hypothesis
func (r *AnalysisRun) Result(hypothesis string) (stats.TestResult, bool) {
	for _, res := range r.Results {
		if res.Hypothesis == hypothesis {
			return res, true
		}
	}
	return stats.TestResult{}, false
}

// ComputeHash fingerprints the p-values and conclusions, so identical
// inputs and seeds produce identical hashes
func (r *AnalysisRun) ComputeHash() string {
	fields := make(map[string]interface{}, 2*len(r.Results))
	for _, res := range r.Results {
		if res.Failed() {
			fields[res.Hypothesis+".error"] = res.Error
			continue
		}
		fields[res.Hypothesis+".p_value"] = res.PValue
		fields[res.Hypothesis+".conclusion"] = res.Conclusion
	}
	r.ResultHash = string(core.ComputeResultHash(fields))
	return r.ResultHash
}
