// Package telemetry exposes Prometheus metrics for analysis runs,
// individual hypothesis tests and the HTTP API.
//
// Usage:
//
//	telemetry.RecordHypothesis(result, 0.05)
//	telemetry.RecordComparison(result, 0.05)
//	telemetry.RecordRun(telemetry.StatusSuccess, elapsed)
package telemetry

import (
	"strconv"
	"time"

	"sakilahypo/domain/stats"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome and status label values
const (
	OutcomeRejected    = "rejected"
	OutcomeNotRejected = "not_rejected"
	OutcomeError       = "error"

	StatusSuccess = "success"
	StatusFailure = "failure"

	// CompareLabel is the hypothesis label shared by all ad-hoc comparisons
	CompareLabel = "compare"
)

var (
	// HypothesisTestsTotal counts evaluated hypotheses by chosen test and outcome.
	HypothesisTestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sakilahypo_hypothesis_tests_total",
			Help: "Total number of hypothesis evaluations",
		},
		[]string{"hypothesis", "test", "outcome"},
	)

	// AnalysisRunsTotal counts pipeline runs by status.
	AnalysisRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sakilahypo_analysis_runs_total",
			Help: "Total number of analysis pipeline runs",
		},
		[]string{"status"},
	)

	// AnalysisRunDuration tracks end-to-end pipeline latency.
	AnalysisRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sakilahypo_analysis_run_duration_seconds",
			Help:    "Duration of analysis pipeline runs in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// HTTPRequestDuration tracks API latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sakilahypo_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Outcome classifies a result against alpha
func Outcome(res stats.TestResult, alpha float64) string {
	switch {
	case res.Failed():
		return OutcomeError
	case res.Rejected(alpha):
		return OutcomeRejected
	}
	return OutcomeNotRejected
}

// RecordHypothesis counts one evaluation of a built-in hypothesis. The
// hypothesis name becomes a label, so it must come from a fixed set.
func RecordHypothesis(res stats.TestResult, alpha float64) {
	record(res.Hypothesis, res, alpha)
}

// RecordComparison counts one ad-hoc comparison under CompareLabel. Its
// name is built from request input and is never used as a label.
func RecordComparison(res stats.TestResult, alpha float64) {
	record(CompareLabel, res, alpha)
}

func record(hypothesis string, res stats.TestResult, alpha float64) {
	test := string(res.Test)
	if test == "" {
		test = "none"
	}
	HypothesisTestsTotal.WithLabelValues(hypothesis, test, Outcome(res, alpha)).Inc()
}

// RecordRun counts a pipeline run and observes its duration
func RecordRun(status string, d time.Duration) {
	AnalysisRunsTotal.WithLabelValues(status).Inc()
	AnalysisRunDuration.Observe(d.Seconds())
}

// RecordHTTPRequest observes one served request
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
