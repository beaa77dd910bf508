package telemetry

import (
	"testing"
	"time"

	"sakilahypo/domain/stats"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getCounterValue extracts the value from a Prometheus counter
func getCounterValue(counter prometheus.Counter) float64 {
	var m io_prometheus_client.Metric
	if err := counter.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeError, Outcome(stats.TestResult{Error: "Not enough data"}, 0.05))
	assert.Equal(t, OutcomeRejected, Outcome(stats.TestResult{PValue: 0.01}, 0.05))
	assert.Equal(t, OutcomeNotRejected, Outcome(stats.TestResult{PValue: 0.05}, 0.05))
}

func TestRecordHypothesis(t *testing.T) {
	counter := HypothesisTestsTotal.WithLabelValues("country", string(stats.TestWelch), OutcomeRejected)
	before := getCounterValue(counter)

	RecordHypothesis(stats.TestResult{Hypothesis: "country", Test: stats.TestWelch, PValue: 0.001}, 0.05)
	assert.Equal(t, before+1, getCounterValue(counter))

	failed := HypothesisTestsTotal.WithLabelValues("rating", "none", OutcomeError)
	before = getCounterValue(failed)

	RecordHypothesis(stats.TestResult{Hypothesis: "rating", Error: "no 'rating' column"}, 0.05)
	assert.Equal(t, before+1, getCounterValue(failed))
}

func TestRecordComparisonUsesFixedLabel(t *testing.T) {
	counter := HypothesisTestsTotal.WithLabelValues(CompareLabel, string(stats.TestMannWhitney), OutcomeNotRejected)
	before := getCounterValue(counter)
	series := testutil.CollectAndCount(HypothesisTestsTotal)

	for _, name := range []string{"amount_by_country", "length_by_rating", "\xff_by_country"} {
		RecordComparison(stats.TestResult{Hypothesis: name, Test: stats.TestMannWhitney, PValue: 0.4}, 0.05)
	}

	assert.Equal(t, before+3, getCounterValue(counter))
	assert.Equal(t, series, testutil.CollectAndCount(HypothesisTestsTotal))
}

func TestRecordRun(t *testing.T) {
	counter := AnalysisRunsTotal.WithLabelValues(StatusSuccess)
	before := getCounterValue(counter)

	RecordRun(StatusSuccess, 250*time.Millisecond)
	assert.Equal(t, before+1, getCounterValue(counter))
}

func TestRecordHTTPRequest(t *testing.T) {
	RecordHTTPRequest("GET", "/healthz", 200, time.Millisecond)

	observer, err := HTTPRequestDuration.GetMetricWithLabelValues("GET", "/healthz", "200")
	require.NoError(t, err)

	var m io_prometheus_client.Metric
	require.NoError(t, observer.(prometheus.Histogram).Write(&m))
	assert.GreaterOrEqual(t, m.GetHistogram().GetSampleCount(), uint64(1))
}
