package profiling

import (
	"math"
	"testing"

	"sakilahypo/domain/dataset"
	"sakilahypo/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rentalsTable(t *testing.T) *dataset.Table {
	t.Helper()
	table, err := dataset.FromRecords(
		[]string{"amount", "rating"},
		[][]string{{"1", "PG"}, {"2", "G"}, {"3", "PG"}, {"4", ""}, {"", "G"}},
	)
	require.NoError(t, err)
	return table
}

func TestCalculate(t *testing.T) {
	metrics := Calculate(rentalsTable(t))
	require.Len(t, metrics, 2)

	amount := metrics[0]
	assert.Equal(t, "amount", amount.Column)
	assert.InDelta(t, 20.0, amount.MissingPct, 1e-12)
	require.NotNil(t, amount.Numeric)
	assert.Nil(t, amount.Categorical)

	n := amount.Numeric
	assert.Equal(t, 4, n.Count)
	assert.Equal(t, 1.0, n.Min)
	assert.Equal(t, 4.0, n.Max)
	assert.InDelta(t, 2.5, n.Mean, 1e-12)
	assert.InDelta(t, 2.5, n.Median, 1e-12)
	assert.InDelta(t, 5.0/3.0, n.Variance, 1e-12)
	assert.InDelta(t, 1.3, n.Q10, 1e-12)
	assert.InDelta(t, 3.7, n.Q90, 1e-12)
	assert.InDelta(t, 1.75, n.Q1, 1e-12)
	assert.InDelta(t, 3.25, n.Q3, 1e-12)

	rating := metrics[1]
	require.NotNil(t, rating.Categorical)
	assert.Nil(t, rating.Numeric)
	assert.InDelta(t, 20.0, rating.MissingPct, 1e-12)
	assert.Equal(t, 4, rating.Categorical.Count)
	assert.Equal(t, 2, rating.Categorical.NUnique)
	assert.Equal(t, "G", rating.Categorical.Mode, "ties resolve to the smallest value")
}

func TestCalculateEmptyNumericColumn(t *testing.T) {
	table, err := dataset.FromRecords([]string{"length"}, [][]string{{""}, {"NA"}})
	require.NoError(t, err)

	metrics := Calculate(table)
	require.Len(t, metrics, 1)
	assert.Equal(t, 100.0, metrics[0].MissingPct)
	require.NotNil(t, metrics[0].Numeric)
	assert.Equal(t, 0, metrics[0].Numeric.Count)
}

func TestQuantile(t *testing.T) {
	sorted := []float64{10, 20, 30}
	assert.Equal(t, 10.0, quantile(sorted, 0))
	assert.Equal(t, 20.0, quantile(sorted, 0.5))
	assert.Equal(t, 30.0, quantile(sorted, 1))
	assert.InDelta(t, 15.0, quantile(sorted, 0.25), 1e-12)
	assert.Equal(t, 7.0, quantile([]float64{7}, 0.9))
	assert.True(t, math.IsNaN(quantile(nil, 0.5)))
}

func TestDescribe(t *testing.T) {
	d := Describe(rentalsTable(t))

	assert.Equal(t, 5, d.Rows)
	assert.Equal(t, 2, d.Columns)
	require.Len(t, d.Numeric, 1)
	require.Len(t, d.Categorical, 1)

	amount := d.Numeric[0]
	assert.Equal(t, 4, amount.Count)
	assert.InDelta(t, 1.75, amount.P25, 1e-12)
	assert.InDelta(t, 2.5, amount.P50, 1e-12)
	assert.InDelta(t, 3.25, amount.P75, 1e-12)

	rating := d.Categorical[0]
	assert.Equal(t, "G", rating.Top)
	assert.Equal(t, 2, rating.Freq)
	assert.Equal(t, 2, rating.Unique)
}

func TestAnalyzeDistributionSymmetric(t *testing.T) {
	d, err := NewDistributionAnalyzer(0.05).AnalyzeDistribution("x", []float64{1, 2, 3, 4, 5})
	require.NoError(t, err)

	assert.Equal(t, 5, d.Count)
	assert.InDelta(t, 3.0, d.Mean, 1e-12)
	assert.InDelta(t, 1.5811388300841898, d.StdDev, 1e-12)
	assert.InDelta(t, 0.0, d.Skewness, 1e-12)
	assert.InDelta(t, -1.2, d.Kurtosis, 1e-9)
	assert.InDelta(t, 0.98676, d.ShapiroW, 1e-4)
	assert.True(t, d.Normal)
	assert.Equal(t, ShapeNormal, d.Shape)
	assert.Equal(t, -1.0, d.LowerFence)
	assert.Equal(t, 7.0, d.UpperFence)
	assert.Equal(t, 0, d.Outliers)
}

func TestAnalyzeDistributionOutlier(t *testing.T) {
	d, err := NewDistributionAnalyzer(0.05).AnalyzeDistribution("amount", []float64{1, 2, 3, 4, 100})
	require.NoError(t, err)

	assert.Equal(t, 1, d.Outliers)
	assert.False(t, d.Normal)
	assert.Greater(t, d.Skewness, 0.5)
	assert.Equal(t, ShapeRightSkewed, d.Shape)
}

func TestAnalyzeDistributionConstant(t *testing.T) {
	d, err := NewDistributionAnalyzer(0.05).AnalyzeDistribution("rate", []float64{5, 5, 5, 5})
	require.NoError(t, err)

	assert.False(t, d.Normal)
	assert.Equal(t, 0.0, d.ShapiroP)
	assert.Equal(t, 0.0, d.Skewness)
	assert.Equal(t, ShapeNonNormal, d.Shape)
}

func TestAnalyzeColumnErrors(t *testing.T) {
	da := NewDistributionAnalyzer(0.05)
	table := rentalsTable(t)

	_, err := da.AnalyzeColumn(table, "missing")
	assert.True(t, errors.IsCode(err, errors.CodeMissingColumn))

	_, err = da.AnalyzeColumn(table, "rating")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidInput))

	_, err = da.AnalyzeDistribution("x", []float64{1})
	assert.True(t, errors.IsCode(err, errors.CodeInsufficientData))

	d, err := da.AnalyzeColumn(table, "amount")
	require.NoError(t, err)
	assert.Equal(t, 4, d.Count, "missing values are skipped")
}
