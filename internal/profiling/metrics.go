package profiling

import (
	"math"
	"sort"

	"sakilahypo/domain/dataset"
	"sakilahypo/domain/stats"

	mstats "github.com/montanaflynn/stats"
)

// Calculate computes per-column metrics in column order. Numeric columns get
// location, spread and quantiles; categorical columns get cardinality and mode.
func Calculate(table *dataset.Table) []stats.ColumnMetrics {
	out := make([]stats.ColumnMetrics, 0, len(table.Columns()))
	for _, col := range table.Columns() {
		m := stats.ColumnMetrics{
			Column:     col.Name,
			MissingPct: missingPct(col),
		}
		if col.Kind == dataset.KindNumeric {
			m.Numeric = numericMetrics(present(col))
		} else {
			m.Categorical = categoricalMetrics(col)
		}
		out = append(out, m)
	}
	return out
}

func missingPct(col *dataset.Column) float64 {
	n := col.Len()
	if n == 0 {
		return 0
	}
	missing := 0
	for i := 0; i < n; i++ {
		if col.IsMissing(i) {
			missing++
		}
	}
	return float64(missing) / float64(n) * 100
}

// present returns the non-missing values of a numeric column
func present(col *dataset.Column) []float64 {
	values := make([]float64, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		if !col.IsMissing(i) {
			values = append(values, col.Float(i))
		}
	}
	return values
}

func numericMetrics(values []float64) *stats.NumericMetrics {
	m := &stats.NumericMetrics{Count: len(values)}
	if len(values) == 0 {
		return m
	}

	data := mstats.Float64Data(values)
	m.Min, _ = data.Min()
	m.Max, _ = data.Max()
	m.Mean, _ = data.Mean()
	m.Median, _ = data.Median()
	if len(values) > 1 {
		m.Variance, _ = mstats.SampleVariance(data)
		m.StdDev = math.Sqrt(m.Variance)
	}

	sorted := sortedCopy(values)
	m.Q10 = quantile(sorted, 0.1)
	m.Q90 = quantile(sorted, 0.9)
	m.Q1 = quantile(sorted, 0.25)
	m.Q3 = quantile(sorted, 0.75)
	return m
}

func categoricalMetrics(col *dataset.Column) *stats.CategoricalMetrics {
	counts := make(map[string]int)
	m := &stats.CategoricalMetrics{}
	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) {
			continue
		}
		counts[col.Value(i)]++
		m.Count++
	}
	m.NUnique = len(counts)
	m.Mode, _ = mode(counts)
	return m
}

// mode returns the most frequent value; ties go to the smallest value
func mode(counts map[string]int) (string, int) {
	var best string
	bestN := 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best, bestN
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}

// quantile interpolates linearly between the order statistics around
// p*(n-1), the convention of most dataframe libraries
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	h := p * float64(len(sorted)-1)
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}
