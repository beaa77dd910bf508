package profiling

import (
	"fmt"

	"sakilahypo/adapters/stats/inference"
	"sakilahypo/domain/dataset"
	"sakilahypo/domain/stats"
	"sakilahypo/internal/errors"

	mstats "github.com/montanaflynn/stats"
	gstat "gonum.org/v1/gonum/stat"
)

// Shape labels for Distribution.Shape
const (
	ShapeNormal       = "normal"
	ShapeRightSkewed  = "right-skewed"
	ShapeLeftSkewed   = "left-skewed"
	ShapeHeavyTailed  = "heavy-tailed"
	ShapeLightTailed  = "light-tailed"
	ShapeNonNormal    = "non-normal"
	skewThreshold     = 0.5
	kurtosisThreshold = 1.0
)

// DistributionAnalyzer handles distribution shape analysis
type DistributionAnalyzer struct {
	alpha float64
}

// NewDistributionAnalyzer creates an analyzer that calls a column normal
// when the Shapiro-Wilk p-value exceeds alpha
func NewDistributionAnalyzer(alpha float64) *DistributionAnalyzer {
	return &DistributionAnalyzer{alpha: alpha}
}

// AnalyzeColumn analyzes the non-missing values of a numeric column
func (da *DistributionAnalyzer) AnalyzeColumn(table *dataset.Table, column string) (stats.Distribution, error) {
	col, err := table.Column(column)
	if err != nil {
		return stats.Distribution{}, errors.WithCode(errors.CodeMissingColumn, err)
	}
	if col.Kind != dataset.KindNumeric {
		return stats.Distribution{}, errors.InvalidInput(fmt.Sprintf("column %q is not numeric", column))
	}
	return da.AnalyzeDistribution(column, present(col))
}

// AnalyzeDistribution computes moments, a Shapiro-Wilk check and IQR
// outlier fences. Samples too small or constant for Shapiro-Wilk are
// reported as non-normal with p = 0.
func (da *DistributionAnalyzer) AnalyzeDistribution(column string, data []float64) (stats.Distribution, error) {
	d := stats.Distribution{Column: column, Count: len(data)}
	if len(data) < 2 {
		return d, errors.InsufficientData(fmt.Sprintf("column %q has %d values", column, len(data)))
	}

	var err error
	if d.Mean, err = mstats.Mean(data); err != nil {
		return d, errors.Wrap(err, "mean")
	}
	if d.StdDev, err = mstats.StandardDeviationSample(data); err != nil {
		return d, errors.Wrap(err, "standard deviation")
	}

	if d.StdDev > 0 && len(data) > 3 {
		d.Skewness = gstat.Skew(data, nil)
		d.Kurtosis = gstat.ExKurtosis(data, nil)
	}

	if w, p, err := inference.ShapiroWilk(data); err == nil {
		d.ShapiroW, d.ShapiroP = w, p
		d.Normal = p > da.alpha
	}

	sorted := sortedCopy(data)
	q1, q3 := quantile(sorted, 0.25), quantile(sorted, 0.75)
	iqr := q3 - q1
	d.LowerFence = q1 - 1.5*iqr
	d.UpperFence = q3 + 1.5*iqr
	d.Outliers = detectOutliers(data, d.LowerFence, d.UpperFence)
	d.Shape = classifyShape(d)
	return d, nil
}

// detectOutliers counts values outside the fences
func detectOutliers(data []float64, lower, upper float64) int {
	outlierCount := 0
	for _, x := range data {
		if x < lower || x > upper {
			outlierCount++
		}
	}
	return outlierCount
}

func classifyShape(d stats.Distribution) string {
	switch {
	case d.Normal:
		return ShapeNormal
	case d.Skewness > skewThreshold:
		return ShapeRightSkewed
	case d.Skewness < -skewThreshold:
		return ShapeLeftSkewed
	case d.Kurtosis > kurtosisThreshold:
		return ShapeHeavyTailed
	case d.Kurtosis < -kurtosisThreshold:
		return ShapeLightTailed
	}
	return ShapeNonNormal
}
