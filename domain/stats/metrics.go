package stats

// ColumnMetrics summarizes one column. Exactly one of Numeric and
// Categorical is set, matching the column kind.
type ColumnMetrics struct {
	Column      string              `json:"column"`
	MissingPct  float64             `json:"missing_pct"`
	Numeric     *NumericMetrics     `json:"numeric,omitempty"`
	Categorical *CategoricalMetrics `json:"categorical,omitempty"`
}

// NumericMetrics holds location and spread of a numeric column. Quantiles
// use linear interpolation between order statistics.
type NumericMetrics struct {
	Count    int     `json:"count"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Variance float64 `json:"variance"`
	StdDev   float64 `json:"std"`
	Q10      float64 `json:"q0.1"`
	Q90      float64 `json:"q0.9"`
	Q1       float64 `json:"q1"`
	Q3       float64 `json:"q3"`
}

// CategoricalMetrics holds cardinality and the most frequent value
type CategoricalMetrics struct {
	Count   int    `json:"count"`
	NUnique int    `json:"n_unique"`
	Mode    string `json:"mode,omitempty"`
}

// Distribution describes the shape of one numeric column
type Distribution struct {
	Column     string  `json:"column"`
	Count      int     `json:"count"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std"`
	Skewness   float64 `json:"skewness"`
	Kurtosis   float64 `json:"kurtosis"` // excess kurtosis
	ShapiroW   float64 `json:"shapiro_w"`
	ShapiroP   float64 `json:"shapiro_p"`
	Normal     bool    `json:"normal"`
	LowerFence float64 `json:"lower_fence"`
	UpperFence float64 `json:"upper_fence"`
	Outliers   int     `json:"outliers"`
	Shape      string  `json:"shape"`
}
