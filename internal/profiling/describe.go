package profiling

import (
	"sakilahypo/domain/dataset"
)

// Description is a dataset overview: shape plus a summary per column
type Description struct {
	Source      string               `json:"source,omitempty"`
	Rows        int                  `json:"rows"`
	Columns     int                  `json:"columns"`
	Numeric     []NumericSummary     `json:"numeric"`
	Categorical []CategoricalSummary `json:"categorical"`
}

// NumericSummary mirrors the usual describe() row of a numeric column
type NumericSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	P25    float64 `json:"25%"`
	P50    float64 `json:"50%"`
	P75    float64 `json:"75%"`
	Max    float64 `json:"max"`
}

// CategoricalSummary holds count, cardinality and the most frequent value
// with its frequency
type CategoricalSummary struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
	Unique int    `json:"unique"`
	Top    string `json:"top,omitempty"`
	Freq   int    `json:"freq"`
}

// Describe summarizes every column of the table. Numeric columns without
// any values are listed with a zero count.
func Describe(table *dataset.Table) Description {
	d := Description{
		Rows:        table.Rows(),
		Columns:     len(table.Columns()),
		Numeric:     []NumericSummary{},
		Categorical: []CategoricalSummary{},
	}

	for _, col := range table.Columns() {
		if col.Kind == dataset.KindNumeric {
			m := numericMetrics(present(col))
			d.Numeric = append(d.Numeric, NumericSummary{
				Column: col.Name,
				Count:  m.Count,
				Mean:   m.Mean,
				Std:    m.StdDev,
				Min:    m.Min,
				P25:    m.Q1,
				P50:    m.Median,
				P75:    m.Q3,
				Max:    m.Max,
			})
			continue
		}

		counts := make(map[string]int)
		s := CategoricalSummary{Column: col.Name}
		for i := 0; i < col.Len(); i++ {
			if !col.IsMissing(i) {
				counts[col.Value(i)]++
				s.Count++
			}
		}
		s.Unique = len(counts)
		s.Top, s.Freq = mode(counts)
		d.Categorical = append(d.Categorical, s)
	}
	return d
}
