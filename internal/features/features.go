// Package features derives analysis columns from the rental export:
// rental durations, per-customer and per-film aggregates, and encodings
// of the categorical columns.
package features

import (
	"fmt"
	"math"
	"strings"
	"time"

	"sakilahypo/domain/dataset"
	"sakilahypo/internal/errors"
	"sakilahypo/models"
)

// Derived column names
const (
	RentalDurationDays = "rental_duration_days"
	CustomerValue      = "customer_value"
	FilmPopularity     = "film_popularity"
)

const secondsPerDay = 86400

var timestampLayouts = []string{
	models.TimestampLayout,
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02",
}

// Create returns a copy of the table with rental_duration_days,
// customer_value and film_popularity added. Rows whose dates are missing
// or unparsable get NaN durations.
func Create(table *dataset.Table) (*dataset.Table, error) {
	required := []string{"rental_date", "return_date", "customer_id", "amount", "film_id", "rental_id"}
	if err := requireColumns(table, required...); err != nil {
		return nil, err
	}

	out := table.Clone()

	durations, err := rentalDurations(table)
	if err != nil {
		return nil, err
	}
	if err := out.AddNumeric(RentalDurationDays, durations); err != nil {
		return nil, errors.Wrap(err, "failed to add rental durations")
	}

	value, err := groupSum(table, "customer_id", "amount")
	if err != nil {
		return nil, err
	}
	if err := out.AddNumeric(CustomerValue, value); err != nil {
		return nil, errors.Wrap(err, "failed to add customer value")
	}

	popularity := groupCount(table, "film_id", "rental_id")
	if err := out.AddNumeric(FilmPopularity, popularity); err != nil {
		return nil, errors.Wrap(err, "failed to add film popularity")
	}
	return out, nil
}

func requireColumns(table *dataset.Table, names ...string) error {
	if missing := table.Missing(names...); len(missing) > 0 {
		return errors.MissingColumn(fmt.Sprintf("missing columns: %s", strings.Join(missing, ", ")))
	}
	return nil
}

func rentalDurations(table *dataset.Table) ([]float64, error) {
	rented, err := table.Column("rental_date")
	if err != nil {
		return nil, err
	}
	returned, err := table.Column("return_date")
	if err != nil {
		return nil, err
	}

	out := make([]float64, table.Rows())
	for i := range out {
		start, ok1 := parseTimestamp(rented.Value(i))
		end, ok2 := parseTimestamp(returned.Value(i))
		if !ok1 || !ok2 {
			out[i] = math.NaN()
			continue
		}
		out[i] = end.Sub(start).Seconds() / secondsPerDay
	}
	return out, nil
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// groupSum broadcasts the sum of a numeric column per key back to every
// row of that key. Missing values are skipped; rows without a key get NaN.
func groupSum(table *dataset.Table, key, value string) ([]float64, error) {
	keys, err := table.Column(key)
	if err != nil {
		return nil, err
	}
	values, err := table.Column(value)
	if err != nil {
		return nil, err
	}
	if values.Kind != dataset.KindNumeric {
		return nil, errors.InvalidInput(fmt.Sprintf("column %q is not numeric", value))
	}

	sums := make(map[string]float64)
	for i := 0; i < table.Rows(); i++ {
		if keys.IsMissing(i) {
			continue
		}
		k := keys.Value(i)
		if !values.IsMissing(i) {
			sums[k] += values.Float(i)
		} else if _, ok := sums[k]; !ok {
			sums[k] = 0
		}
	}
	return broadcast(keys, table.Rows(), sums), nil
}

// groupCount broadcasts the number of non-missing values per key
func groupCount(table *dataset.Table, key, value string) []float64 {
	keys, _ := table.Column(key)
	values, _ := table.Column(value)

	counts := make(map[string]float64)
	for i := 0; i < table.Rows(); i++ {
		if keys.IsMissing(i) {
			continue
		}
		k := keys.Value(i)
		if !values.IsMissing(i) {
			counts[k]++
		} else if _, ok := counts[k]; !ok {
			counts[k] = 0
		}
	}
	return broadcast(keys, table.Rows(), counts)
}

func broadcast(keys *dataset.Column, rows int, agg map[string]float64) []float64 {
	out := make([]float64, rows)
	for i := range out {
		if keys.IsMissing(i) {
			out[i] = math.NaN()
			continue
		}
		out[i] = agg[keys.Value(i)]
	}
	return out
}
