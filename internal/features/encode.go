package features

import (
	"math"
	"sort"
	"strings"

	"sakilahypo/domain/dataset"
	"sakilahypo/internal/errors"
)

// Encoded column names and prefixes
const (
	RatingEncoded  = "rating_encoded"
	CountryGrouped = "country_grouped"
	CategoryPrefix = "category_"
	CountryPrefix  = "country_"
	OtherCountry   = "Other"
	TopCountries   = 5
)

// RatingOrder is the MPAA rating scale from least to most restricted
var RatingOrder = []string{"G", "PG", "PG-13", "R", "NC-17"}

// Encode returns a copy of the table with an ordinal rating, one-hot film
// categories and one-hot countries (the five most frequent, the rest
// grouped as Other). Unknown ratings encode as -1, missing ones as NaN.
func Encode(table *dataset.Table) (*dataset.Table, error) {
	if err := requireColumns(table, "rating", "category", "country"); err != nil {
		return nil, err
	}

	out := table.Clone()

	ratings, err := table.Strings("rating")
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	if err := out.AddNumeric(RatingEncoded, encodeOrdinal(ratings, RatingOrder)); err != nil {
		return nil, errors.Wrap(err, "failed to encode rating")
	}

	categories, err := table.Strings("category")
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	if err := addOneHot(out, CategoryPrefix, categories); err != nil {
		return nil, err
	}

	countries, err := table.Strings("country")
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	grouped := GroupTop(countries, TopCountries, OtherCountry)
	if err := out.AddCategorical(CountryGrouped, grouped); err != nil {
		return nil, errors.Wrap(err, "failed to add grouped country")
	}
	if err := addOneHot(out, CountryPrefix, grouped); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeOrdinal(values, order []string) []float64 {
	rank := make(map[string]float64, len(order))
	for i, v := range order {
		rank[v] = float64(i)
	}

	out := make([]float64, len(values))
	for i, v := range values {
		switch r, ok := rank[v]; {
		case v == "":
			out[i] = math.NaN()
		case ok:
			out[i] = r
		default:
			out[i] = -1
		}
	}
	return out
}

// addOneHot adds one 0/1 column per distinct value, in sorted order.
// Missing values are zero in every indicator.
func addOneHot(table *dataset.Table, prefix string, values []string) error {
	for _, level := range Levels(values) {
		indicator := make([]float64, len(values))
		for i, v := range values {
			if v == level {
				indicator[i] = 1
			}
		}
		name := prefix + strings.ReplaceAll(level, " ", "_")
		if err := table.AddNumeric(name, indicator); err != nil {
			return errors.Wrapf(err, "failed to add %s", name)
		}
	}
	return nil
}

// Levels returns the distinct non-empty values, sorted
func Levels(values []string) []string {
	seen := make(map[string]bool)
	var levels []string
	for _, v := range values {
		if v != "" && !seen[v] {
			seen[v] = true
			levels = append(levels, v)
		}
	}
	sort.Strings(levels)
	return levels
}

// GroupTop keeps the n most frequent values and replaces everything else,
// including missing values, with other. Frequency ties go to the
// alphabetically first value.
func GroupTop(values []string, n int, other string) []string {
	counts := make(map[string]int)
	for _, v := range values {
		if v != "" {
			counts[v]++
		}
	}

	ranked := make([]string, 0, len(counts))
	for v := range counts {
		ranked = append(ranked, v)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	keep := make(map[string]bool, len(ranked))
	for _, v := range ranked {
		keep[v] = true
	}

	out := make([]string, len(values))
	for i, v := range values {
		if keep[v] {
			out[i] = v
		} else {
			out[i] = other
		}
	}
	return out
}
