// Package inference implements the significance tests used by the hypothesis
// selector. Every test returns a p-value in [0, 1] and reports bad input as an
// error instead of a NaN.
package inference

import (
	"fmt"
	"math"

	"sakilahypo/domain/core"
	"sakilahypo/domain/stats"
)

// Result is the output of a single significance test
type Result struct {
	Test      stats.TestName         `json:"test"`
	Statistic float64                `json:"statistic"`
	PValue    float64                `json:"p_value"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// GroupTest compares two or more groups of observations
type GroupTest interface {
	Name() stats.TestName
	Description() string
	MinGroups() int
	MaxGroups() int // 0 means unbounded
	Run(groups [][]float64) (Result, error)
}

var registry = map[stats.TestName]GroupTest{
	stats.TestWelch:         welchTest{},
	stats.TestMannWhitney:   mannWhitneyTest{},
	stats.TestANOVA:         anovaTest{},
	stats.TestKruskalWallis: kruskalTest{},
}

// For returns the group test registered under name
func For(name stats.TestName) (GroupTest, error) {
	t, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown test %q", name)
	}
	return t, nil
}

// Run checks the group count against the test and runs it
func Run(t GroupTest, groups [][]float64) (Result, error) {
	k := len(groups)
	if k < t.MinGroups() || (t.MaxGroups() > 0 && k > t.MaxGroups()) {
		return Result{}, fmt.Errorf("%s cannot compare %d groups", t.Name(), k)
	}
	for i, g := range groups {
		if err := checkFinite(g); err != nil {
			return Result{}, fmt.Errorf("group %d: %w", i, err)
		}
	}
	return t.Run(groups)
}

// finish sanitizes a statistic and p-value pair before it leaves the package
func finish(name stats.TestName, statistic, p float64, meta map[string]interface{}) Result {
	if meta == nil {
		meta = make(map[string]interface{})
	}
	if math.IsNaN(statistic) || math.IsInf(statistic, 0) {
		meta["statistic_non_finite"] = true
		statistic = 0
	}
	return Result{
		Test:      name,
		Statistic: statistic,
		PValue:    stats.ClampPValue(p),
		Metadata:  meta,
	}
}

func checkFinite(values []float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite observation", core.ErrDegenerateSample)
		}
	}
	return nil
}

func needAtLeast(values []float64, n int, test stats.TestName) error {
	if len(values) < n {
		return fmt.Errorf("%w: %s needs at least %d observations per group, got %d",
			core.ErrInsufficientData, test, n, len(values))
	}
	return nil
}

func needGroups(k int, test stats.TestName) error {
	return fmt.Errorf("%w: %s needs at least 2 groups, got %d", core.ErrInsufficientData, test, k)
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleVariance uses the n-1 denominator
func sampleVariance(values []float64, m float64) float64 {
	ss := 0.0
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return ss / float64(len(values)-1)
}

// poly evaluates c[0] + c[1]x + c[2]x^2 + ...
func poly(c []float64, x float64) float64 {
	result := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		result = result*x + c[i]
	}
	return result
}
