package inference

import (
	"math"

	"sakilahypo/domain/stats"

	"gonum.org/v1/gonum/stat/distuv"
)

type welchTest struct{}

func (welchTest) Name() stats.TestName { return stats.TestWelch }

func (welchTest) Description() string {
	return "Two-sided two-sample t-test without the equal variance assumption"
}

func (welchTest) MinGroups() int { return 2 }
func (welchTest) MaxGroups() int { return 2 }

func (welchTest) Run(groups [][]float64) (Result, error) {
	return WelchTTest(groups[0], groups[1])
}

// WelchTTest compares the means of two samples with unequal variances,
// using the Welch-Satterthwaite degrees of freedom
func WelchTTest(a, b []float64) (Result, error) {
	if err := needAtLeast(a, 2, stats.TestWelch); err != nil {
		return Result{}, err
	}
	if err := needAtLeast(b, 2, stats.TestWelch); err != nil {
		return Result{}, err
	}

	n1, n2 := float64(len(a)), float64(len(b))
	m1, m2 := mean(a), mean(b)
	v1, v2 := sampleVariance(a, m1)/n1, sampleVariance(b, m2)/n2
	se := math.Sqrt(v1 + v2)

	meta := map[string]interface{}{
		"mean_1": m1,
		"mean_2": m2,
	}

	// both samples constant: the difference is either exact or absent
	if se == 0 {
		meta["df"] = n1 + n2 - 2
		if m1 == m2 {
			return finish(stats.TestWelch, 0, 1, meta), nil
		}
		return finish(stats.TestWelch, math.Copysign(math.Inf(1), m1-m2), 0, meta), nil
	}

	t := (m1 - m2) / se
	df := (v1 + v2) * (v1 + v2) / (v1*v1/(n1-1) + v2*v2/(n2-1))
	meta["df"] = df

	p := 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t))
	return finish(stats.TestWelch, t, p, meta), nil
}
