package inference

import (
	"sakilahypo/domain/stats"

	"gonum.org/v1/gonum/stat/distuv"
)

type kruskalTest struct{}

func (kruskalTest) Name() stats.TestName { return stats.TestKruskalWallis }

func (kruskalTest) Description() string {
	return "Rank-based test of whether all groups come from the same distribution"
}

func (kruskalTest) MinGroups() int { return 2 }
func (kruskalTest) MaxGroups() int { return 0 }

func (kruskalTest) Run(groups [][]float64) (Result, error) {
	return KruskalWallis(groups...)
}

// KruskalWallis computes the tie-corrected H statistic, referred to a
// chi-squared distribution with k-1 degrees of freedom
func KruskalWallis(groups ...[]float64) (Result, error) {
	if len(groups) < 2 {
		return Result{}, needGroups(len(groups), stats.TestKruskalWallis)
	}
	for _, g := range groups {
		if err := needAtLeast(g, 1, stats.TestKruskalWallis); err != nil {
			return Result{}, err
		}
	}

	all, offsets := concat(groups)
	ranks, ties := rankAverage(all)
	n := float64(len(all))
	df := float64(len(groups) - 1)
	meta := map[string]interface{}{"df": df}

	correction := 1 - ties/(n*n*n-n)
	if correction == 0 {
		// every observation is tied
		return finish(stats.TestKruskalWallis, 0, 1, meta), nil
	}

	sum := 0.0
	for i := range groups {
		r := 0.0
		for _, rank := range ranks[offsets[i]:offsets[i+1]] {
			r += rank
		}
		sum += r * r / float64(offsets[i+1]-offsets[i])
	}

	h := (12/(n*(n+1))*sum - 3*(n+1)) / correction
	p := distuv.ChiSquared{K: df}.Survival(h)
	return finish(stats.TestKruskalWallis, h, p, meta), nil
}
