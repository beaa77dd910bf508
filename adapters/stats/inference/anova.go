package inference

import (
	"fmt"
	"math"

	"sakilahypo/domain/core"
	"sakilahypo/domain/stats"

	"gonum.org/v1/gonum/stat/distuv"
)

type anovaTest struct{}

func (anovaTest) Name() stats.TestName { return stats.TestANOVA }

func (anovaTest) Description() string {
	return "One-way analysis of variance across group means"
}

func (anovaTest) MinGroups() int { return 2 }
func (anovaTest) MaxGroups() int { return 0 }

func (anovaTest) Run(groups [][]float64) (Result, error) {
	return OneWayANOVA(groups...)
}

// OneWayANOVA tests whether all groups share the same mean
func OneWayANOVA(groups ...[]float64) (Result, error) {
	if len(groups) < 2 {
		return Result{}, needGroups(len(groups), stats.TestANOVA)
	}
	for _, g := range groups {
		if err := needAtLeast(g, 1, stats.TestANOVA); err != nil {
			return Result{}, err
		}
	}

	all, _ := concat(groups)
	grand := mean(all)
	k, n := float64(len(groups)), float64(len(all))
	if n <= k {
		return Result{}, fmt.Errorf("%w: %s needs more observations than groups", core.ErrInsufficientData, stats.TestANOVA)
	}

	var ssb, ssw float64
	for _, g := range groups {
		m := mean(g)
		ssb += float64(len(g)) * (m - grand) * (m - grand)
		for _, v := range g {
			ssw += (v - m) * (v - m)
		}
	}

	df1, df2 := k-1, n-k
	msb, msw := ssb/df1, ssw/df2
	meta := map[string]interface{}{
		"df_between": df1,
		"df_within":  df2,
	}

	if msw == 0 {
		if msb == 0 {
			return finish(stats.TestANOVA, 0, 1, meta), nil
		}
		return finish(stats.TestANOVA, math.Inf(1), 0, meta), nil
	}

	f := msb / msw
	p := distuv.F{D1: df1, D2: df2}.Survival(f)
	return finish(stats.TestANOVA, f, p, meta), nil
}
