package hypothesis

import (
	"math/rand/v2"

	"sakilahypo/adapters/stats/inference"
	"sakilahypo/domain/stats"
)

// Normality is the outcome of a Shapiro-Wilk check on one group
type Normality struct {
	Group      string  `json:"group"`
	SampleSize int     `json:"sample_size"`
	W          float64 `json:"w"`
	P          float64 `json:"p"`
	Normal     bool    `json:"normal"`
	Degenerate bool    `json:"degenerate,omitempty"`
}

// Subsample draws min(limit, len(values)) observations without replacement
// using a PRNG seeded with seed. A non-positive limit or a short input returns
// values unchanged. The input slice is never reordered.
func Subsample(values []float64, limit int, seed uint64) []float64 {
	if limit <= 0 || len(values) <= limit {
		return values
	}

	pool := make([]float64, len(values))
	copy(pool, values)

	r := rand.New(rand.NewPCG(seed, seed))
	for i := 0; i < limit; i++ {
		j := i + r.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:limit]
}

// CheckNormality runs Shapiro-Wilk on a bounded sub-sample of the group. A
// group counts as normal only when p > alpha. When the test cannot be
// computed the group is reported as degenerate and non-normal with p = 0.
func CheckNormality(sample stats.Sample, limit int, seed uint64, alpha float64) Normality {
	sub := Subsample(sample.Values, limit, seed)
	result := Normality{
		Group:      sample.Name,
		SampleSize: len(sub),
	}

	w, p, err := inference.ShapiroWilk(sub)
	if err != nil {
		result.Degenerate = true
		return result
	}

	result.W = w
	result.P = stats.ClampPValue(p)
	result.Normal = result.P > alpha
	return result
}
