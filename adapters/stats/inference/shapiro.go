package inference

import (
	"fmt"
	"math"
	"sort"

	"sakilahypo/domain/core"

	"gonum.org/v1/gonum/stat/distuv"
)

// Coefficients of Royston's (1995) approximations, algorithm AS R94
var (
	swC1 = []float64{0, 0.221157, -0.147981, -2.07119, 4.434685, -2.706056}
	swC2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.544, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
	swG  = []float64{-2.273, 0.459}
)

// ShapiroWilk tests the null hypothesis that x was drawn from a normal
// distribution. It returns the W statistic and its p-value.
//
// Samples with fewer than three observations, non-finite values or zero
// range are rejected with an error.
func ShapiroWilk(x []float64) (w, p float64, err error) {
	n := len(x)
	if n < 3 {
		return 0, 0, fmt.Errorf("%w: shapiro-wilk needs at least 3 observations, got %d", core.ErrInsufficientData, n)
	}
	if err := checkFinite(x); err != nil {
		return 0, 0, err
	}

	sorted := make([]float64, n)
	copy(sorted, x)
	sort.Float64s(sorted)

	if sorted[n-1]-sorted[0] < 1e-19 {
		return 0, 0, fmt.Errorf("%w: all %d observations are identical", core.ErrDegenerateSample, n)
	}

	a := shapiroCoefficients(n)

	m := mean(sorted)
	ss := 0.0
	for _, v := range sorted {
		d := v - m
		ss += d * d
	}

	num := 0.0
	for i := range a {
		num += a[i] * (sorted[n-1-i] - sorted[i])
	}
	w = math.Min(num*num/ss, 1)

	return w, shapiroPValue(w, n), nil
}

// shapiroCoefficients returns the first n/2 weights of the antisymmetric
// coefficient vector
func shapiroCoefficients(n int) []float64 {
	half := n / 2
	a := make([]float64, half)
	if n == 3 {
		a[0] = math.Sqrt(0.5)
		return a
	}

	an25 := float64(n) + 0.25
	m := make([]float64, half)
	summ2 := 0.0
	for i := range m {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / an25)
		summ2 += m[i] * m[i]
	}
	summ2 *= 2
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(float64(n))

	a[0] = poly(swC1, rsn) - m[0]/ssumm2

	first := 1
	var fac float64
	if n > 5 {
		first = 2
		a[1] = -m[1]/ssumm2 + poly(swC2, rsn)
		fac = math.Sqrt((summ2 - 2*m[0]*m[0] - 2*m[1]*m[1]) /
			(1 - 2*a[0]*a[0] - 2*a[1]*a[1]))
	} else {
		fac = math.Sqrt((summ2 - 2*m[0]*m[0]) / (1 - 2*a[0]*a[0]))
	}
	for i := first; i < half; i++ {
		a[i] = -m[i] / fac
	}
	return a
}

func shapiroPValue(w float64, n int) float64 {
	if n == 3 {
		return math.Max(0, 6/math.Pi*(math.Asin(math.Sqrt(w))-math.Pi/3))
	}
	if w >= 1 {
		return 1
	}

	w1 := math.Log(1 - w)
	var mu, sigma float64
	if n <= 11 {
		gamma := poly(swG, float64(n))
		if w1 >= gamma {
			return 1e-99
		}
		w1 = -math.Log(gamma - w1)
		mu = poly(swC3, float64(n))
		sigma = math.Exp(poly(swC4, float64(n)))
	} else {
		xx := math.Log(float64(n))
		mu = poly(swC5, xx)
		sigma = math.Exp(poly(swC6, xx))
	}

	return distuv.Normal{Mu: mu, Sigma: sigma}.Survival(w1)
}
