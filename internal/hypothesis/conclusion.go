package hypothesis

import (
	"fmt"
	"strings"

	"sakilahypo/domain/stats"

	mstats "github.com/montanaflynn/stats"
)

// Claim words the two possible outcomes of a hypothesis
type Claim struct {
	Effect   string // stated when H0 is rejected
	NoEffect string
}

// Conclude renders the accept/reject statement for a selection. The p-value
// is printed to 4 decimals; a rejection also lists the group medians.
func Conclude(sel *Selection, samples []stats.Sample, alpha float64, claim Claim) string {
	if sel.PValue < alpha {
		return fmt.Sprintf("Reject H0 (p=%.4f). %s (medians: %s)",
			sel.PValue, claim.Effect, formatMedians(samples))
	}
	return fmt.Sprintf("Fail to reject H0 (p=%.4f). %s", sel.PValue, claim.NoEffect)
}

// Medians returns the median of every sample, in sample order
func Medians(samples []stats.Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		m, err := mstats.Median(mstats.Float64Data(s.Values))
		if err != nil {
			m = 0
		}
		out[i] = m
	}
	return out
}

func formatMedians(samples []stats.Sample) string {
	medians := Medians(samples)
	parts := make([]string, len(samples))
	for i, s := range samples {
		parts[i] = fmt.Sprintf("%s=%.2f", s.Name, medians[i])
	}
	return strings.Join(parts, ", ")
}
