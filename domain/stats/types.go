package stats

import (
	"math"
	"sort"
)

// TestName identifies the significance test that produced a result
type TestName string

const (
	TestWelch         TestName = "Welch's t-test"
	TestMannWhitney   TestName = "Mann-Whitney U test"
	TestANOVA         TestName = "ANOVA"
	TestKruskalWallis TestName = "Kruskal-Wallis"
)

// Parametric reports whether the test assumes normally distributed groups
func (t TestName) Parametric() bool {
	return t == TestWelch || t == TestANOVA
}

// Sample is a named numeric vector for one comparison group
type Sample struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Len returns the number of observations
func (s Sample) Len() int {
	return len(s.Values)
}

// GroupSummary describes one group as seen by the test selector
type GroupSummary struct {
	Name       string  `json:"name"`
	Size       int     `json:"size"`
	Median     float64 `json:"median"`
	NormalityP float64 `json:"normality_p"`
	Normal     bool    `json:"normal"`
	Degenerate bool    `json:"degenerate,omitempty"`
}

// TestResult is the outcome of one hypothesis. A result either carries an
// Error or a complete test outcome, never both.
type TestResult struct {
	Hypothesis  string                 `json:"hypothesis"`
	Test        TestName               `json:"test,omitempty"`
	Statistic   float64                `json:"statistic"`
	PValue      float64                `json:"p_value"`
	Conclusion  string                 `json:"conclusion,omitempty"`
	Groups      []GroupSummary         `json:"groups,omitempty"`
	Diagnostics map[string]interface{} `json:"diagnostics,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// Failed reports whether the hypothesis could not be tested
func (r TestResult) Failed() bool {
	return r.Error != ""
}

// Rejected reports whether the null hypothesis was rejected at alpha
func (r TestResult) Rejected(alpha float64) bool {
	return !r.Failed() && r.PValue < alpha
}

// Map flattens the result into the printable mapping: either {"error": ...}
// or test, statistic, p_value and conclusion followed by the diagnostics.
func (r TestResult) Map() map[string]interface{} {
	if r.Failed() {
		return map[string]interface{}{"error": r.Error}
	}

	out := make(map[string]interface{}, len(r.Diagnostics)+4)
	for k, v := range r.Diagnostics {
		out[k] = v
	}
	out["test"] = string(r.Test)
	out["statistic"] = r.Statistic
	out["p_value"] = r.PValue
	out["conclusion"] = r.Conclusion
	return out
}

// DiagnosticKeys returns the diagnostic keys in sorted order
func (r TestResult) DiagnosticKeys() []string {
	keys := make([]string, 0, len(r.Diagnostics))
	for k := range r.Diagnostics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ClampPValue maps a computed probability into [0, 1]; NaN reads as 1
func ClampPValue(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 1
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
