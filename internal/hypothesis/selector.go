package hypothesis

import (
	"fmt"

	"sakilahypo/adapters/stats/inference"
	"sakilahypo/domain/stats"
	"sakilahypo/internal/errors"
)

// floorObservations is the smallest group Shapiro-Wilk can check
const floorObservations = 3

// Selector picks a parametric or rank-based test from the normality of the
// groups, then runs it on the full groups
type Selector struct {
	Alpha           float64
	MinObservations int
	SampleCap       int
	Seed            uint64
}

// Selection is the test the selector ran and its outcome
type Selection struct {
	Test      stats.TestName         `json:"test"`
	Statistic float64                `json:"statistic"`
	PValue    float64                `json:"p_value"`
	Normality []Normality            `json:"normality"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// AllNormal reports whether every group passed the normality check
func (s *Selection) AllNormal() bool {
	for _, n := range s.Normality {
		if !n.Normal {
			return false
		}
	}
	return true
}

// ChooseTest maps the group count and normality outcome onto a test
func ChooseTest(groups int, allNormal bool) stats.TestName {
	switch {
	case groups == 2 && allNormal:
		return stats.TestWelch
	case groups == 2:
		return stats.TestMannWhitney
	case allNormal:
		return stats.TestANOVA
	default:
		return stats.TestKruskalWallis
	}
}

// Validate checks the preconditions of Select without running any test
func (s Selector) Validate(samples []stats.Sample) error {
	if len(samples) < 2 {
		return errors.InsufficientData(fmt.Sprintf("Not enough data: need at least 2 groups, got %d", len(samples)))
	}
	need := max(s.MinObservations, floorObservations)
	for _, sample := range samples {
		if sample.Len() < need {
			return errors.InsufficientData(fmt.Sprintf("Not enough data in group %q: %d observations, need at least %d",
				sample.Name, sample.Len(), need))
		}
	}
	return nil
}

// Select checks normality of every group and runs the matching test
func (s Selector) Select(samples []stats.Sample) (*Selection, error) {
	if err := s.Validate(samples); err != nil {
		return nil, err
	}

	normality := make([]Normality, len(samples))
	groups := make([][]float64, len(samples))
	allNormal := true
	for i, sample := range samples {
		normality[i] = CheckNormality(sample, s.SampleCap, s.Seed, s.Alpha)
		allNormal = allNormal && normality[i].Normal
		groups[i] = sample.Values
	}

	name := ChooseTest(len(samples), allNormal)
	test, err := inference.For(name)
	if err != nil {
		return nil, errors.Wrap(err, "selecting test")
	}

	result, err := inference.Run(test, groups)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDegenerateSample, errors.Wrapf(err, "%s failed", name))
	}

	return &Selection{
		Test:      result.Test,
		Statistic: result.Statistic,
		PValue:    result.PValue,
		Normality: normality,
		Metadata:  result.Metadata,
	}, nil
}
