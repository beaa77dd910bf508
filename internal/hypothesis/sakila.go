package hypothesis

import (
	"fmt"
	"strings"

	"sakilahypo/domain/dataset"
	"sakilahypo/domain/stats"
	"sakilahypo/internal/config"
	"sakilahypo/internal/errors"
	"sakilahypo/internal/logging"

	"github.com/rs/zerolog"
)

// Hypothesis names understood by Analyzer.Run
const (
	CountryRevenue = "country"
	RatingRevenue  = "rating"
)

// Config holds the thresholds shared by every hypothesis
type Config struct {
	Alpha               float64
	MinObservations     int
	TwoGroupSampleCap   int
	MultiGroupSampleCap int
	Seed                uint64
}

// DefaultConfig returns the thresholds of the original analysis
func DefaultConfig() Config {
	return Config{
		Alpha:               0.05,
		MinObservations:     3,
		TwoGroupSampleCap:   5000,
		MultiGroupSampleCap: 500,
		Seed:                42,
	}
}

// ConfigFromStats adapts the application configuration
func ConfigFromStats(c config.StatsConfig) Config {
	return Config{
		Alpha:               c.Alpha,
		MinObservations:     c.MinObservations,
		TwoGroupSampleCap:   c.TwoGroupSampleCap,
		MultiGroupSampleCap: c.MultiGroupSampleCap,
		Seed:                c.Seed,
	}
}

// CompareRequest describes a comparison of a numeric column across groups.
// With Match set the table is split into Match vs every other row;
// otherwise one group is formed per distinct value of Group.
type CompareRequest struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	Group      string `json:"group"`
	Match      string `json:"match,omitempty"`
	OtherLabel string `json:"other_label,omitempty"`
	Claim      Claim  `json:"-"`
}

// Analyzer runs hypotheses against an in-memory table. It holds no state
// between calls, so the same table and seed always give the same result.
type Analyzer struct {
	cfg Config
	log zerolog.Logger
}

// NewAnalyzer creates an analyzer with the given thresholds
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{
		cfg: cfg,
		log: logging.Component("hypothesis"),
	}
}

// Config returns the analyzer thresholds
func (a *Analyzer) Config() Config {
	return a.cfg
}

// Names lists the built-in hypotheses
func Names() []string {
	return []string{CountryRevenue, RatingRevenue}
}

// Run evaluates a built-in hypothesis by name
func (a *Analyzer) Run(name string, table *dataset.Table) (stats.TestResult, error) {
	switch name {
	case CountryRevenue:
		return a.CountryRevenue(table), nil
	case RatingRevenue:
		return a.RatingRevenue(table), nil
	}
	return stats.TestResult{}, errors.NotFound(fmt.Sprintf("hypothesis %q", name))
}

// CountryRevenue tests whether payments from United States customers differ
// from payments in every other country
func (a *Analyzer) CountryRevenue(table *dataset.Table) stats.TestResult {
	res := a.Compare(table, CompareRequest{
		Name:       CountryRevenue,
		Value:      "amount",
		Group:      "country",
		Match:      "United States",
		OtherLabel: "Other",
		Claim: Claim{
			Effect:   "Revenue from United States customers differs from other countries.",
			NoEffect: "No difference in revenue between the United States and other countries.",
		},
	})
	if res.Failed() {
		return res
	}

	// keep the original diagnostic names alongside the generic ones
	res.Diagnostics["p_shapiro_usa"] = res.Groups[0].NormalityP
	res.Diagnostics["p_shapiro_other"] = res.Groups[1].NormalityP
	return res
}

// RatingRevenue tests whether the film rating affects payment amounts
func (a *Analyzer) RatingRevenue(table *dataset.Table) stats.TestResult {
	return a.Compare(table, CompareRequest{
		Name:  RatingRevenue,
		Value: "amount",
		Group: "rating",
		Claim: Claim{
			Effect:   "Film rating affects revenue.",
			NoEffect: "Film rating does not affect revenue.",
		},
	})
}

// Compare runs the test selector over groups built from the table. Missing
// columns and small groups are reported in the result's Error field; no
// statistical routine runs in either case.
func (a *Analyzer) Compare(table *dataset.Table, req CompareRequest) stats.TestResult {
	res := stats.TestResult{Hypothesis: req.Name}
	if res.Hypothesis == "" {
		res.Hypothesis = fmt.Sprintf("%s_by_%s", req.Value, req.Group)
	}

	samples, err := a.buildSamples(table, req)
	if err != nil {
		res.Error = err.Error()
		a.log.Warn().Str("hypothesis", res.Hypothesis).Str("code", errors.GetCode(err)).Msg(res.Error)
		return res
	}

	selector := Selector{
		Alpha:           a.cfg.Alpha,
		MinObservations: a.cfg.MinObservations,
		SampleCap:       a.cfg.TwoGroupSampleCap,
		Seed:            a.cfg.Seed,
	}
	if len(samples) > 2 {
		selector.SampleCap = a.cfg.MultiGroupSampleCap
	}

	sel, err := selector.Select(samples)
	if err != nil {
		res.Error = err.Error()
		a.log.Warn().Str("hypothesis", res.Hypothesis).Str("code", errors.GetCode(err)).Msg(res.Error)
		return res
	}

	claim := req.Claim
	if claim.Effect == "" {
		claim = Claim{
			Effect:   fmt.Sprintf("%s differs across %s groups.", req.Value, req.Group),
			NoEffect: fmt.Sprintf("No difference in %s across %s groups.", req.Value, req.Group),
		}
	}

	res.Test = sel.Test
	res.Statistic = sel.Statistic
	res.PValue = sel.PValue
	res.Conclusion = Conclude(sel, samples, a.cfg.Alpha, claim)
	res.Groups = summarize(samples, sel.Normality)
	res.Diagnostics = diagnostics(sel)

	a.log.Debug().
		Str("hypothesis", res.Hypothesis).
		Str("test", string(res.Test)).
		Float64("p_value", res.PValue).
		Int("groups", len(samples)).
		Msg("hypothesis tested")
	return res
}

func (a *Analyzer) buildSamples(table *dataset.Table, req CompareRequest) ([]stats.Sample, error) {
	if missing := table.Missing(req.Group, req.Value); len(missing) > 0 {
		return nil, errors.MissingColumn(fmt.Sprintf("no '%s' or '%s' column in table (missing: %s)",
			req.Group, req.Value, strings.Join(missing, ", ")))
	}

	if req.Match != "" {
		in, out, err := table.Partition(req.Value, req.Group, req.Match)
		if err != nil {
			return nil, errors.WithCode(errors.CodeInvalidInput, err)
		}
		other := req.OtherLabel
		if other == "" {
			other = "Other"
		}
		return []stats.Sample{
			{Name: req.Match, Values: in},
			{Name: other, Values: out},
		}, nil
	}

	groups, err := table.GroupNumeric(req.Value, req.Group)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	samples := make([]stats.Sample, len(groups))
	for i, g := range groups {
		samples[i] = stats.Sample{Name: g.Key, Values: g.Values}
	}
	return samples, nil
}

func summarize(samples []stats.Sample, normality []Normality) []stats.GroupSummary {
	medians := Medians(samples)
	out := make([]stats.GroupSummary, len(samples))
	for i, s := range samples {
		out[i] = stats.GroupSummary{
			Name:       s.Name,
			Size:       s.Len(),
			Median:     medians[i],
			NormalityP: normality[i].P,
			Normal:     normality[i].Normal,
			Degenerate: normality[i].Degenerate,
		}
	}
	return out
}

// diagnostics flattens per-group normality into p_shapiro_<group> and
// normal_<group> keys plus the numeric test metadata
func diagnostics(sel *Selection) map[string]interface{} {
	out := make(map[string]interface{}, 2*len(sel.Normality)+len(sel.Metadata)+1)
	for _, n := range sel.Normality {
		key := diagnosticKey(n.Group)
		out["p_shapiro_"+key] = n.P
		out["normal_"+key] = n.Normal
	}
	out["all_normal"] = sel.AllNormal()

	for k, v := range sel.Metadata {
		switch v.(type) {
		case float64, bool:
			out[k] = v
		}
	}
	return out
}

func diagnosticKey(group string) string {
	return strings.ReplaceAll(strings.TrimSpace(group), " ", "_")
}
