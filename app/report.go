package app

import (
	"fmt"
	"sort"
	"strings"

	"sakilahypo/domain/stats"
	"sakilahypo/models"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// RenderMarkdown formats a run as a Markdown report
func RenderMarkdown(run *models.AnalysisRun) []byte {
	var b strings.Builder

	b.WriteString("# Analysis report\n\n")
	fmt.Fprintf(&b, "- **Run:** `%s`\n", run.ID)
	fmt.Fprintf(&b, "- **Source:** %s\n", escapeCell(run.Source))
	fmt.Fprintf(&b, "- **Rows:** %d, **columns:** %d\n", run.RowCount, run.Columns)
	fmt.Fprintf(&b, "- **Alpha:** %g, **seed:** %d\n", run.Alpha, run.Seed)
	fmt.Fprintf(&b, "- **Result hash:** `%s`\n", run.ResultHash)
	fmt.Fprintf(&b, "- **Created:** %s (%d ms)\n\n", run.CreatedAt.Format(models.TimestampLayout), run.DurationMS)

	b.WriteString("## Hypotheses\n\n")
	for _, res := range run.Results {
		writeResult(&b, res)
	}

	if len(run.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		keys := make([]string, 0, len(run.Warnings))
		for k := range run.Warnings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- **%s:** %v\n", k, run.Warnings[k])
		}
		b.WriteString("\n")
	}

	writeMetrics(&b, run.Metrics)
	return []byte(b.String())
}

// RenderHTML renders the Markdown report as a complete HTML page. Raw HTML
// in the Markdown is dropped since cells carry uploaded dataset values.
func RenderHTML(run *models.AnalysisRun) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse(RenderMarkdown(run))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage | html.SkipHTML | html.Safelink,
		Title: "Analysis report " + run.ID.String(),
	})
	return markdown.Render(doc, renderer)
}

func writeResult(b *strings.Builder, res stats.TestResult) {
	fmt.Fprintf(b, "### %s\n\n", res.Hypothesis)
	if res.Failed() {
		fmt.Fprintf(b, "**Error:** %s\n\n", res.Error)
		return
	}

	b.WriteString("| Test | Statistic | p-value |\n|---|---|---|\n")
	fmt.Fprintf(b, "| %s | %.4f | %.4g |\n\n", res.Test, res.Statistic, res.PValue)
	fmt.Fprintf(b, "%s\n\n", res.Conclusion)

	if len(res.Groups) == 0 {
		return
	}
	b.WriteString("| Group | n | Median | Shapiro p | Normal |\n|---|---|---|---|---|\n")
	for _, g := range res.Groups {
		fmt.Fprintf(b, "| %s | %d | %.2f | %.4g | %t |\n",
			escapeCell(g.Name), g.Size, g.Median, g.NormalityP, g.Normal)
	}
	b.WriteString("\n")
}

func writeMetrics(b *strings.Builder, metrics []stats.ColumnMetrics) {
	var numeric, categorical []stats.ColumnMetrics
	for _, m := range metrics {
		if m.Numeric != nil {
			numeric = append(numeric, m)
		} else if m.Categorical != nil {
			categorical = append(categorical, m)
		}
	}
	if len(numeric) == 0 && len(categorical) == 0 {
		return
	}

	b.WriteString("## Column metrics\n\n")
	if len(numeric) > 0 {
		b.WriteString("| Column | Missing % | Mean | Median | Std | Min | Max | Q1 | Q3 |\n")
		b.WriteString("|---|---|---|---|---|---|---|---|---|\n")
		for _, m := range numeric {
			n := m.Numeric
			fmt.Fprintf(b, "| %s | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f |\n",
				escapeCell(m.Column), m.MissingPct, n.Mean, n.Median, n.StdDev, n.Min, n.Max, n.Q1, n.Q3)
		}
		b.WriteString("\n")
	}
	if len(categorical) > 0 {
		b.WriteString("| Column | Missing % | Unique | Mode |\n|---|---|---|---|\n")
		for _, m := range categorical {
			c := m.Categorical
			fmt.Fprintf(b, "| %s | %.2f | %d | %s |\n", escapeCell(m.Column), m.MissingPct, c.NUnique, escapeCell(c.Mode))
		}
		b.WriteString("\n")
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
