// Package reporter renders occupancy change reports for humans (text table)
// and machines (JSON/YAML export).
package reporter

import (
	"fmt"
	"io"

	"github.com/occutrend/occutrend/internal/trend"
)

// TextReporter writes a human-readable report.
type TextReporter struct {
	writer io.Writer
}

// NewTextReporter creates a text reporter writing to w.
func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{writer: w}
}

// Generate renders the report as a fixed-width table.
func (r *TextReporter) Generate(species string, report *trend.Report) error {
	r.printf("Occupancy change report\n")
	r.printf("--------------------------------------------------------------------\n")
	r.printf("Species:     %s\n", species)
	r.printf("Window:      %d..%d\n", report.FirstYear, report.LastYear)
	r.printf("Posterior:   %d draws\n", report.SampleSize)
	r.printf("Generated:   %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))

	ci := 0.0
	r.printf("%-14s %12s %12s %24s\n", "metric", "mean", "median", "credible interval")
	for _, kind := range trend.AllMetricKinds() {
		res, ok := report.Results[kind]
		if !ok {
			continue
		}
		s := res.Summary
		ci = s.UpperPercentile - s.LowerPercentile
		r.printf("%-14s %12s %12s %24s\n",
			kind,
			formatValue(kind, s.Mean),
			formatValue(kind, s.Median),
			fmt.Sprintf("(%s, %s)", formatValue(kind, s.Lower), formatValue(kind, s.Upper)),
		)
	}
	if ci > 0 {
		r.printf("\nCredible intervals are equal-tailed at %.0f%%.\n", ci)
	}

	if len(report.UnconvergedYears) > 0 {
		r.printf("\nWARNING: %d year(s) did not converge (Rhat > 1.1): %v\n",
			len(report.UnconvergedYears), report.UnconvergedYears)
		r.printf("Estimates involving these years should be treated with caution.\n")
	}

	return nil
}

// formatValue renders a metric value with its natural unit: proportions for
// difference, percent for percentdif, percent per year for the growth rates.
func formatValue(kind trend.MetricKind, v float64) string {
	switch kind {
	case trend.PercentDiff:
		return fmt.Sprintf("%.1f%%", v)
	case trend.GrowthRate, trend.LinearGrowth:
		return fmt.Sprintf("%.2f%%/yr", v*100)
	default:
		return fmt.Sprintf("%.4f", v)
	}
}

func (r *TextReporter) printf(format string, args ...any) {
	fmt.Fprintf(r.writer, format, args...)
}
