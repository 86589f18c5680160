package trend

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/occutrend/occutrend/internal/logger"
	"github.com/occutrend/occutrend/internal/posterior"
)

// MetricResult pairs a metric's summary with the raw per-draw values it was
// reduced from, so callers can re-summarize at other credible levels or plot
// the full distribution.
type MetricResult struct {
	Kind    MetricKind `json:"kind"`
	Summary Summary    `json:"summary"`
	Draws   []float64  `json:"draws"`
}

// Report is the outcome of one change computation over one year window.
type Report struct {
	ID               string                      `json:"id"`
	FirstYear        int                         `json:"first_year"`
	LastYear         int                         `json:"last_year"`
	SampleSize       int                         `json:"sample_size"`
	Results          map[MetricKind]MetricResult `json:"results"`
	UnconvergedYears []int                       `json:"unconverged_years,omitempty"`
	GeneratedAt      time.Time                   `json:"generated_at"`
}

// Options adjusts report computation. Zero percentiles fall back to the
// 2.5/97.5 defaults.
type Options struct {
	LowerPercentile float64
	UpperPercentile float64
}

// Compute applies the requested metrics to the store's draws for the window
// [firstYear, lastYear] and summarizes each one. Endpoint metrics fetch only
// the two boundary years; lineargrowth fetches every year in the window and
// fails with posterior.MissingYearError if any is absent. Each call is
// stateless: identical inputs yield identical summaries.
func Compute(store *posterior.Store, firstYear, lastYear int, kinds []MetricKind, opts Options) (*Report, error) {
	if firstYear >= lastYear {
		return nil, InvalidRangeError{FirstYear: firstYear, LastYear: lastYear}
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no metrics requested")
	}

	lowerPct := opts.LowerPercentile
	upperPct := opts.UpperPercentile
	if lowerPct == 0 && upperPct == 0 {
		lowerPct = DefaultLowerPercentile
		upperPct = DefaultUpperPercentile
	}

	requested := make(map[MetricKind]bool, len(kinds))
	for _, kind := range kinds {
		if _, err := ParseMetricKind(string(kind)); err != nil {
			return nil, err
		}
		requested[kind] = true
	}

	first, err := store.YearSamples(firstYear)
	if err != nil {
		return nil, err
	}
	last, err := store.YearSamples(lastYear)
	if err != nil {
		return nil, err
	}

	results := make(map[MetricKind]MetricResult, len(requested))
	for kind := range requested {
		var draws []float64
		var metricErr error

		switch kind {
		case Difference:
			draws, metricErr = DifferenceDraws(first, last)
		case PercentDiff:
			draws, metricErr = PercentDiffDraws(first, last)
		case GrowthRate:
			draws, metricErr = GrowthRateDraws(first, last, lastYear-firstYear)
		case LinearGrowth:
			years, drawsByYear, yearErr := windowDraws(store, firstYear, lastYear)
			if yearErr != nil {
				return nil, yearErr
			}
			draws, metricErr = LinearGrowthDraws(years, drawsByYear)
		}
		if metricErr != nil {
			return nil, fmt.Errorf("metric %s over %d..%d: %w", kind, firstYear, lastYear, metricErr)
		}

		summary, sumErr := Summarize(draws, lowerPct, upperPct)
		if sumErr != nil {
			return nil, fmt.Errorf("metric %s over %d..%d: %w", kind, firstYear, lastYear, sumErr)
		}

		results[kind] = MetricResult{Kind: kind, Summary: summary, Draws: draws}
	}

	unconverged := unconvergedYears(store, firstYear, lastYear)
	if len(unconverged) > 0 {
		logger.Warn("Report %d..%d: %d year(s) did not converge (Rhat > %.1f): %v",
			firstYear, lastYear, len(unconverged), posterior.ConvergenceThreshold, unconverged)
	}

	return &Report{
		ID:               uuid.New().String(),
		FirstYear:        firstYear,
		LastYear:         lastYear,
		SampleSize:       store.SampleSize(),
		Results:          results,
		UnconvergedYears: unconverged,
		GeneratedAt:      time.Now(),
	}, nil
}

// windowDraws fetches draws for every year in [firstYear, lastYear]. Unlike
// the endpoint metrics, a missing intermediate year is an error, never
// silently skipped.
func windowDraws(store *posterior.Store, firstYear, lastYear int) ([]int, [][]float64, error) {
	years := make([]int, 0, lastYear-firstYear+1)
	drawsByYear := make([][]float64, 0, lastYear-firstYear+1)
	for year := firstYear; year <= lastYear; year++ {
		d, err := store.YearSamples(year)
		if err != nil {
			return nil, nil, err
		}
		years = append(years, year)
		drawsByYear = append(drawsByYear, d)
	}
	return years, drawsByYear, nil
}

// unconvergedYears lists modeled years inside the window whose Rhat exceeds
// the convergence threshold. Unconverged years are reported, not errors.
func unconvergedYears(store *posterior.Store, firstYear, lastYear int) []int {
	var out []int
	for year := firstYear; year <= lastYear; year++ {
		if store.HasYear(year) && !store.IsConverged(year) {
			out = append(out, year)
		}
	}
	sort.Ints(out)
	return out
}
