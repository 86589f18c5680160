// Package trend computes occupancy change statistics from paired posterior
// draws.
//
// Every metric is applied independently per draw index i, so the output is a
// full posterior distribution over the change statistic rather than an error
// propagation from summarized means:
//
//	difference:   last[i] - first[i]
//	percentdif:   100 x (last[i] - first[i]) / first[i]
//	growthrate:   (last[i]/first[i])^(1/span) - 1, span = lastYear - firstYear
//	lineargrowth: OLS slope of draw i's occupancy against year over every year
//	              in the window, divided by the draw's mean occupancy
//
// Ratio-based metrics fail loudly with DivisionByZeroError when a draw hits a
// zero denominator; no draw is skipped or flagged, so the same draw index
// fails identically for every metric that shares the denominator. Use Compute
// to apply one or more metrics to a posterior.Store and summarize the results.
package trend

import (
	"errors"
	"fmt"
	"math"

	"github.com/occutrend/occutrend/internal/posterior"
)

// MetricKind identifies one definition of occupancy change.
type MetricKind string

const (
	// Difference is the signed absolute change between the endpoint years.
	Difference MetricKind = "difference"
	// PercentDiff is the change as a percentage of first-year occupancy.
	PercentDiff MetricKind = "percentdif"
	// GrowthRate is the geometric annual growth rate between the endpoints.
	GrowthRate MetricKind = "growthrate"
	// LinearGrowth is the OLS regression slope over every year in the window,
	// normalized by mean occupancy.
	LinearGrowth MetricKind = "lineargrowth"
)

// AllMetricKinds returns every metric kind in presentation order.
func AllMetricKinds() []MetricKind {
	return []MetricKind{Difference, PercentDiff, GrowthRate, LinearGrowth}
}

// ParseMetricKind converts a string to a MetricKind.
func ParseMetricKind(s string) (MetricKind, error) {
	switch MetricKind(s) {
	case Difference, PercentDiff, GrowthRate, LinearGrowth:
		return MetricKind(s), nil
	}
	return "", fmt.Errorf("unknown metric kind %q (valid: difference, percentdif, growthrate, lineargrowth)", s)
}

// InvalidRangeError reports a year window with a non-positive span.
type InvalidRangeError struct {
	FirstYear int
	LastYear  int
}

func (e InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid year range %d..%d: first year must precede last year", e.FirstYear, e.LastYear)
}

// DivisionByZeroError reports a draw whose first-year occupancy (or mean
// occupancy, for lineargrowth) is exactly zero, making a ratio-based metric
// undefined. The whole batch fails; no partial result is returned.
type DivisionByZeroError struct {
	Kind MetricKind
	Draw int
}

func (e DivisionByZeroError) Error() string {
	return fmt.Sprintf("metric %s: draw %d has zero denominator", e.Kind, e.Draw)
}

// ErrEmptyInput is returned when a zero-length posterior sample is passed to
// a metric or to the summary reducer.
var ErrEmptyInput = errors.New("posterior sample is empty")

// DifferenceDraws computes last[i] - first[i] for every paired draw.
func DifferenceDraws(first, last []float64) ([]float64, error) {
	if err := checkPair(first, last); err != nil {
		return nil, err
	}

	out := make([]float64, len(first))
	for i := range first {
		out[i] = last[i] - first[i]
	}
	return out, nil
}

// PercentDiffDraws computes 100 x (last[i] - first[i]) / first[i] for every
// paired draw. Fails with DivisionByZeroError when any first[i] is zero.
func PercentDiffDraws(first, last []float64) ([]float64, error) {
	if err := checkPair(first, last); err != nil {
		return nil, err
	}

	out := make([]float64, len(first))
	for i := range first {
		if first[i] == 0 {
			return nil, DivisionByZeroError{Kind: PercentDiff, Draw: i}
		}
		out[i] = 100 * (last[i] - first[i]) / first[i]
	}
	return out, nil
}

// GrowthRateDraws computes the geometric annual growth rate
// (last[i]/first[i])^(1/span) - 1 for every paired draw. span is the year
// difference between the endpoints and must be positive. Fails with
// DivisionByZeroError when any first[i] is zero.
func GrowthRateDraws(first, last []float64, span int) ([]float64, error) {
	if span <= 0 {
		return nil, fmt.Errorf("growth rate span must be positive, got %d", span)
	}
	if err := checkPair(first, last); err != nil {
		return nil, err
	}

	exponent := 1.0 / float64(span)
	out := make([]float64, len(first))
	for i := range first {
		if first[i] == 0 {
			return nil, DivisionByZeroError{Kind: GrowthRate, Draw: i}
		}
		out[i] = math.Pow(last[i]/first[i], exponent) - 1
	}
	return out, nil
}

// LinearGrowthDraws regresses draw i's occupancy against year across every
// year in the window (not just the endpoints) and divides the OLS slope by
// the draw's mean occupancy, yielding a relative annual growth rate.
// drawsByYear holds one draw vector per year, ordered to match years; all
// vectors must have equal length. Fails with DivisionByZeroError when a
// draw's mean occupancy across the window is exactly zero.
func LinearGrowthDraws(years []int, drawsByYear [][]float64) ([]float64, error) {
	if len(years) < 2 {
		return nil, fmt.Errorf("linear growth requires at least two years, got %d", len(years))
	}
	if len(drawsByYear) != len(years) {
		return nil, fmt.Errorf("linear growth: %d draw vectors for %d years", len(drawsByYear), len(years))
	}

	n := len(drawsByYear[0])
	if n == 0 {
		return nil, ErrEmptyInput
	}
	for idx, d := range drawsByYear[1:] {
		if len(d) != n {
			return nil, posterior.DrawLengthMismatchError{Year: years[idx+1], Len: len(d), Want: n}
		}
	}

	// Year deviations from the mean year are shared by every draw.
	var yearMean float64
	for _, y := range years {
		yearMean += float64(y)
	}
	yearMean /= float64(len(years))

	var sxx float64
	dx := make([]float64, len(years))
	for j, y := range years {
		dx[j] = float64(y) - yearMean
		sxx += dx[j] * dx[j]
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var occMean float64
		for j := range years {
			occMean += drawsByYear[j][i]
		}
		occMean /= float64(len(years))

		var sxy float64
		for j := range years {
			sxy += dx[j] * (drawsByYear[j][i] - occMean)
		}
		slope := sxy / sxx

		if occMean == 0 {
			return nil, DivisionByZeroError{Kind: LinearGrowth, Draw: i}
		}
		out[i] = slope / occMean
	}
	return out, nil
}

// checkPair validates that two paired draw vectors are non-empty and of
// equal length.
func checkPair(first, last []float64) error {
	if len(first) == 0 || len(last) == 0 {
		return ErrEmptyInput
	}
	if len(first) != len(last) {
		return posterior.DrawLengthMismatchError{Len: len(last), Want: len(first)}
	}
	return nil
}
