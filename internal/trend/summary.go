package trend

import (
	"fmt"
	"math"
	"sort"
)

// Default credible interval percentiles (a 95% equal-tailed interval).
const (
	DefaultLowerPercentile = 2.5
	DefaultUpperPercentile = 97.5
)

// Summary reduces a posterior sample of a change statistic to point estimates
// and an equal-tailed credible interval. Immutable once computed.
type Summary struct {
	Mean            float64 `json:"mean"`
	Median          float64 `json:"median"`
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	LowerPercentile float64 `json:"lower_percentile"`
	UpperPercentile float64 `json:"upper_percentile"`
	N               int     `json:"n"`
}

// Summarize reduces a sample to mean, median, and credible bounds at the
// given percentiles. Percentile interpolation follows the R type-7
// convention (h = (n-1)p, linear interpolation between adjacent order
// statistics), matching R's default quantile(). Fails with ErrEmptyInput
// when the sample is empty.
func Summarize(values []float64, lowerPct, upperPct float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, ErrEmptyInput
	}
	if lowerPct < 0 || upperPct > 100 || lowerPct >= upperPct {
		return Summary{}, fmt.Errorf("invalid percentile bounds %.2f..%.2f", lowerPct, upperPct)
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range values {
		sum += v
	}

	return Summary{
		Mean:            sum / float64(len(values)),
		Median:          quantile(sorted, 50),
		Lower:           quantile(sorted, lowerPct),
		Upper:           quantile(sorted, upperPct),
		LowerPercentile: lowerPct,
		UpperPercentile: upperPct,
		N:               len(values),
	}, nil
}

// quantile computes the type-7 percentile of a sorted sample:
// h = (n-1) x p/100, interpolating linearly between sorted[floor(h)] and
// sorted[floor(h)+1].
func quantile(sorted []float64, pct float64) float64 {
	h := float64(len(sorted)-1) * pct / 100
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
