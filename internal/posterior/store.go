// Package posterior holds the posterior occupancy draws produced by the
// external model-fitting engine.
//
// A Store maps each modeled year to an ordered vector of posterior draws of
// occupancy probability. Draws are paired across years by index: draw i for
// every year comes from the same joint posterior sample, so change statistics
// computed per draw index propagate the full posterior uncertainty. The store
// is immutable after construction and never interpolates missing years.
package posterior

import (
	"fmt"
	"math"
	"sort"
)

// ConvergenceThreshold is the Gelman-Rubin Rhat value at or below which a
// year's occupancy estimate is considered converged.
const ConvergenceThreshold = 1.1

// MissingYearError reports a request for a year the model did not produce
// draws for (outside the fitted range, or absent from the engine output).
type MissingYearError struct {
	Year int
}

func (e MissingYearError) Error() string {
	return fmt.Sprintf("year %d is not present in the posterior store", e.Year)
}

// DrawLengthMismatchError reports paired draw vectors of differing lengths,
// indicating corrupted or inconsistent engine output. Year is zero when the
// mismatch was detected between anonymous vectors rather than stored years.
type DrawLengthMismatchError struct {
	Year int
	Len  int
	Want int
}

func (e DrawLengthMismatchError) Error() string {
	if e.Year != 0 {
		return fmt.Sprintf("year %d has %d draws, want %d", e.Year, e.Len, e.Want)
	}
	return fmt.Sprintf("paired draw vectors have mismatched lengths: %d and %d", e.Len, e.Want)
}

// Store provides read-only access to per-year posterior occupancy draws and
// per-year convergence diagnostics.
type Store struct {
	draws map[int][]float64
	rhat  map[int]float64
	years []int // sorted ascending
	n     int   // posterior sample size, identical for every year
}

// NewStore builds a Store from per-year draw vectors and per-year Rhat values.
// Every year must carry the same number of draws, and every draw must be a
// probability in [0,1]. Input maps are copied; the caller may reuse them.
func NewStore(draws map[int][]float64, rhat map[int]float64) (*Store, error) {
	if len(draws) == 0 {
		return nil, fmt.Errorf("posterior store requires at least one modeled year")
	}

	years := make([]int, 0, len(draws))
	for year := range draws {
		years = append(years, year)
	}
	sort.Ints(years)

	n := len(draws[years[0]])
	if n == 0 {
		return nil, fmt.Errorf("year %d has no posterior draws", years[0])
	}

	copied := make(map[int][]float64, len(draws))
	for _, year := range years {
		d := draws[year]
		if len(d) != n {
			return nil, DrawLengthMismatchError{Year: year, Len: len(d), Want: n}
		}
		for i, v := range d {
			if math.IsNaN(v) || v < 0.0 || v > 1.0 {
				return nil, fmt.Errorf("year %d draw %d: occupancy %v is not a probability in [0,1]", year, i, v)
			}
		}
		cp := make([]float64, n)
		copy(cp, d)
		copied[year] = cp
	}

	copiedRhat := make(map[int]float64, len(rhat))
	for year, r := range rhat {
		copiedRhat[year] = r
	}

	return &Store{
		draws: copied,
		rhat:  copiedRhat,
		years: years,
		n:     n,
	}, nil
}

// YearSamples returns the ordered posterior draws for the given year.
// The returned slice is owned by the store and must not be modified.
func (s *Store) YearSamples(year int) ([]float64, error) {
	d, ok := s.draws[year]
	if !ok {
		return nil, MissingYearError{Year: year}
	}
	return d, nil
}

// HasYear reports whether the year was modeled.
func (s *Store) HasYear(year int) bool {
	_, ok := s.draws[year]
	return ok
}

// Years returns all modeled years in ascending order.
func (s *Store) Years() []int {
	out := make([]int, len(s.years))
	copy(out, s.years)
	return out
}

// YearRange returns the first and last modeled years.
func (s *Store) YearRange() (first, last int) {
	return s.years[0], s.years[len(s.years)-1]
}

// SampleSize returns the posterior sample size shared by every year.
func (s *Store) SampleSize() int {
	return s.n
}

// Rhat returns the Gelman-Rubin statistic recorded for the year, if any.
func (s *Store) Rhat(year int) (float64, bool) {
	r, ok := s.rhat[year]
	return r, ok
}

// IsConverged reports whether the year's Rhat is at or below the convergence
// threshold. Years without a recorded Rhat are treated as unconverged.
func (s *Store) IsConverged(year int) bool {
	r, ok := s.rhat[year]
	return ok && r <= ConvergenceThreshold
}
