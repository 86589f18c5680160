package trend

import (
	"errors"
	"math"
	"testing"

	"github.com/occutrend/occutrend/internal/posterior"
)

const floatTolerance = 1e-9

func TestDifferenceDraws(t *testing.T) {
	first := []float64{0.1, 0.2, 0.3}
	last := []float64{0.4, 0.1, 0.3}

	got, err := DifferenceDraws(first, last)
	if err != nil {
		t.Fatalf("DifferenceDraws failed: %v", err)
	}

	want := []float64{0.3, -0.1, 0.0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > floatTolerance {
			t.Errorf("draw %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDifferenceDraws_Antisymmetry(t *testing.T) {
	a := []float64{0.12, 0.5, 0.88, 0.01}
	b := []float64{0.3, 0.45, 0.9, 0.2}

	forward, err := DifferenceDraws(a, b)
	if err != nil {
		t.Fatalf("forward failed: %v", err)
	}
	backward, err := DifferenceDraws(b, a)
	if err != nil {
		t.Fatalf("backward failed: %v", err)
	}

	for i := range forward {
		if math.Abs(forward[i]+backward[i]) > floatTolerance {
			t.Errorf("draw %d: difference(a,b)=%v is not the negation of difference(b,a)=%v",
				i, forward[i], backward[i])
		}
	}
}

func TestDifferenceDraws_IdenticalVectors(t *testing.T) {
	a := []float64{0.42}

	got, err := DifferenceDraws(a, a)
	if err != nil {
		t.Fatalf("DifferenceDraws failed: %v", err)
	}
	if got[0] != 0 {
		t.Errorf("difference(a, a) = %v, want 0", got[0])
	}
}

func TestPercentDiffDraws(t *testing.T) {
	first := []float64{0.1, 0.5}
	last := []float64{0.4, 0.25}

	got, err := PercentDiffDraws(first, last)
	if err != nil {
		t.Fatalf("PercentDiffDraws failed: %v", err)
	}

	want := []float64{300, -50}
	for i := range want {
		if math.Abs(got[i]-want[i]) > floatTolerance {
			t.Errorf("draw %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGrowthRateDraws(t *testing.T) {
	// 0.1 -> 0.4 over 2 years: (4)^(1/2) - 1 = 1.0 (100% per year).
	got, err := GrowthRateDraws([]float64{0.1}, []float64{0.4}, 2)
	if err != nil {
		t.Fatalf("GrowthRateDraws failed: %v", err)
	}
	if math.Abs(got[0]-1.0) > floatTolerance {
		t.Errorf("growth rate = %v, want 1.0", got[0])
	}

	// Declining occupancy yields a negative rate.
	got, err = GrowthRateDraws([]float64{0.4}, []float64{0.1}, 2)
	if err != nil {
		t.Fatalf("GrowthRateDraws failed: %v", err)
	}
	if math.Abs(got[0]-(-0.5)) > floatTolerance {
		t.Errorf("growth rate = %v, want -0.5", got[0])
	}

	if _, err := GrowthRateDraws([]float64{0.1}, []float64{0.4}, 0); err == nil {
		t.Error("expected error for zero span")
	}
}

func TestRatioMetrics_SignAgreement(t *testing.T) {
	first := []float64{0.1, 0.5, 0.3, 0.7}
	last := []float64{0.3, 0.2, 0.3, 0.9}

	pct, err := PercentDiffDraws(first, last)
	if err != nil {
		t.Fatalf("PercentDiffDraws failed: %v", err)
	}
	gr, err := GrowthRateDraws(first, last, 10)
	if err != nil {
		t.Fatalf("GrowthRateDraws failed: %v", err)
	}

	for i := range first {
		switch {
		case last[i] > first[i]:
			if pct[i] <= 0 || gr[i] <= 0 {
				t.Errorf("draw %d increased but percentdif=%v growthrate=%v", i, pct[i], gr[i])
			}
		case last[i] < first[i]:
			if pct[i] >= 0 || gr[i] >= 0 {
				t.Errorf("draw %d decreased but percentdif=%v growthrate=%v", i, pct[i], gr[i])
			}
		default:
			if pct[i] != 0 || gr[i] != 0 {
				t.Errorf("draw %d unchanged but percentdif=%v growthrate=%v", i, pct[i], gr[i])
			}
		}
	}
}

func TestRatioMetrics_ZeroDenominatorPolicy(t *testing.T) {
	// Draw 1 has zero first-year occupancy: both ratio metrics must fail
	// loudly for the whole batch, pointing at the same draw index.
	first := []float64{0.2, 0.0, 0.4}
	last := []float64{0.3, 0.1, 0.5}

	_, pctErr := PercentDiffDraws(first, last)
	_, grErr := GrowthRateDraws(first, last, 5)

	var pctZero, grZero DivisionByZeroError
	if !errors.As(pctErr, &pctZero) {
		t.Fatalf("percentdif: expected DivisionByZeroError, got %T: %v", pctErr, pctErr)
	}
	if !errors.As(grErr, &grZero) {
		t.Fatalf("growthrate: expected DivisionByZeroError, got %T: %v", grErr, grErr)
	}

	if pctZero.Draw != 1 || grZero.Draw != 1 {
		t.Errorf("faulting draw = (%d, %d), want (1, 1)", pctZero.Draw, grZero.Draw)
	}
	if pctZero.Kind != PercentDiff || grZero.Kind != GrowthRate {
		t.Errorf("faulting kinds = (%s, %s)", pctZero.Kind, grZero.Kind)
	}
}

func TestMetrics_PairValidation(t *testing.T) {
	if _, err := DifferenceDraws(nil, nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("empty input: got %v, want ErrEmptyInput", err)
	}

	_, err := DifferenceDraws([]float64{0.1, 0.2}, []float64{0.3})
	var mismatch posterior.DrawLengthMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected DrawLengthMismatchError, got %T: %v", err, err)
	}
	if mismatch.Len != 1 || mismatch.Want != 2 {
		t.Errorf("mismatch lengths = (%d, %d), want (1, 2)", mismatch.Len, mismatch.Want)
	}
}

func TestLinearGrowthDraws(t *testing.T) {
	// Occupancy rising 0.1 per year around a mean of 0.3: slope/mean = 1/3.
	years := []int{2000, 2001, 2002, 2003, 2004}
	drawsByYear := [][]float64{{0.1}, {0.2}, {0.3}, {0.4}, {0.5}}

	got, err := LinearGrowthDraws(years, drawsByYear)
	if err != nil {
		t.Fatalf("LinearGrowthDraws failed: %v", err)
	}
	if math.Abs(got[0]-1.0/3.0) > floatTolerance {
		t.Errorf("linear growth = %v, want %v", got[0], 1.0/3.0)
	}
}

func TestLinearGrowthDraws_FlatSeries(t *testing.T) {
	years := []int{2000, 2001, 2002}
	drawsByYear := [][]float64{{0.4, 0.2}, {0.4, 0.2}, {0.4, 0.2}}

	got, err := LinearGrowthDraws(years, drawsByYear)
	if err != nil {
		t.Fatalf("LinearGrowthDraws failed: %v", err)
	}
	for i, v := range got {
		if math.Abs(v) > floatTolerance {
			t.Errorf("draw %d: flat series growth = %v, want 0", i, v)
		}
	}
}

func TestLinearGrowthDraws_Invalid(t *testing.T) {
	if _, err := LinearGrowthDraws([]int{2000}, [][]float64{{0.1}}); err == nil {
		t.Error("expected error for single-year window")
	}

	if _, err := LinearGrowthDraws([]int{2000, 2001}, [][]float64{{0.1}}); err == nil {
		t.Error("expected error for years/draws length mismatch")
	}

	_, err := LinearGrowthDraws([]int{2000, 2001}, [][]float64{{0.1, 0.2}, {0.3}})
	var mismatch posterior.DrawLengthMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected DrawLengthMismatchError, got %T: %v", err, err)
	}

	// All-zero draw makes the mean-occupancy normalization undefined.
	_, err = LinearGrowthDraws([]int{2000, 2001}, [][]float64{{0.0}, {0.0}})
	var zero DivisionByZeroError
	if !errors.As(err, &zero) {
		t.Fatalf("expected DivisionByZeroError, got %T: %v", err, err)
	}
	if zero.Kind != LinearGrowth {
		t.Errorf("faulting kind = %s, want %s", zero.Kind, LinearGrowth)
	}
}

func TestParseMetricKind(t *testing.T) {
	for _, kind := range AllMetricKinds() {
		got, err := ParseMetricKind(string(kind))
		if err != nil || got != kind {
			t.Errorf("ParseMetricKind(%q) = (%v, %v)", kind, got, err)
		}
	}

	if _, err := ParseMetricKind("bogus"); err == nil {
		t.Error("expected error for unknown metric kind")
	}
}
