package survey

import (
	"testing"
	"time"

	"github.com/occutrend/occutrend/internal/models"
)

func occ(id, species, gridRef string, date time.Time) models.Occurrence {
	return models.Occurrence{
		ID:      id,
		Species: species,
		GridRef: gridRef,
		Date:    date,
		Basis:   "HumanObservation",
		Source:  "test",
	}
}

func TestClean(t *testing.T) {
	date := time.Date(2015, 7, 3, 0, 0, 0, 0, time.UTC)

	input := []models.Occurrence{
		occ("a", "Bombus distinguendus", "NJ1234", date),
		occ("b", "Bombus distinguendus", "NJ1234", date),  // duplicate (different ID)
		occ("c", "Bombus pascuorum", "NJ1234", date),      // same visit, other species
		{ID: "d", Species: "Bombus lucorum", Date: date},  // missing grid ref
		{ID: "", Species: "Bombus lucorum", GridRef: "X"}, // missing ID and date
	}

	kept, stats := Clean(input)

	if stats.Input != 5 || stats.Invalid != 2 || stats.Duplicates != 1 || stats.Kept != 2 {
		t.Errorf("stats = %+v, want {Input:5 Invalid:2 Duplicates:1 Kept:2}", stats)
	}
	if len(kept) != 2 {
		t.Fatalf("kept %d records, want 2", len(kept))
	}
}

func TestClean_DedupeIsCaseInsensitive(t *testing.T) {
	date := time.Date(2015, 7, 3, 0, 0, 0, 0, time.UTC)

	kept, stats := Clean([]models.Occurrence{
		occ("a", "Bombus distinguendus", "nj1234", date),
		occ("b", "bombus distinguendus", "NJ1234", date),
	})

	if len(kept) != 1 || stats.Duplicates != 1 {
		t.Errorf("kept %d (duplicates %d), want 1 kept and 1 duplicate", len(kept), stats.Duplicates)
	}
}

func TestBuildVisits(t *testing.T) {
	day1 := time.Date(2010, 6, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2011, 6, 2, 0, 0, 0, 0, time.UTC)

	occurrences := []models.Occurrence{
		occ("1", "Bombus distinguendus", "NJ1234", day1),
		occ("2", "Bombus pascuorum", "NJ1234", day1),
		occ("3", "Bombus lucorum", "NJ1234", day1),
		occ("4", "Bombus pascuorum", "NK5678", day2),
		occ("5", "Bombus pascuorum", "NJ1234", time.Date(1950, 6, 1, 0, 0, 0, 0, time.UTC)), // outside window
	}

	visits, err := BuildVisits(occurrences, "Bombus distinguendus", 2000, 2020)
	if err != nil {
		t.Fatalf("BuildVisits failed: %v", err)
	}

	if len(visits) != 2 {
		t.Fatalf("got %d visits, want 2", len(visits))
	}

	// Sorted by date: NJ1234 day1 first.
	v := visits[0]
	if v.SiteID != "NJ1234" || !v.Date.Equal(day1) {
		t.Errorf("first visit = %s %s, want NJ1234 %s", v.SiteID, v.Date, day1)
	}
	if v.ListLength != 3 || len(v.Species) != 3 {
		t.Errorf("first visit list length = %d, want 3", v.ListLength)
	}
	if !v.Detected {
		t.Error("focal species recorded on first visit but Detected is false")
	}

	v = visits[1]
	if v.ListLength != 1 || v.Detected {
		t.Errorf("second visit = {ListLength:%d Detected:%v}, want {1 false}", v.ListLength, v.Detected)
	}
}

func TestBuildVisits_FocalMatchIsCaseInsensitive(t *testing.T) {
	day := time.Date(2010, 6, 1, 0, 0, 0, 0, time.UTC)

	visits, err := BuildVisits([]models.Occurrence{
		occ("1", "BOMBUS DISTINGUENDUS", "NJ1234", day),
	}, "Bombus distinguendus", 2000, 2020)
	if err != nil {
		t.Fatalf("BuildVisits failed: %v", err)
	}
	if len(visits) != 1 || !visits[0].Detected {
		t.Error("case-insensitive focal match failed")
	}
}

func TestBuildVisits_Invalid(t *testing.T) {
	if _, err := BuildVisits(nil, "", 2000, 2020); err == nil {
		t.Error("expected error for empty focal species")
	}
	if _, err := BuildVisits(nil, "Bombus distinguendus", 2020, 2000); err == nil {
		t.Error("expected error for inverted year window")
	}
}

func TestBuildVisits_Empty(t *testing.T) {
	visits, err := BuildVisits(nil, "Bombus distinguendus", 2000, 2020)
	if err != nil {
		t.Fatalf("BuildVisits failed: %v", err)
	}
	if len(visits) != 0 {
		t.Errorf("got %d visits from no occurrences, want 0", len(visits))
	}
}
