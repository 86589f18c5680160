// Package survey cleans raw occurrence records and assembles the per-visit
// detection histories the occupancy model consumes.
//
// A visit is one site-and-date pair; every species recorded there on that date is
// grouped into a single visit whose list length proxies recording effort
// (target-group approach). The focal species' detection flag per visit is
// what the model ultimately fits.
package survey

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/occutrend/occutrend/internal/logger"
	"github.com/occutrend/occutrend/internal/models"
)

// CleanStats summarizes one cleaning pass.
type CleanStats struct {
	Input      int `json:"input"`
	Invalid    int `json:"invalid"`
	Duplicates int `json:"duplicates"`
	Kept       int `json:"kept"`
}

// Clean drops records that fail validation and removes exact duplicates
// (same species, site, and date). Records are never repaired; a record with
// a missing date or grid reference is dropped, not guessed.
func Clean(occurrences []models.Occurrence) ([]models.Occurrence, CleanStats) {
	stats := CleanStats{Input: len(occurrences)}

	seen := make(map[string]bool, len(occurrences))
	kept := make([]models.Occurrence, 0, len(occurrences))
	for i := range occurrences {
		occ := occurrences[i]
		if err := occ.Validate(); err != nil {
			stats.Invalid++
			logger.Debug("Dropping invalid occurrence %q: %v", occ.ID, err)
			continue
		}

		key := dedupeKey(occ)
		if seen[key] {
			stats.Duplicates++
			continue
		}
		seen[key] = true
		kept = append(kept, occ)
	}

	stats.Kept = len(kept)
	return kept, stats
}

// dedupeKey identifies a record up to resubmission: two records of the same
// species at the same site on the same day are one observation.
func dedupeKey(occ models.Occurrence) string {
	return strings.ToLower(occ.Species) + "|" + strings.ToUpper(occ.GridRef) + "|" + occ.Date.Format("2006-01-02")
}

// BuildVisits groups cleaned occurrences into visits, restricted to the year
// window [firstYear, lastYear]. Each visit records the distinct species list
// (sorted), its length, and whether the focal species was detected. Visits
// are returned sorted by date then site for deterministic output.
func BuildVisits(occurrences []models.Occurrence, focal string, firstYear, lastYear int) ([]models.Visit, error) {
	if focal == "" {
		return nil, fmt.Errorf("focal species must not be empty")
	}
	if firstYear > lastYear {
		return nil, fmt.Errorf("invalid year window %d..%d", firstYear, lastYear)
	}

	type visitKey struct {
		site string
		date string
	}
	grouped := make(map[visitKey]map[string]bool)
	dates := make(map[visitKey]time.Time)
	skipped := 0

	for i := range occurrences {
		occ := occurrences[i]
		year := occ.Year()
		if year < firstYear || year > lastYear {
			skipped++
			continue
		}

		key := visitKey{site: strings.ToUpper(occ.GridRef), date: occ.Date.Format("2006-01-02")}
		if grouped[key] == nil {
			grouped[key] = make(map[string]bool)
			dates[key] = occ.Date
		}
		grouped[key][occ.Species] = true
	}

	if skipped > 0 {
		logger.Debug("BuildVisits: %d occurrence(s) outside %d..%d skipped", skipped, firstYear, lastYear)
	}

	visits := make([]models.Visit, 0, len(grouped))
	for key, speciesSet := range grouped {
		species := make([]string, 0, len(speciesSet))
		detected := false
		for name := range speciesSet {
			species = append(species, name)
			if strings.EqualFold(name, focal) {
				detected = true
			}
		}
		sort.Strings(species)

		visits = append(visits, models.Visit{
			SiteID:     key.site,
			Date:       dates[key],
			Species:    species,
			ListLength: len(species),
			Detected:   detected,
		})
	}

	sort.Slice(visits, func(i, j int) bool {
		if !visits[i].Date.Equal(visits[j].Date) {
			return visits[i].Date.Before(visits[j].Date)
		}
		return visits[i].SiteID < visits[j].SiteID
	})

	return visits, nil
}
