package models

import (
	"errors"
	"time"
)

// Visit represents one recording visit: all species recorded at a single site
// on a single date. The list length is the number of distinct species on the
// visit and serves as the detectability covariate for the occupancy model
// (target-group approach: a long list with the focal species absent is strong
// evidence of non-detection).
type Visit struct {
	SiteID     string    `json:"site_id"`     // grid reference of the visited site
	Date       time.Time `json:"date"`        // visit date
	Species    []string  `json:"species"`     // distinct species recorded, sorted
	ListLength int       `json:"list_length"` // len(Species)
	Detected   bool      `json:"detected"`    // focal species recorded on this visit
}

// Validate checks that all visit fields are valid.
func (v *Visit) Validate() error {
	if v.SiteID == "" {
		return errors.New("visit site ID must not be empty")
	}
	if v.Date.IsZero() {
		return errors.New("visit date must not be zero")
	}
	if len(v.Species) == 0 {
		return errors.New("visit must record at least one species")
	}
	if v.ListLength != len(v.Species) {
		return errors.New("list length must equal the number of recorded species")
	}
	return nil
}

// Year returns the calendar year of the visit.
func (v *Visit) Year() int {
	return v.Date.Year()
}
