// Package models defines the core domain entities for the occutrend pipeline.
// These models represent biological occurrence records downloaded from a
// recording scheme and the per-visit detection histories derived from them.
// All models include built-in validation to ensure data integrity throughout
// the pipeline.
//
// Terminology (matching recording-scheme conventions):
//   - Occurrence: one record of one species at one site on one date.
//   - Visit: a site-and-date pair; every species recorded by the same observer
//     trip is grouped into one visit. The visit's list length (number of
//     species recorded) is the target-group proxy for recording effort.
package models

import (
	"errors"
	"time"
)

// Occurrence represents a single occurrence record: one species observed at
// one site on one date. Records come from an occurrence web service and are
// validated before entering the pipeline; anything that fails validation is
// dropped by the cleaning pass, never silently repaired.
type Occurrence struct {
	ID        string    `json:"id"`         // record UUID from the web service
	Species   string    `json:"species"`    // scientific name
	GridRef   string    `json:"grid_ref"`   // site identifier (OSGB grid reference or equivalent)
	Date      time.Time `json:"date"`       // observation date
	Latitude  float64   `json:"latitude"`   // WGS84 decimal degrees
	Longitude float64   `json:"longitude"`  // WGS84 decimal degrees
	Basis     string    `json:"basis"`      // basis of record, e.g. "HumanObservation"
	Source    string    `json:"source"`     // data provider name
}

// Validate checks that all occurrence fields are valid.
func (o *Occurrence) Validate() error {
	if o.ID == "" {
		return errors.New("occurrence ID must not be empty")
	}
	if o.Species == "" {
		return errors.New("species must not be empty")
	}
	if o.GridRef == "" {
		return errors.New("grid reference must not be empty")
	}
	if o.Date.IsZero() {
		return errors.New("date must not be zero")
	}
	if o.Date.After(time.Now()) {
		return errors.New("date must not be in the future")
	}
	if o.Latitude < -90.0 || o.Latitude > 90.0 {
		return errors.New("latitude must be between -90 and 90")
	}
	if o.Longitude < -180.0 || o.Longitude > 180.0 {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

// Year returns the calendar year of the observation.
func (o *Occurrence) Year() int {
	return o.Date.Year()
}
