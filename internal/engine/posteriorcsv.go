package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/occutrend/occutrend/internal/posterior"
)

// ParsePosteriorCSV reads the engine's posterior output: one row per modeled
// year of the form
//
//	year,rhat,draw1,draw2,...,drawN
//
// with an optional "year,rhat,..." header. Draw ordering is significant;
// column i holds draw i of the joint posterior for every year, and every
// row must carry the same number of draws.
func ParsePosteriorCSV(r io.Reader) (*posterior.Store, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // the store validates draw counts with context

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read posterior CSV: %w", err)
	}

	draws := make(map[int][]float64)
	rhat := make(map[int]float64)
	for line, rec := range records {
		if line == 0 && len(rec) > 0 && rec[0] == "year" {
			continue
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("posterior CSV line %d: %d fields, need year, rhat, and at least one draw", line+1, len(rec))
		}

		year, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("posterior CSV line %d: invalid year %q", line+1, rec[0])
		}
		if _, exists := draws[year]; exists {
			return nil, fmt.Errorf("posterior CSV line %d: duplicate year %d", line+1, year)
		}

		r, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("posterior CSV line %d: invalid rhat %q", line+1, rec[1])
		}

		vec := make([]float64, len(rec)-2)
		for i, field := range rec[2:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("posterior CSV line %d: invalid draw %q", line+1, field)
			}
			vec[i] = v
		}

		draws[year] = vec
		rhat[year] = r
	}

	store, err := posterior.NewStore(draws, rhat)
	if err != nil {
		return nil, fmt.Errorf("posterior CSV is inconsistent: %w", err)
	}
	return store, nil
}

// LoadPosteriorFile parses a posterior CSV from disk.
func LoadPosteriorFile(path string) (*posterior.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open posterior file: %w", err)
	}
	defer f.Close()

	store, err := ParsePosteriorCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return store, nil
}
