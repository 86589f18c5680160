// Package storage persists pipeline artifacts, fetched occurrence sets and
// computed change reports, as JSON files under a data directory.
//
// Writes are atomic (temp file then rename) so a crash mid-save never leaves
// a truncated artifact behind.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/occutrend/occutrend/internal/models"
	"github.com/occutrend/occutrend/internal/trend"
)

const (
	occurrencesFile = "occurrences.json"
	reportsDir      = "reports"

	filePermissions os.FileMode = 0o600
	dirPermissions  os.FileMode = 0o700
)

// Storage reads and writes pipeline artifacts under a single data directory.
type Storage struct {
	dataDir string
}

// New creates a Storage rooted at dataDir. The directory is created lazily
// on first save.
func New(dataDir string) *Storage {
	if dataDir == "" {
		dataDir = filepath.Join(os.TempDir(), "occutrend")
	}
	return &Storage{dataDir: dataDir}
}

// OccurrenceSet is one fetched batch of occurrence records.
type OccurrenceSet struct {
	ID        string              `json:"id"`
	Query     string              `json:"query"`
	FetchedAt time.Time           `json:"fetched_at"`
	Records   []models.Occurrence `json:"records"`
}

// StoredReport wraps a change report with the species it was computed for.
type StoredReport struct {
	Species string        `json:"species"`
	Report  *trend.Report `json:"report"`
	SavedAt time.Time     `json:"saved_at"`
}

// SaveOccurrences persists the occurrence set, replacing any previous one.
func (s *Storage) SaveOccurrences(set *OccurrenceSet) error {
	if set.ID == "" {
		return fmt.Errorf("occurrence set ID must not be empty")
	}
	if set.Query == "" {
		return fmt.Errorf("occurrence set query must not be empty")
	}
	return s.writeJSON(filepath.Join(s.dataDir, occurrencesFile), set)
}

// LoadOccurrences restores the persisted occurrence set.
func (s *Storage) LoadOccurrences() (*OccurrenceSet, error) {
	path := filepath.Join(s.dataDir, occurrencesFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no occurrence data at %s (run fetch first): %w", path, err)
		}
		return nil, fmt.Errorf("failed to read occurrence data: %w", err)
	}

	var set OccurrenceSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to unmarshal occurrence data: %w", err)
	}
	return &set, nil
}

// SaveReport persists a computed report under reports/<id>.json and returns
// the written path.
func (s *Storage) SaveReport(species string, report *trend.Report) (string, error) {
	if report == nil || report.ID == "" {
		return "", fmt.Errorf("report must have an ID")
	}

	path := filepath.Join(s.dataDir, reportsDir, report.ID+".json")
	stored := StoredReport{
		Species: species,
		Report:  report,
		SavedAt: time.Now(),
	}
	if err := s.writeJSON(path, stored); err != nil {
		return "", err
	}
	return path, nil
}

// LoadReport restores a stored report by ID.
func (s *Storage) LoadReport(id string) (*StoredReport, error) {
	data, err := os.ReadFile(filepath.Join(s.dataDir, reportsDir, id+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", id, err)
	}

	var stored StoredReport
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report %s: %w", id, err)
	}
	return &stored, nil
}

// ListReports returns the IDs of all stored reports.
func (s *Storage) ListReports() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dataDir, reportsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

// writeJSON marshals v and writes it atomically: temp file in the target
// directory, then rename.
func (s *Storage) writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, filePermissions); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
