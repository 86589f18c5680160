package reporter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/occutrend/occutrend/internal/trend"
	"gopkg.in/yaml.v3"
)

// Format selects a machine-readable export encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat converts a string to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON, FormatYAML:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown output format %q (valid: text, json, yaml)", s)
}

// Export is the serialized report envelope.
type Export struct {
	Species string        `json:"species" yaml:"species"`
	Report  *trend.Report `json:"report" yaml:"report"`
}

// Write renders the report to w in the chosen format.
func Write(w io.Writer, format Format, species string, report *trend.Report) error {
	switch format {
	case FormatText:
		return NewTextReporter(w).Generate(species, report)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(Export{Species: species, Report: report})
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(Export{Species: species, Report: report})
	}
	return fmt.Errorf("unknown output format %q", format)
}
