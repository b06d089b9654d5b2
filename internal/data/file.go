package data

import (
	"fmt"
	"os"
	"path/filepath"

	"dca-backtest/internal/model"

	"github.com/goccy/go-json"
)

// SeriesFile is a series saved to disk by `cli fetch`.
type SeriesFile struct {
	ID           string              `json:"id"`
	Kind         model.Kind          `json:"kind"`
	Observations []model.Observation `json:"observations"`
}

// LoadSeriesFile reads a series file and checks its kind.
func LoadSeriesFile(path string) (*SeriesFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read series file: %w", err)
	}
	var f SeriesFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse series file: %w", err)
	}
	if f.Kind == "" {
		f.Kind = model.KindPrice
	}
	if !f.Kind.Valid() {
		return nil, &model.InvalidInputError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", f.Kind)}
	}
	return &f, nil
}

// SaveSeriesFile writes a series file, creating its directory.
func SaveSeriesFile(f *SeriesFile, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	raw, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal series: %w", err)
	}

	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write series file: %w", err)
	}
	return nil
}
