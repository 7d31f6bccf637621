package converter

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/providingshelter/ingest/internal/format"
)

// JSONConverter returns JSON resources verbatim
type JSONConverter struct{}

func NewJSONConverter() *JSONConverter { return &JSONConverter{} }

func (c *JSONConverter) Name() string { return "JSON" }

func (c *JSONConverter) CanHandle(rc Context) bool {
	return rc.Format == format.JSON || strings.Contains(strings.ToLower(rc.ContentType), "json")
}

func (c *JSONConverter) Convert(_ context.Context, rc Context) (*string, error) {
	return readVerbatim(rc.LocalPath)
}

// GeoJSONConverter returns GeoJSON resources verbatim
type GeoJSONConverter struct{}

func NewGeoJSONConverter() *GeoJSONConverter { return &GeoJSONConverter{} }

func (c *GeoJSONConverter) Name() string { return "GEOJSON" }

func (c *GeoJSONConverter) CanHandle(rc Context) bool {
	return rc.Format == format.GeoJSON
}

func (c *GeoJSONConverter) Convert(_ context.Context, rc Context) (*string, error) {
	return readVerbatim(rc.LocalPath)
}

func readVerbatim(path string) (*string, error) {
	b, err := os.ReadFile(path) //nolint:gosec,G304
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	s := strings.TrimPrefix(string(b), "\ufeff")
	return &s, nil
}
