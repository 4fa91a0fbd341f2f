// Package catalogfile reads food catalogs from YAML or JSON files.
package catalogfile

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mealtrack/backend/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed default_foods.yaml
var defaultFoods []byte

// Default returns the built-in catalog
func Default() ([]domain.CatalogEntry, error) {
	entries, err := decodeYAML(defaultFoods)
	if err != nil {
		return nil, fmt.Errorf("failed to parse default catalog: %w", err)
	}
	return entries, nil
}

// Load reads a catalog from path. An empty path returns the built-in catalog.
// Files ending in .yaml or .yml are parsed as YAML, .json as a JSON array.
func Load(path string) ([]domain.CatalogEntry, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var entries []domain.CatalogEntry
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		entries, err = decodeYAML(data)
	case ".json":
		err = json.Unmarshal(data, &entries)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog %s has no foods", path)
	}
	return entries, nil
}

func decodeYAML(data []byte) ([]domain.CatalogEntry, error) {
	var entries []domain.CatalogEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
