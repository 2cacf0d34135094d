package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/wadjakorntonsri/studio-cms/pkg/core/domain"
	"gopkg.in/yaml.v3"
)

var collectionName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

type catalogFile struct {
	Collections []domain.CollectionDefinition `yaml:"collections"`
}

// LoadCatalog returns the collection catalogue. An empty path yields the defaults.
func LoadCatalog(path string) (domain.Catalog, error) {
	if path == "" {
		return domain.DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read collections file: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalogue.
func ParseCatalog(data []byte) (domain.Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse collections file: %w", err)
	}
	if len(file.Collections) == 0 {
		return nil, fmt.Errorf("collections file defines no collections")
	}

	seen := make(map[string]bool, len(file.Collections))
	for i, def := range file.Collections {
		if !collectionName.MatchString(def.Name) {
			return nil, fmt.Errorf("collection %d: invalid name %q", i, def.Name)
		}
		if seen[def.Name] {
			return nil, fmt.Errorf("collection %q defined twice", def.Name)
		}
		seen[def.Name] = true

		for _, kind := range def.Media {
			if kind != domain.MediaImage && kind != domain.MediaVideo {
				return nil, fmt.Errorf("collection %q: unknown media kind %q", def.Name, kind)
			}
		}
		if def.Label == "" {
			file.Collections[i].Label = def.Name
		}
	}
	return domain.Catalog(file.Collections), nil
}
