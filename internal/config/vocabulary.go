package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultCategories is the compiled-in vocabulary the analysis prompt offers
// the model when no vocabulary file is configured.
var defaultCategories = []string{
	"finance",
	"legal",
	"technical",
	"hr",
	"marketing",
	"operations",
	"research",
	"correspondence",
	"other",
}

type vocabularyFile struct {
	Categories []string `yaml:"categories"`
}

// LoadVocabulary reads the category vocabulary from a YAML file, falling back
// to the compiled-in set when no path is configured. A configured but broken
// file is an error, not a silent fallback.
func LoadVocabulary(path string) ([]string, error) {
	if path == "" {
		return defaultCategories, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary file %q: %w", path, err)
	}

	var file vocabularyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse vocabulary file %q: %w", path, err)
	}

	categories := make([]string, 0, len(file.Categories))
	seen := map[string]bool{}
	for _, category := range file.Categories {
		category = strings.TrimSpace(strings.ToLower(category))
		if category == "" || seen[category] {
			continue
		}
		seen[category] = true
		categories = append(categories, category)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("vocabulary file %q lists no categories", path)
	}
	return categories, nil
}
