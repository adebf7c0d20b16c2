package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/robinkct/notion-account-graph/pkg/aggregate"
	"github.com/robinkct/notion-account-graph/pkg/notion"
)

// ColorConfig holds the select/multi_select options of the account database,
// keyed by property name. The persisted layout is
// {"<property>": {"type": "...", "options": [{"name","color","id"}]}}.
type ColorConfig map[string]notion.PropertyOptions

// OptionsSource fetches select options from a database schema.
type OptionsSource interface {
	GetDatabaseSelectOptions(databaseID string) (map[string]notion.PropertyOptions, error)
}

// FetchColorConfig reads the select options of the account database.
func FetchColorConfig(src OptionsSource, databaseID string) (ColorConfig, error) {
	options, err := src.GetDatabaseSelectOptions(databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch select options: %w", err)
	}
	return ColorConfig(options), nil
}

// LoadColorConfig reads a persisted color config.
func LoadColorConfig(path string) (ColorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read color config: %w", err)
	}

	var config ColorConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse color config: %w", err)
	}
	return config, nil
}

// SaveColorConfig persists a color config.
func SaveColorConfig(path string, config ColorConfig) error {
	return writeJSONAtomic(path, config)
}

// Vocabulary builds the vocabulary of one select property: its option names
// with their Notion color names.
func (c ColorConfig) Vocabulary(property string) *aggregate.Vocabulary {
	colors := make(map[string]string)
	for _, opt := range c[property].Options {
		colors[opt.Name] = opt.Color
	}
	return aggregate.NewVocabulary(colors)
}
