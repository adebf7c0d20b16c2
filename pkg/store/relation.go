package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/robinkct/notion-account-graph/pkg/expense"
	"github.com/robinkct/notion-account-graph/pkg/notion"
)

// BucketSource fetches all pages of a bucket database.
type BucketSource interface {
	QueryDatabaseAll(databaseID string, filter, sorts json.RawMessage, pageSize int) ([]notion.Page, error)
}

// BuildRelationTable fetches the event and month databases and maps every
// bucket page ID to its display title. Event titles embed the event's date
// range: "Title【2025_0405-09】".
func BuildRelationTable(src BucketSource, mapping *expense.Mapping, eventDB, monthDB string) (map[string]string, error) {
	table := make(map[string]string)

	eventPages, err := src.QueryDatabaseAll(eventDB, nil, nil, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event database: %w", err)
	}
	for _, page := range eventPages {
		title := pageString(page, mapping.EventDB.Title)
		if title == "" {
			continue
		}
		if dateLabel := pageString(page, mapping.EventDB.Date); dateLabel != "" {
			title = fmt.Sprintf("%s【%s】", title, dateLabel)
		}
		table[page.ID] = title
	}

	monthPages, err := src.QueryDatabaseAll(monthDB, nil, nil, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch month database: %w", err)
	}
	for _, page := range monthPages {
		if title := pageString(page, mapping.MonthDB.Title); title != "" {
			table[page.ID] = title
		}
	}

	return table, nil
}

func pageString(page notion.Page, property string) string {
	prop, ok := page.Properties[property]
	if !ok {
		return ""
	}
	return notion.ExtractString(prop)
}

// LoadRelationTable reads a persisted relation table.
func LoadRelationTable(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read relation table: %w", err)
	}

	var table map[string]string
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse relation table: %w", err)
	}
	return table, nil
}

// SaveRelationTable persists a relation table.
func SaveRelationTable(path string, table map[string]string) error {
	return writeJSONAtomic(path, table)
}
