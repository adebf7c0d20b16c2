// Package store persists the record snapshots, the relation table and the
// vocabulary color config as JSON files under the data directory.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/robinkct/notion-account-graph/pkg/expense"
)

// Snapshots manages the full record history and the affected-buckets subset.
// The full snapshot is append-only across runs; the affected snapshot is
// rewritten whole on every sync.
type Snapshots struct {
	fullPath     string
	affectedPath string
}

// NewSnapshots creates a Snapshots store over the given file paths.
func NewSnapshots(fullPath, affectedPath string) *Snapshots {
	return &Snapshots{
		fullPath:     fullPath,
		affectedPath: affectedPath,
	}
}

// LoadFull reads the full snapshot. A missing file yields an empty history.
func (s *Snapshots) LoadFull() ([]expense.Record, error) {
	data, err := os.ReadFile(s.fullPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var records []expense.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return records, nil
}

// KnownIDs returns the set of page IDs already present in the full snapshot.
func (s *Snapshots) KnownIDs() (map[string]struct{}, error) {
	records, err := s.LoadFull()
	if err != nil {
		return nil, err
	}

	ids := make(map[string]struct{}, len(records))
	for _, r := range records {
		ids[r.PageID] = struct{}{}
	}
	return ids, nil
}

// Append adds new records to the end of the full snapshot. Existing entries
// are never rewritten.
func (s *Snapshots) Append(newRecords []expense.Record) error {
	if len(newRecords) == 0 {
		return nil
	}

	records, err := s.LoadFull()
	if err != nil {
		return err
	}
	records = append(records, newRecords...)

	return writeJSONAtomic(s.fullPath, records)
}

// WriteAffected replaces the affected snapshot with the given records.
func (s *Snapshots) WriteAffected(records []expense.Record) error {
	if records == nil {
		records = []expense.Record{}
	}
	return writeJSONAtomic(s.affectedPath, records)
}

// LoadAffected reads the affected snapshot. A missing file yields nil.
func (s *Snapshots) LoadAffected() ([]expense.Record, error) {
	data, err := os.ReadFile(s.affectedPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read affected snapshot: %w", err)
	}

	var records []expense.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse affected snapshot: %w", err)
	}
	return records, nil
}

// writeJSONAtomic writes v as indented JSON via a temp file and rename, so a
// crash mid-write never truncates the previous version.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
