package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/robinkct/notion-account-graph/pkg/expense"
	"github.com/robinkct/notion-account-graph/pkg/notion"
)

func TestSnapshotsAppendIsAppendOnly(t *testing.T) {
	dir := t.TempDir()
	snapshots := NewSnapshots(filepath.Join(dir, "full.json"), filepath.Join(dir, "affected.json"))

	first := []expense.Record{
		{PageID: "p1", Item: "lunch", Amount: 120},
		{PageID: "p2", Item: "train", Amount: 40},
	}
	if err := snapshots.Append(first); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	second := []expense.Record{{PageID: "p3", Item: "coffee", Amount: 65}}
	if err := snapshots.Append(second); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	records, err := snapshots.LoadFull()
	if err != nil {
		t.Fatalf("LoadFull() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("LoadFull() returned %d records, want 3", len(records))
	}
	for i, want := range []string{"p1", "p2", "p3"} {
		if records[i].PageID != want {
			t.Errorf("records[%d].PageID = %q, want %q", i, records[i].PageID, want)
		}
	}
}

func TestSnapshotsAppendEmptyDoesNotCreateFile(t *testing.T) {
	dir := t.TempDir()
	fullPath := filepath.Join(dir, "full.json")
	snapshots := NewSnapshots(fullPath, filepath.Join(dir, "affected.json"))

	if err := snapshots.Append(nil); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := os.Stat(fullPath); !os.IsNotExist(err) {
		t.Errorf("Append(nil) created %s", fullPath)
	}
}

func TestSnapshotsLoadFullMissing(t *testing.T) {
	snapshots := NewSnapshots(filepath.Join(t.TempDir(), "full.json"), "")

	records, err := snapshots.LoadFull()
	if err != nil {
		t.Fatalf("LoadFull() error = %v", err)
	}
	if records != nil {
		t.Errorf("LoadFull() = %v, want nil for missing file", records)
	}
}

func TestSnapshotsKnownIDs(t *testing.T) {
	dir := t.TempDir()
	snapshots := NewSnapshots(filepath.Join(dir, "full.json"), filepath.Join(dir, "affected.json"))

	if err := snapshots.Append([]expense.Record{{PageID: "p1"}, {PageID: "p2"}}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	ids, err := snapshots.KnownIDs()
	if err != nil {
		t.Fatalf("KnownIDs() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("KnownIDs() returned %d IDs, want 2", len(ids))
	}
	if _, ok := ids["p1"]; !ok {
		t.Error("KnownIDs() missing p1")
	}
}

func TestSnapshotsWriteAffectedNil(t *testing.T) {
	dir := t.TempDir()
	affectedPath := filepath.Join(dir, "affected.json")
	snapshots := NewSnapshots(filepath.Join(dir, "full.json"), affectedPath)

	if err := snapshots.WriteAffected(nil); err != nil {
		t.Fatalf("WriteAffected() error = %v", err)
	}

	data, err := os.ReadFile(affectedPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("affected snapshot = %q, want empty JSON array", string(data))
	}
}

func TestWriteJSONAtomicLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	if err := writeJSONAtomic(path, map[string]int{"a": 1}); err != nil {
		t.Fatalf("writeJSONAtomic() error = %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("target file missing: %v", err)
	}
}

// fakeBucketSource returns canned pages per database ID.
type fakeBucketSource struct {
	pages map[string][]notion.Page
}

func (f *fakeBucketSource) QueryDatabaseAll(databaseID string, filter, sorts json.RawMessage, pageSize int) ([]notion.Page, error) {
	return f.pages[databaseID], nil
}

func mustPage(t *testing.T, raw string) notion.Page {
	t.Helper()
	var page notion.Page
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		t.Fatalf("failed to parse page fixture: %v", err)
	}
	return page
}

func TestBuildRelationTable(t *testing.T) {
	src := &fakeBucketSource{pages: map[string][]notion.Page{
		"event-db": {
			mustPage(t, `{
				"id": "ev1",
				"properties": {
					"Title": {"type": "title", "title": [{"type": "text", "text": {"content": "Okinawa Trip"}}]},
					"Date": {"type": "date", "date": {"start": "2025-04-05", "end": "2025-04-09"}}
				}
			}`),
			mustPage(t, `{
				"id": "ev2",
				"properties": {
					"Title": {"type": "title", "title": [{"type": "text", "text": {"content": "Housewarming"}}]},
					"Date": {"type": "date", "date": null}
				}
			}`),
		},
		"month-db": {
			mustPage(t, `{
				"id": "mo1",
				"properties": {
					"Month": {"type": "title", "title": [{"type": "text", "text": {"content": "2025, 04月"}}]}
				}
			}`),
		},
	}}

	table, err := BuildRelationTable(src, expense.DefaultMapping(), "event-db", "month-db")
	if err != nil {
		t.Fatalf("BuildRelationTable() error = %v", err)
	}

	want := map[string]string{
		"ev1": "Okinawa Trip【2025_0405-09】",
		"ev2": "Housewarming",
		"mo1": "2025, 04月",
	}
	if len(table) != len(want) {
		t.Fatalf("BuildRelationTable() returned %d entries, want %d", len(table), len(want))
	}
	for id, title := range want {
		if table[id] != title {
			t.Errorf("table[%q] = %q, want %q", id, table[id], title)
		}
	}
}

func TestRelationTableRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relation_table.json")
	table := map[string]string{"ev1": "Okinawa Trip【2025_0405-09】", "mo1": "2025, 04月"}

	if err := SaveRelationTable(path, table); err != nil {
		t.Fatalf("SaveRelationTable() error = %v", err)
	}
	loaded, err := LoadRelationTable(path)
	if err != nil {
		t.Fatalf("LoadRelationTable() error = %v", err)
	}
	if loaded["ev1"] != table["ev1"] || loaded["mo1"] != table["mo1"] {
		t.Errorf("LoadRelationTable() = %v, want %v", loaded, table)
	}
}

func TestColorConfigRoundTripAndVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "select_color.json")
	config := ColorConfig{
		"Category": notion.PropertyOptions{
			Type: "select",
			Options: []notion.SelectOption{
				{ID: "o1", Name: "Food", Color: "red"},
				{ID: "o2", Name: "Transport", Color: "blue"},
			},
		},
	}

	if err := SaveColorConfig(path, config); err != nil {
		t.Fatalf("SaveColorConfig() error = %v", err)
	}
	loaded, err := LoadColorConfig(path)
	if err != nil {
		t.Fatalf("LoadColorConfig() error = %v", err)
	}

	vocab := loaded.Vocabulary("Category")
	if !vocab.Has("Food") || !vocab.Has("Transport") {
		t.Error("vocabulary missing expected options")
	}
	if vocab.Has("Rent") {
		t.Error("vocabulary contains option that was never defined")
	}
	if got := vocab.Color("Transport"); got != "blue" {
		t.Errorf("Color(Transport) = %q, want %q", got, "blue")
	}

	empty := loaded.Vocabulary("Attribute")
	if empty.Has("anything") {
		t.Error("vocabulary for unknown property should be empty")
	}
}
