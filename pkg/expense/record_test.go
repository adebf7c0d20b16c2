package expense

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/robinkct/notion-account-graph/pkg/notion"
)

func TestFromPage(t *testing.T) {
	raw := `{
		"id": "page-1",
		"properties": {
			"Item": {"type": "title", "title": [{"type": "text", "text": {"content": "Lunch"}}]},
			"Amount": {"type": "number", "number": 120},
			"Attribute": {"type": "select", "select": {"name": "Need", "color": "green"}},
			"Category": {"type": "select", "select": {"name": "Food", "color": "red"}},
			"Owner": {"type": "select", "select": {"name": "A", "color": "blue"}},
			"Event": {"type": "relation", "relation": [{"id": "ev1"}]},
			"Date": {"type": "date", "date": {"start": "2025-04-05", "end": null}}
		}
	}`
	var page notion.Page
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		t.Fatalf("failed to parse page fixture: %v", err)
	}

	rec := FromPage(page, DefaultMapping(), map[string]string{"ev1": "Okinawa Trip"})

	if rec.PageID != "page-1" || rec.Item != "Lunch" || rec.Amount != 120 {
		t.Errorf("record basics = %+v", rec)
	}
	if rec.Attribute != "Need" || rec.Category != "Food" || rec.Owner != "A" {
		t.Errorf("record tags = %+v", rec)
	}
	if rec.EventTitle() != "Okinawa Trip" {
		t.Errorf("EventTitle() = %q, want resolved title", rec.EventTitle())
	}
	if rec.Month != nil {
		t.Errorf("Month = %+v, want nil for absent property", rec.Month)
	}
	if rec.Date != "2025_0405" {
		t.Errorf("Date = %q, want formatted date", rec.Date)
	}
}

func TestFromPageEmptyProperties(t *testing.T) {
	raw := `{
		"id": "page-2",
		"properties": {
			"Amount": {"type": "number", "number": null},
			"Event": {"type": "relation", "relation": []}
		}
	}`
	var page notion.Page
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		t.Fatalf("failed to parse page fixture: %v", err)
	}

	rec := FromPage(page, DefaultMapping(), nil)

	if rec.Amount != 0 {
		t.Errorf("Amount = %v, want 0 for null number", rec.Amount)
	}
	if rec.Event != nil {
		t.Errorf("Event = %+v, want nil for empty relation", rec.Event)
	}
}

func TestLoadMappingPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	content := `
properties:
  item: 品項
  amount: 支出NTD
parties:
  a: 廷
  b: 雰
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	mapping, err := LoadMapping(path)
	if err != nil {
		t.Fatalf("LoadMapping() error = %v", err)
	}

	if mapping.Properties.Item != "品項" || mapping.Properties.Amount != "支出NTD" {
		t.Errorf("overridden properties = %+v", mapping.Properties)
	}
	if mapping.Parties.A != "廷" || mapping.Parties.B != "雰" {
		t.Errorf("parties = %+v", mapping.Parties)
	}
	// Unset fields keep their defaults.
	if mapping.Properties.Date != "Date" {
		t.Errorf("Properties.Date = %q, want default", mapping.Properties.Date)
	}
	if mapping.MonthMarker != "月" {
		t.Errorf("MonthMarker = %q, want default", mapping.MonthMarker)
	}
}

func TestArtifactName(t *testing.T) {
	tests := []struct {
		title  string
		marker string
		want   string
	}{
		{"Okinawa Trip", "", "Okinawa Trip.png"},
		{"Okinawa Trip", "廷", "Okinawa Trip (廷).png"},
		{"2025_04月", "雰", "2025_04月 (雰).png"},
	}

	for _, tt := range tests {
		if got := ArtifactName(tt.title, tt.marker); got != tt.want {
			t.Errorf("ArtifactName(%q, %q) = %q, want %q", tt.title, tt.marker, got, tt.want)
		}
	}
}
