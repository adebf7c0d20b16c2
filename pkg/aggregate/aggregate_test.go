package aggregate

import (
	"testing"

	"github.com/robinkct/notion-account-graph/pkg/expense"
)

var parties = expense.Parties{A: "A", B: "B"}

func vocab(tags ...string) *Vocabulary {
	colors := make(map[string]string)
	for _, tag := range tags {
		colors[tag] = "blue"
	}
	return NewVocabulary(colors)
}

func event(title string) *expense.BucketRef {
	return &expense.BucketRef{ID: "id-" + title, Title: title}
}

func TestAggregateSharedSplit(t *testing.T) {
	// No owner marker: both parties get half, total gets the full sum.
	records := []expense.Record{
		{PageID: "1", Amount: 100, Attribute: "Food", Event: event("Trip")},
		{PageID: "2", Amount: 50, Attribute: "Food", Event: event("Trip")},
	}

	buckets := Aggregate(records, ByEvent, vocab("Food"), vocab(), parties)

	b := buckets["Trip"]
	if b == nil {
		t.Fatal("bucket Trip missing")
	}
	if got := b.Total.Attribute["Food"]; got != 150 {
		t.Errorf("total = %v, expected 150", got)
	}
	if got := b.PartyA.Attribute["Food"]; got != 75 {
		t.Errorf("party A = %v, expected 75", got)
	}
	if got := b.PartyB.Attribute["Food"]; got != 75 {
		t.Errorf("party B = %v, expected 75", got)
	}
}

func TestAggregateOwnerCredit(t *testing.T) {
	records := []expense.Record{
		{PageID: "1", Amount: 100, Attribute: "Food", Owner: "A", Event: event("Trip")},
		{PageID: "2", Amount: 40, Attribute: "Food", Owner: "B", Event: event("Trip")},
		{PageID: "3", Amount: 10, Attribute: "Food", Owner: "shared", Event: event("Trip")},
	}

	buckets := Aggregate(records, ByEvent, vocab("Food"), vocab(), parties)

	b := buckets["Trip"]
	if got := b.Total.Attribute["Food"]; got != 150 {
		t.Errorf("total = %v, expected 150", got)
	}
	if got := b.PartyA.Attribute["Food"]; got != 105 {
		t.Errorf("party A = %v, expected 105", got)
	}
	if got := b.PartyB.Attribute["Food"]; got != 45 {
		t.Errorf("party B = %v, expected 45", got)
	}
}

func TestAggregateVocabularyExclusion(t *testing.T) {
	// An invalid attribute tag drops out of the attribute dimension only;
	// the record's category still counts.
	records := []expense.Record{
		{PageID: "1", Amount: 100, Attribute: "Food", Category: "Travel", Event: event("Trip")},
		{PageID: "2", Amount: 50, Attribute: "Zzz", Category: "Travel", Event: event("Trip")},
	}

	buckets := Aggregate(records, ByEvent, vocab("Food"), vocab("Travel"), parties)

	b := buckets["Trip"]
	if got := b.Total.Attribute["Food"]; got != 100 {
		t.Errorf("attribute Food = %v, expected 100", got)
	}
	if _, ok := b.Total.Attribute["Zzz"]; ok {
		t.Error("invalid attribute Zzz must not appear")
	}
	if got := b.Total.Category["Travel"]; got != 150 {
		t.Errorf("category Travel = %v, expected 150", got)
	}
}

func TestAggregateSkipsNonPositive(t *testing.T) {
	records := []expense.Record{
		{PageID: "1", Amount: 0, Attribute: "Food", Event: event("Trip")},
		{PageID: "2", Amount: -5, Attribute: "Food", Event: event("Trip")},
	}

	buckets := Aggregate(records, ByEvent, vocab("Food"), vocab(), parties)
	if len(buckets) != 0 {
		t.Errorf("expected no buckets, got %d", len(buckets))
	}
}

func TestAggregateByMonth(t *testing.T) {
	records := []expense.Record{
		{PageID: "1", Amount: 30, Category: "Food", Month: &expense.BucketRef{ID: "m", Title: "2025, 01月"}},
		{PageID: "2", Amount: 20, Category: "Food", Event: event("Trip")},
	}

	buckets := Aggregate(records, ByMonth, vocab(), vocab("Food"), parties)
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}
	if got := buckets["2025, 01月"].Total.Category["Food"]; got != 30 {
		t.Errorf("month total = %v, expected 30", got)
	}
}

func TestBucketDateRange(t *testing.T) {
	tests := []struct {
		name     string
		dates    []string
		expected string
	}{
		{"empty", nil, ""},
		{"single", []string{"2025_0405"}, " (2025_0405)"},
		{"same day twice", []string{"2025_0405", "2025_0405"}, " (2025_0405)"},
		{"range unsorted", []string{"2025_0409", "2025_0405"}, " (2025_0405 - 2025_0409)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBucket("x")
			b.dates = tt.dates
			if got := b.DateRange(); got != tt.expected {
				t.Errorf("DateRange() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	records := []expense.Record{
		{PageID: "1", Event: event("Trip")},
		{PageID: "2", Event: event("Other")},
		{PageID: "3"},
	}

	touched := map[string]struct{}{"Trip": {}}
	got := Filter(records, ByEvent, touched)
	if len(got) != 1 || got[0].PageID != "1" {
		t.Errorf("Filter() = %v, expected only record 1", got)
	}
}
