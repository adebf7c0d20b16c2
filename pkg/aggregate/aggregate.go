// Package aggregate folds expense records into per-bucket totals split by
// attribute, category and ownership.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/robinkct/notion-account-graph/pkg/expense"
)

// Vocabulary is a closed set of valid tag names with their display colors.
// Tags outside the vocabulary are silently excluded from that dimension.
type Vocabulary struct {
	colors map[string]string
}

// NewVocabulary builds a vocabulary from tag name → Notion color name.
func NewVocabulary(colors map[string]string) *Vocabulary {
	if colors == nil {
		colors = map[string]string{}
	}
	return &Vocabulary{colors: colors}
}

// Has reports whether a tag belongs to the vocabulary.
func (v *Vocabulary) Has(tag string) bool {
	if v == nil || tag == "" {
		return false
	}
	_, ok := v.colors[tag]
	return ok
}

// Color returns the Notion color name of a tag, or "" when unmapped.
func (v *Vocabulary) Color(tag string) string {
	if v == nil {
		return ""
	}
	return v.colors[tag]
}

// SubAggregate holds running sums for the two orthogonal dimensions.
type SubAggregate struct {
	Attribute map[string]float64
	Category  map[string]float64
}

func newSubAggregate() SubAggregate {
	return SubAggregate{
		Attribute: make(map[string]float64),
		Category:  make(map[string]float64),
	}
}

// Empty reports whether the sub-aggregate holds no amounts at all.
func (s SubAggregate) Empty() bool {
	return len(s.Attribute) == 0 && len(s.Category) == 0
}

// Bucket is one named aggregation target (an event or a month) with its
// total and per-party sub-aggregates. Buckets are derived state, recomputed
// from scratch every run.
type Bucket struct {
	Name   string
	Total  SubAggregate
	PartyA SubAggregate
	PartyB SubAggregate

	dates []string
}

func newBucket(name string) *Bucket {
	return &Bucket{
		Name:   name,
		Total:  newSubAggregate(),
		PartyA: newSubAggregate(),
		PartyB: newSubAggregate(),
	}
}

// DateRange returns the span of the bucket's record dates as a chart title
// suffix: "" when no dates, " (d)" for a single day, " (d1 - d2)" otherwise.
func (b *Bucket) DateRange() string {
	if len(b.dates) == 0 {
		return ""
	}
	dates := append([]string(nil), b.dates...)
	sort.Strings(dates)
	start, end := dates[0], dates[len(dates)-1]
	if start == end {
		return fmt.Sprintf(" (%s)", start)
	}
	return fmt.Sprintf(" (%s - %s)", start, end)
}

// Selector picks the bucket name a record belongs to.
type Selector func(expense.Record) (string, bool)

// ByEvent selects the record's event bucket.
func ByEvent(r expense.Record) (string, bool) {
	title := r.EventTitle()
	return title, title != ""
}

// ByMonth selects the record's month bucket.
func ByMonth(r expense.Record) (string, bool) {
	title := r.MonthTitle()
	return title, title != ""
}

// Aggregate folds records into buckets keyed by the selector. Records with a
// non-positive amount contribute nothing. The total gets the full amount per
// dimension whose tag is in the vocabulary; the ownership split credits one
// party in full when the owner matches a marker, and both parties half
// otherwise, with the same vocabulary check applied per dimension.
// Input records are never mutated.
func Aggregate(records []expense.Record, sel Selector, attrs, cats *Vocabulary, parties expense.Parties) map[string]*Bucket {
	buckets := make(map[string]*Bucket)

	for _, r := range records {
		name, ok := sel(r)
		if !ok {
			continue
		}
		if r.Amount <= 0 {
			continue
		}

		b := buckets[name]
		if b == nil {
			b = newBucket(name)
			buckets[name] = b
		}
		if r.Date != "" {
			b.dates = append(b.dates, r.Date)
		}

		credit(b.Total, r, r.Amount, attrs, cats)

		switch r.Owner {
		case parties.A:
			credit(b.PartyA, r, r.Amount, attrs, cats)
		case parties.B:
			credit(b.PartyB, r, r.Amount, attrs, cats)
		default:
			half := r.Amount / 2
			credit(b.PartyA, r, half, attrs, cats)
			credit(b.PartyB, r, half, attrs, cats)
		}
	}

	return buckets
}

func credit(sub SubAggregate, r expense.Record, amount float64, attrs, cats *Vocabulary) {
	if attrs.Has(r.Attribute) {
		sub.Attribute[r.Attribute] += amount
	}
	if cats.Has(r.Category) {
		sub.Category[r.Category] += amount
	}
}

// Filter returns the subset of records whose selected bucket name is in the
// given set.
func Filter(records []expense.Record, sel Selector, names map[string]struct{}) []expense.Record {
	var out []expense.Record
	for _, r := range records {
		if name, ok := sel(r); ok {
			if _, hit := names[name]; hit {
				out = append(out, r)
			}
		}
	}
	return out
}
