// Package expense defines the expense record model and the mapping from
// Notion property names onto it.
package expense

import "github.com/robinkct/notion-account-graph/pkg/notion"

// BucketRef is an inline reference to the bucket page a record belongs to.
type BucketRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Record is one expense entry. Records are created by the sync engine and
// immutable afterwards; the JSON layout is the persisted snapshot format.
type Record struct {
	PageID    string     `json:"page_id"`
	Item      string     `json:"item"`
	Amount    float64    `json:"amount"`
	Attribute string     `json:"attribute"`
	Category  string     `json:"category"`
	Owner     string     `json:"owner"`
	Event     *BucketRef `json:"event,omitempty"`
	Month     *BucketRef `json:"month,omitempty"`
	Date      string     `json:"date"`
}

// EventTitle returns the title of the record's event bucket, or "".
func (r Record) EventTitle() string {
	if r.Event == nil {
		return ""
	}
	return r.Event.Title
}

// MonthTitle returns the title of the record's month bucket, or "".
func (r Record) MonthTitle() string {
	if r.Month == nil {
		return ""
	}
	return r.Month.Title
}

// FromPage normalizes a Notion page into a Record. Relation properties carry
// single-relation semantics here: only the first linked ID counts, and it is
// resolved through the relation table into an inline {id, title} reference.
// Absent amounts become zero so the record contributes nothing to aggregates.
func FromPage(page notion.Page, mapping *Mapping, relations map[string]string) Record {
	rec := Record{PageID: page.ID}

	if prop, ok := page.Properties[mapping.Properties.Item]; ok {
		rec.Item = notion.ExtractString(prop)
	}
	if prop, ok := page.Properties[mapping.Properties.Amount]; ok {
		rec.Amount = notion.ExtractNumber(prop)
	}
	if prop, ok := page.Properties[mapping.Properties.Attribute]; ok {
		rec.Attribute = notion.ExtractString(prop)
	}
	if prop, ok := page.Properties[mapping.Properties.Category]; ok {
		rec.Category = notion.ExtractString(prop)
	}
	if prop, ok := page.Properties[mapping.Properties.Owner]; ok {
		rec.Owner = notion.ExtractString(prop)
	}
	if prop, ok := page.Properties[mapping.Properties.Date]; ok {
		rec.Date = notion.ExtractString(prop)
	}
	if prop, ok := page.Properties[mapping.Properties.Event]; ok {
		rec.Event = resolveRef(prop, relations)
	}
	if prop, ok := page.Properties[mapping.Properties.Month]; ok {
		rec.Month = resolveRef(prop, relations)
	}

	return rec
}

func resolveRef(prop notion.Property, relations map[string]string) *BucketRef {
	id := notion.FirstRelation(prop)
	if id == "" {
		return nil
	}
	return &BucketRef{ID: id, Title: relations[id]}
}
