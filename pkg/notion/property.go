package notion

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Extract converts a typed property payload into a plain value:
// title/rich_text become strings, select becomes the option name,
// multi_select a list of names, relation a list of linked page IDs,
// date a compact range label, rollup recurses by its inner type.
// Unknown property types return the raw inner payload unmodified; this is a
// deliberate forward-compatibility fallback, not an error.
func Extract(p Property) any {
	switch p.Type {
	case "title":
		return richTextContent(p.Title)
	case "rich_text":
		return richTextContent(p.RichText)
	case "number":
		if p.Number == nil {
			return nil
		}
		return *p.Number
	case "select":
		if p.Select == nil {
			return ""
		}
		return p.Select.Name
	case "multi_select":
		names := make([]string, 0, len(p.MultiSelect))
		for _, opt := range p.MultiSelect {
			names = append(names, opt.Name)
		}
		return names
	case "checkbox":
		if p.Checkbox == nil {
			return false
		}
		return *p.Checkbox
	case "url":
		return stringOrNil(p.URL)
	case "email":
		return stringOrNil(p.Email)
	case "phone_number":
		return stringOrNil(p.PhoneNumber)
	case "relation":
		ids := make([]string, 0, len(p.Relation))
		for _, rel := range p.Relation {
			ids = append(ids, rel.ID)
		}
		return ids
	case "rollup":
		return extractRollup(p.Rollup)
	case "date":
		if p.Date == nil {
			return nil
		}
		end := ""
		if p.Date.End != nil {
			end = *p.Date.End
		}
		return FormatDateRange(p.Date.Start, end)
	default:
		if inner, ok := p.raw[p.Type]; ok {
			var v any
			if err := json.Unmarshal(inner, &v); err == nil {
				return v
			}
		}
		return nil
	}
}

// FirstRelation collapses a relation value to its first linked ID. Used by
// callers that know the property carries single-relation semantics.
func FirstRelation(p Property) string {
	if p.Type != "relation" || len(p.Relation) == 0 {
		return ""
	}
	return p.Relation[0].ID
}

// ExtractString extracts the value of a property as a string, returning ""
// for anything that is not string shaped.
func ExtractString(p Property) string {
	if s, ok := Extract(p).(string); ok {
		return s
	}
	return ""
}

// ExtractNumber extracts the value of a number property, treating absent
// values as zero.
func ExtractNumber(p Property) float64 {
	if n, ok := Extract(p).(float64); ok {
		return n
	}
	return 0
}

// extractRollup resolves a rollup value by its inner type. Numbers and dates
// pass through, arrays recurse per element, unknown inner types return the
// raw inner payload like unknown property types do.
func extractRollup(r *Rollup) any {
	if r == nil || r.Type == "" {
		return nil
	}

	switch r.Type {
	case "number":
		if r.Number == nil {
			return nil
		}
		return *r.Number
	case "date":
		if r.Date == nil {
			return nil
		}
		return *r.Date
	case "array":
		if len(r.Array) == 0 {
			return nil
		}
		values := make([]any, 0, len(r.Array))
		for _, item := range r.Array {
			values = append(values, Extract(item))
		}
		return values
	default:
		if inner, ok := r.raw[r.Type]; ok {
			var v any
			if err := json.Unmarshal(inner, &v); err == nil {
				return v
			}
		}
		return nil
	}
}

// FormatDateRange renders a start/end date pair (YYYY-MM-DD) as a compact
// label:
//
//	no end date              → YYYY_MMDD
//	same year, same month,
//	end day < 10             → YYYY_MMDD-DD
//	same year                → YYYY_MMDD-MMDD
//	different years          → YYYY_MMDD-YYYY_MMDD
func FormatDateRange(start, end string) string {
	sy, sm, sd, ok := splitDate(start)
	if !ok {
		return ""
	}

	if end == "" {
		return fmt.Sprintf("%s_%s%s", sy, sm, sd)
	}

	ey, em, ed, ok := splitDate(end)
	if !ok {
		return fmt.Sprintf("%s_%s%s", sy, sm, sd)
	}

	if sy == ey {
		if sm == em {
			if day, err := strconv.Atoi(ed); err == nil && day < 10 {
				return fmt.Sprintf("%s_%s%s-%s", sy, sm, sd, ed)
			}
		}
		return fmt.Sprintf("%s_%s%s-%s%s", sy, sm, sd, em, ed)
	}

	return fmt.Sprintf("%s_%s%s-%s_%s%s", sy, sm, sd, ey, em, ed)
}

// splitDate splits a YYYY-MM-DD string into zero-padded parts.
func splitDate(date string) (year, month, day string, ok bool) {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], pad2(parts[1]), pad2(parts[2]), true
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func richTextContent(segments []RichText) string {
	if len(segments) == 0 {
		return ""
	}
	return segments[0].Text.Content
}

func stringOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
