// Package notion provides a Notion API client and property value extraction.
package notion

import "encoding/json"

// Page represents a page object returned by the Notion API.
type Page struct {
	ID         string              `json:"id"`
	Properties map[string]Property `json:"properties"`
}

// QueryResponse represents the response of a database query.
type QueryResponse struct {
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// QueryRequest represents the body of a database query.
type QueryRequest struct {
	Filter      json.RawMessage `json:"filter,omitempty"`
	Sorts       json.RawMessage `json:"sorts,omitempty"`
	PageSize    int             `json:"page_size,omitempty"`
	StartCursor string          `json:"start_cursor,omitempty"`
}

// RichText represents one segment of a title or rich_text property.
type RichText struct {
	Type string `json:"type"`
	Text struct {
		Content string `json:"content"`
	} `json:"text"`
	PlainText string `json:"plain_text,omitempty"`
}

// SelectOption represents one option of a select or multi_select property.
type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// RelationRef represents one linked page of a relation property.
type RelationRef struct {
	ID string `json:"id"`
}

// DateValue represents the value of a date property.
type DateValue struct {
	Start string  `json:"start"`
	End   *string `json:"end"`
}

// Rollup represents the value of a rollup property.
type Rollup struct {
	Type   string     `json:"type"`
	Number *float64   `json:"number,omitempty"`
	Date   *DateValue `json:"date,omitempty"`
	Array  []Property `json:"array,omitempty"`

	raw map[string]json.RawMessage
}

// UnmarshalJSON decodes the typed fields and keeps the raw payload around for
// the unknown-type fallback.
func (r *Rollup) UnmarshalJSON(data []byte) error {
	type alias Rollup
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = Rollup(a)

	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err == nil {
		r.raw = m
	}
	return nil
}

// FileRef represents one file of a files property.
type FileRef struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	External struct {
		URL string `json:"url"`
	} `json:"external"`
}

// Property is a typed Notion property payload. The declared type selects
// which of the value fields is populated; raw keeps the original payload so
// unknown types can pass through unmodified.
type Property struct {
	Type        string         `json:"type"`
	Title       []RichText     `json:"title,omitempty"`
	RichText    []RichText     `json:"rich_text,omitempty"`
	Number      *float64       `json:"number,omitempty"`
	Select      *SelectOption  `json:"select,omitempty"`
	MultiSelect []SelectOption `json:"multi_select,omitempty"`
	Checkbox    *bool          `json:"checkbox,omitempty"`
	URL         *string        `json:"url,omitempty"`
	Email       *string        `json:"email,omitempty"`
	PhoneNumber *string        `json:"phone_number,omitempty"`
	Relation    []RelationRef  `json:"relation,omitempty"`
	Rollup      *Rollup        `json:"rollup,omitempty"`
	Date        *DateValue     `json:"date,omitempty"`
	Files       []FileRef      `json:"files,omitempty"`

	raw map[string]json.RawMessage
}

// UnmarshalJSON decodes the typed fields and keeps the raw payload around for
// the unknown-type fallback.
func (p *Property) UnmarshalJSON(data []byte) error {
	type alias Property
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = Property(a)

	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err == nil {
		p.raw = m
	}
	return nil
}

// DatabaseResponse represents a database object returned by the Notion API.
type DatabaseResponse struct {
	ID         string                        `json:"id"`
	Properties map[string]DatabaseProperty   `json:"properties"`
}

// DatabaseProperty represents one property definition of a database schema.
type DatabaseProperty struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Select      *OptionsHolder `json:"select,omitempty"`
	MultiSelect *OptionsHolder `json:"multi_select,omitempty"`
}

// OptionsHolder wraps the option list of a select/multi_select definition.
type OptionsHolder struct {
	Options []SelectOption `json:"options"`
}

// PropertyOptions describes the options of one select-like database property.
type PropertyOptions struct {
	Type    string         `json:"type"`
	Options []SelectOption `json:"options"`
}

// ErrorResponse represents an error response from the Notion API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
