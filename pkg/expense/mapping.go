package expense

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PropertyNames maps record fields onto Notion property names.
type PropertyNames struct {
	Item      string `yaml:"item"`
	Amount    string `yaml:"amount"`
	Attribute string `yaml:"attribute"`
	Category  string `yaml:"category"`
	Owner     string `yaml:"owner"`
	Event     string `yaml:"event"`
	Month     string `yaml:"month"`
	Date      string `yaml:"date"`
}

// Parties names the two parties of the ownership split. A record whose owner
// field matches neither marker is split 50/50.
type Parties struct {
	A string `yaml:"a"`
	B string `yaml:"b"`
}

// ChartProperties names the three files properties the rendered charts are
// attached to on a bucket page.
type ChartProperties struct {
	Total  string `yaml:"total"`
	PartyA string `yaml:"party_a"`
	PartyB string `yaml:"party_b"`
}

// BucketDatabase names the title (and optional date) property of a bucket
// database, used when building the relation table.
type BucketDatabase struct {
	Title string `yaml:"title"`
	Date  string `yaml:"date"`
}

// Mapping is the schema mapping configuration: which Notion properties feed
// which record fields, the party markers, and the chart attachment targets.
type Mapping struct {
	Properties  PropertyNames   `yaml:"properties"`
	Parties     Parties         `yaml:"parties"`
	Charts      ChartProperties `yaml:"charts"`
	EventDB     BucketDatabase  `yaml:"event_database"`
	MonthDB     BucketDatabase  `yaml:"month_database"`
	MonthMarker string          `yaml:"month_marker"`
}

// DefaultMapping returns the mapping used when no mapping file is configured.
func DefaultMapping() *Mapping {
	return &Mapping{
		Properties: PropertyNames{
			Item:      "Item",
			Amount:    "Amount",
			Attribute: "Attribute",
			Category:  "Category",
			Owner:     "Owner",
			Event:     "Event",
			Month:     "Month",
			Date:      "Date",
		},
		Parties: Parties{A: "A", B: "B"},
		Charts: ChartProperties{
			Total:  "Total Pie",
			PartyA: "A Pie",
			PartyB: "B Pie",
		},
		EventDB:     BucketDatabase{Title: "Title", Date: "Date"},
		MonthDB:     BucketDatabase{Title: "Month"},
		MonthMarker: "月",
	}
}

// LoadMapping reads a mapping from a YAML file. Fields left empty in the file
// fall back to the defaults.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	mapping := DefaultMapping()
	if err := yaml.Unmarshal(data, mapping); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return mapping, nil
}

// ArtifactName returns the chart file name for a sanitized bucket title and a
// party marker ("" means the total chart).
func ArtifactName(sanitizedTitle, partyMarker string) string {
	if partyMarker == "" {
		return sanitizedTitle + ".png"
	}
	return fmt.Sprintf("%s (%s).png", sanitizedTitle, partyMarker)
}
