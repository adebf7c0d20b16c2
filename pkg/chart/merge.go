package chart

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
)

// Slice is one pie slice ready for rendering.
type Slice struct {
	Name   string
	Label  string
	Value  float64
	Merged bool
}

// MergeSmallPortions turns amounts into slices sorted by descending value,
// folding every portion below the threshold share into a single merged slice
// whose label lists the folded entries one per line. Returns the slices and
// the grand total.
func MergeSmallPortions(amounts map[string]float64, threshold float64) ([]Slice, float64) {
	var total float64
	for _, v := range amounts {
		if v > 0 {
			total += v
		}
	}
	if total <= 0 {
		return nil, 0
	}

	names := make([]string, 0, len(amounts))
	for name := range amounts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if amounts[names[i]] != amounts[names[j]] {
			return amounts[names[i]] > amounts[names[j]]
		}
		return names[i] < names[j]
	})

	var slices []Slice
	var mergedValue float64
	var mergedLines []string

	for _, name := range names {
		value := amounts[name]
		if value <= 0 {
			continue
		}
		if value/total < threshold {
			mergedValue += value
			mergedLines = append(mergedLines, fmt.Sprintf("%s (%s)", name, formatAmount(value)))
			continue
		}
		slices = append(slices, Slice{
			Name:  name,
			Label: fmt.Sprintf("%s (%s) %.1f%%", name, formatAmount(value), value/total*100),
			Value: value,
		})
	}

	if mergedValue > 0 {
		slices = append(slices, Slice{
			Name:   strings.Join(mergedLines, "\n"),
			Label:  strings.Join(mergedLines, "\n"),
			Value:  mergedValue,
			Merged: true,
		})
	}

	return slices, total
}

func formatAmount(v float64) string {
	return humanize.CommafWithDigits(v, 0)
}
