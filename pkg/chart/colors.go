package chart

import (
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// notionColorHex maps Notion select colors onto the hex values Notion renders
// them with. Unknown color names fall back to the default text color.
var notionColorHex = map[string]string{
	"default": "#37352F",
	"gray":    "#787774",
	"brown":   "#9F6B53",
	"orange":  "#D9730D",
	"yellow":  "#CB912F",
	"green":   "#448361",
	"blue":    "#337EA9",
	"purple":  "#9065B0",
	"pink":    "#C14C8A",
	"red":     "#D44C47",
}

// mergedSliceHex colors the slice that folds the small portions together.
const mergedSliceHex = "#808080"

func colorFromName(name string) drawing.Color {
	hex, ok := notionColorHex[name]
	if !ok {
		hex = notionColorHex["default"]
	}
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func colorFromHex(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}
