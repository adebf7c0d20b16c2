// Package chart renders the per-bucket pie charts: one composite PNG with an
// attribute pie and a category pie side by side under a title band.
package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	gochart "github.com/wcharczuk/go-chart/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/robinkct/notion-account-graph/pkg/aggregate"
	"github.com/robinkct/notion-account-graph/pkg/expense"
	"github.com/robinkct/notion-account-graph/pkg/pathutil"
)

const (
	// DefaultThreshold is the share below which portions are folded into
	// the merged slice.
	DefaultThreshold = 0.03

	pieSize       = 512
	bandHeight    = 40
	captionHeight = 24
)

// Config configures a chart renderer.
type Config struct {
	Attributes *aggregate.Vocabulary
	Categories *aggregate.Vocabulary
	Threshold  float64 // Default: DefaultThreshold
	PartyA     string
	PartyB     string
}

// Renderer renders total and per-party charts for aggregated buckets.
type Renderer struct {
	attrs     *aggregate.Vocabulary
	cats      *aggregate.Vocabulary
	threshold float64
	partyA    string
	partyB    string
}

// New creates a chart renderer.
func New(cfg Config) *Renderer {
	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	return &Renderer{
		attrs:     cfg.Attributes,
		cats:      cfg.Categories,
		threshold: threshold,
		partyA:    cfg.PartyA,
		partyB:    cfg.PartyB,
	}
}

// RenderBucket writes up to three chart files into dir: the bucket total and
// one per party. A variant with no amounts at all writes nothing. Returns the
// file names written.
func (r *Renderer) RenderBucket(b *aggregate.Bucket, dir string) ([]string, error) {
	sanitized := pathutil.SanitizeFilename(b.Name)

	variants := []struct {
		marker string
		sub    aggregate.SubAggregate
	}{
		{"", b.Total},
		{r.partyA, b.PartyA},
		{r.partyB, b.PartyB},
	}

	var written []string
	for _, v := range variants {
		if v.sub.Empty() {
			slog.Debug("Skipping empty chart", "bucket", b.Name, "party", v.marker)
			continue
		}

		title := variantTitle(b.Name, b.DateRange(), v.marker)

		name := expense.ArtifactName(sanitized, v.marker)
		path := filepath.Join(dir, name)
		if err := r.renderOne(v.sub, title, path); err != nil {
			return written, fmt.Errorf("failed to render %s: %w", name, err)
		}
		written = append(written, name)
	}

	return written, nil
}

// renderOne composites the two dimension pies and the title band into a
// single PNG, written atomically.
func (r *Renderer) renderOne(sub aggregate.SubAggregate, title, path string) error {
	attrPie, attrTotal, err := renderPie(sub.Attribute, r.attrs, r.threshold)
	if err != nil {
		return err
	}
	catPie, catTotal, err := renderPie(sub.Category, r.cats, r.threshold)
	if err != nil {
		return err
	}

	canvas := image.NewRGBA(image.Rect(0, 0, 2*pieSize, bandHeight+captionHeight+pieSize))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	grand := attrTotal
	if grand == 0 {
		grand = catTotal
	}
	lines := titleLines(title, grand)
	drawText(canvas, 12, 16, lines[0])
	drawText(canvas, 12, bandHeight-8, lines[1])
	drawText(canvas, 12, bandHeight+captionHeight-8, caption("Attribute", attrTotal))
	drawText(canvas, pieSize+12, bandHeight+captionHeight-8, caption("Category", catTotal))

	top := bandHeight + captionHeight
	if attrPie != nil {
		draw.Draw(canvas, image.Rect(0, top, pieSize, top+pieSize), attrPie, attrPie.Bounds().Min, draw.Over)
	}
	if catPie != nil {
		draw.Draw(canvas, image.Rect(pieSize, top, 2*pieSize, top+pieSize), catPie, catPie.Bounds().Min, draw.Over)
	}

	return writePNGAtomic(path, canvas)
}

// renderPie renders one dimension to an image. No positive amounts yields a
// nil image and zero total.
func renderPie(amounts map[string]float64, vocab *aggregate.Vocabulary, threshold float64) (image.Image, float64, error) {
	slices, total := MergeSmallPortions(amounts, threshold)
	if len(slices) == 0 {
		return nil, 0, nil
	}

	values := make([]gochart.Value, 0, len(slices))
	for _, s := range slices {
		style := gochart.Style{FillColor: colorFromHex(mergedSliceHex)}
		if !s.Merged {
			style.FillColor = colorFromName(vocab.Color(s.Name))
		}
		values = append(values, gochart.Value{
			Value: s.Value,
			Label: s.Label,
			Style: style,
		})
	}

	pie := gochart.PieChart{
		Width:  pieSize,
		Height: pieSize,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(gochart.PNG, &buf); err != nil {
		return nil, 0, fmt.Errorf("failed to render pie: %w", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode pie: %w", err)
	}
	return img, total, nil
}

// variantTitle builds the chart title for one bucket variant. Party charts
// carry the owner marker in parentheses, matching the artifact file names.
func variantTitle(name, dateRange, marker string) string {
	title := name + dateRange
	if marker != "" {
		title = fmt.Sprintf("%s (%s)", title, marker)
	}
	return title
}

// titleLines returns the two title band lines: the bucket title and the
// grand total of the rendered amounts.
func titleLines(title string, total float64) []string {
	return []string{title, "Total: " + formatAmount(total)}
}

func caption(dimension string, total float64) string {
	if total == 0 {
		return fmt.Sprintf("%s: no data", dimension)
	}
	return fmt.Sprintf("%s: total %s", dimension, formatAmount(total))
}

func drawText(dst *image.RGBA, x, y int, s string) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func writePNGAtomic(path string, img image.Image) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
