// Package console renders user-facing progress and summaries on the
// terminal. Structured logging stays on slog; this is the pretty layer the
// commands talk through.
package console

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

// Console prints styled status lines, progress bars and summary tables.
type Console struct{}

// New creates a new Console.
func New() *Console {
	return &Console{}
}

// Println prints to the console with a new line.
func (c *Console) Println(a ...any) {
	fmt.Println(a...)
}

// Info prints an informational status line.
func (c *Console) Info(format string, a ...any) {
	pterm.Info.Printfln(format, a...)
}

// Success prints a success status line.
func (c *Console) Success(format string, a ...any) {
	pterm.Success.Printfln(format, a...)
}

// Warning prints a warning status line.
func (c *Console) Warning(format string, a ...any) {
	pterm.Warning.Printfln(format, a...)
}

// Error prints an error status line.
func (c *Console) Error(format string, a ...any) {
	pterm.Error.Printfln(format, a...)
}

// Predefined colors for consistent emphasis in summaries.
var (
	BrightGreen  = color.New(color.FgGreen, color.Bold).SprintFunc()
	BrightYellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	BrightCyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
	BoldRed      = color.New(color.FgRed, color.Bold).SprintFunc()
)

// Progress wraps a progress bar over a known number of steps.
type Progress struct {
	bar *pterm.ProgressbarPrinter
}

// Progress starts a progress bar with the given title and total.
func (c *Console) Progress(title string, total int) *Progress {
	bar, _ := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle(title).
		WithShowCount(true).
		Start()
	return &Progress{bar: bar}
}

// Increment advances the progress bar by one step.
func (p *Progress) Increment() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

// Stop stops the progress bar.
func (p *Progress) Stop() {
	if p.bar != nil {
		p.bar.Stop()
	}
}

// Table renders a two-dimensional summary with a header row.
func (c *Console) Table(header []string, rows [][]string) {
	data := pterm.TableData{header}
	for _, row := range rows {
		data = append(data, row)
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
