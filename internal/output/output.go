// Package output renders CLI tables and status lines.
package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Printer writes colored status lines. Colors are dropped when disabled or
// when the writer is not a terminal (fatih/color's NoColor detection).
type Printer struct {
	out    io.Writer
	colors bool
}

// NewPrinter returns a Printer writing to out.
func NewPrinter(out io.Writer, colors bool) *Printer {
	return &Printer{out: out, colors: colors && !color.NoColor}
}

func (p *Printer) paint(attrs []color.Attribute, format string, args ...any) {
	if p.colors {
		color.New(attrs...).Fprintf(p.out, format+"\n", args...)
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Info prints a plain line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Success prints a green line.
func (p *Printer) Success(format string, args ...any) {
	p.paint([]color.Attribute{color.FgGreen}, format, args...)
}

// Warn prints a yellow line.
func (p *Printer) Warn(format string, args ...any) {
	p.paint([]color.Attribute{color.FgYellow}, format, args...)
}

// Header prints a bold cyan line.
func (p *Printer) Header(format string, args ...any) {
	p.paint([]color.Attribute{color.FgCyan, color.Bold}, format, args...)
}

// Table collects rows and renders them borderless.
type Table struct {
	w      io.Writer
	header []string
	rows   [][]string
}

// NewTable creates a table writing to w.
func NewTable(w io.Writer, headers ...string) *Table {
	return &Table{w: w, header: headers}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render outputs the table.
func (t *Table) Render() error {
	table := tablewriter.NewTable(t.w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	table.Header(t.header)
	if err := table.Bulk(t.rows); err != nil {
		return err
	}
	return table.Render()
}
