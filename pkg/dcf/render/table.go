package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/stex99/dcf-tool/pkg/dcf/columns"
	"github.com/stex99/dcf-tool/pkg/dcf/diag"
	"github.com/stex99/dcf-tool/pkg/dcf/types"
)

// TotalLabel captions the portfolio total.
const TotalLabel = "Estimated Total Portfolio Value"

type TableRenderer struct{}

func NewTableRenderer() *TableRenderer { return &TableRenderer{} }

func (r *TableRenderer) Render(w io.Writer, rep Report, opts RenderOptions) error {
	defs, err := defsOrDefault(opts.Columns)
	if err != nil {
		return err
	}

	tw := newWriter(w, opts)
	hdr := make(table.Row, len(defs))
	for i, h := range columns.Headers(defs) {
		hdr[i] = h
	}
	tw.AppendHeader(hdr)

	// Column configs: wrap text to MaxColWidth (default 40), no truncation
	maxWidth := opts.MaxColWidth
	if maxWidth <= 0 {
		maxWidth = 40
	}
	cfgs := make([]table.ColumnConfig, 0, len(defs))
	for i, d := range defs {
		cfg := table.ColumnConfig{Number: i + 1, WidthMax: maxWidth}
		if d.Numeric {
			cfg.Align = text.AlignRight
			cfg.AlignHeader = text.AlignRight
			cfg.AlignFooter = text.AlignRight
		}
		cfgs = append(cfgs, cfg)
	}
	tw.SetColumnConfigs(cfgs)

	for _, res := range rep.Summary.Results {
		row := make(table.Row, len(defs))
		for i, d := range defs {
			v := d.Value(res)
			if d.Numeric {
				v = columns.Group(v)
			}
			if opts.Color && d.Key == "valuation" {
				v = colorFlag(res.Flag, v)
			}
			row[i] = v
		}
		tw.AppendRow(row)
	}

	total := columns.Money(rep.Summary.TotalEstimatedValue)
	if len(defs) > 1 {
		footer := make(table.Row, len(defs))
		footer[0] = TotalLabel
		for i := 1; i < len(defs)-1; i++ {
			footer[i] = ""
		}
		footer[len(defs)-1] = total
		tw.AppendFooter(footer)
		tw.Render()
	} else {
		tw.Render()
		fmt.Fprintf(w, "%s: %s\n", TotalLabel, total)
	}

	if opts.Diagnostics && len(rep.Diagnostics) > 0 {
		fmt.Fprintln(w)
		renderDiagnostics(w, rep.Diagnostics, opts)
	}
	return nil
}

func newWriter(w io.Writer, opts RenderOptions) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if opts.Color {
		tw.SetStyle(table.StyleColoredDark)
	} else {
		tw.SetStyle(table.StyleLight)
	}
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.SeparateColumns = false
	if opts.TermWidth > 0 {
		tw.Style().Size.WidthMax = opts.TermWidth
	}
	return tw
}

func colorFlag(f types.Flag, s string) string {
	switch f {
	case types.FlagUndervalued:
		return text.Colors{text.FgGreen}.Sprint(s)
	case types.FlagOvervalued:
		return text.Colors{text.FgRed}.Sprint(s)
	default:
		return s
	}
}

func renderDiagnostics(w io.Writer, entries []diag.Entry, opts RenderOptions) {
	tw := newWriter(w, opts)
	tw.SetTitle("Diagnostics")
	tw.AppendHeader(table.Row{"Ticker", "Method", "Operating Cash Flow", "Capital Expenditures", "FCF", "Message"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, WidthMax: 60},
	})
	for _, e := range entries {
		tw.AppendRow(table.Row{
			e.Identifier,
			string(e.Method),
			labelled(e.OCFLabel, e.OCF),
			labelled(e.CapExLabel, e.CapEx),
			columns.Group(columns.Round2(e.FCF)),
			e.Message,
		})
	}
	tw.Render()
}

func labelled(label string, v *float64) string {
	if v == nil {
		return columns.NA
	}
	return fmt.Sprintf("%s (%s)", columns.Group(columns.Round2(v)), label)
}
