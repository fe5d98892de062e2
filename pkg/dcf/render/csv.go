package render

import (
	"encoding/csv"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/stex99/dcf-tool/pkg/dcf/columns"
	"github.com/stex99/dcf-tool/pkg/dcf/types"
)

// exportRow is one line of the standard export. Fields are strings so the
// N/A sentinel survives.
type exportRow struct {
	Ticker        string `csv:"Ticker"`
	Shares        string `csv:"Shares"`
	ValuePerShare string `csv:"DCF Value per Share ($)"`
	MarketPrice   string `csv:"Market Price ($)"`
	Difference    string `csv:"Difference ($)"`
	UpsidePercent string `csv:"Upside/Downside (%)"`
	Valuation     string `csv:"Valuation"`
	HoldingValue  string `csv:"Estimated Holding Value ($)"`
}

// CSVRenderer writes one row per holding, values rounded to cents.
type CSVRenderer struct{}

func NewCSVRenderer() *CSVRenderer { return &CSVRenderer{} }

func (r *CSVRenderer) Render(w io.Writer, rep Report, opts RenderOptions) error {
	if len(opts.Columns) == 0 || isStandard(opts.Columns) {
		rows := make([]*exportRow, 0, len(rep.Summary.Results))
		for _, res := range rep.Summary.Results {
			rows = append(rows, newExportRow(res))
		}
		return gocsv.Marshal(rows, w)
	}

	// Custom selections have no fixed struct.
	cw := csv.NewWriter(w)
	if err := cw.Write(columns.Headers(opts.Columns)); err != nil {
		return err
	}
	for _, res := range rep.Summary.Results {
		if err := cw.Write(columns.Row(opts.Columns, res)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func newExportRow(r types.HoldingResult) *exportRow {
	defs := columns.Registry
	return &exportRow{
		Ticker:        defs["ticker"].Value(r),
		Shares:        defs["shares"].Value(r),
		ValuePerShare: defs["value_per_share"].Value(r),
		MarketPrice:   defs["market_price"].Value(r),
		Difference:    defs["difference"].Value(r),
		UpsidePercent: defs["upside"].Value(r),
		Valuation:     defs["valuation"].Value(r),
		HoldingValue:  defs["holding_value"].Value(r),
	}
}

func isStandard(defs []columns.Def) bool {
	std := columns.Sets[columns.DefaultSet]
	if len(defs) != len(std) {
		return false
	}
	for i, d := range defs {
		if d.Key != std[i] {
			return false
		}
	}
	return true
}
