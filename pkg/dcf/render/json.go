package render

import (
	"encoding/json"
	"io"

	"github.com/stex99/dcf-tool/pkg/dcf/diag"
	"github.com/stex99/dcf-tool/pkg/dcf/types"
	"github.com/stex99/dcf-tool/pkg/dcf/valuation"
)

// JSONReport is the machine-readable shape of a run, shared with the HTTP
// API. Unavailable values are null; numbers are unrounded.
type JSONReport struct {
	RunID               string           `json:"run_id,omitempty"`
	Parameters          valuation.Params `json:"parameters"`
	Tolerance           float64          `json:"tolerance"`
	Results             []JSONResult     `json:"results"`
	TotalEstimatedValue float64          `json:"total_estimated_value"`
	Diagnostics         []diag.Entry     `json:"diagnostics,omitempty"`
}

type JSONResult struct {
	Identifier     string   `json:"identifier"`
	Shares         float64  `json:"shares"`
	IntrinsicValue *float64 `json:"intrinsic_value"`
	ValuePerShare  *float64 `json:"value_per_share"`
	MarketPrice    *float64 `json:"market_price"`
	Difference     *float64 `json:"difference"`
	UpsidePercent  *float64 `json:"upside_percent"`
	Valuation      string   `json:"valuation"`
	HoldingValue   *float64 `json:"holding_value"`
}

// NewJSONReport converts rep. Diagnostics are included when withDiag is set.
func NewJSONReport(rep Report, withDiag bool) JSONReport {
	out := JSONReport{
		RunID:               rep.RunID,
		Parameters:          rep.Params,
		Tolerance:           rep.Tolerance,
		Results:             make([]JSONResult, 0, len(rep.Summary.Results)),
		TotalEstimatedValue: rep.Summary.TotalEstimatedValue,
	}
	for _, r := range rep.Summary.Results {
		out.Results = append(out.Results, jsonResult(r))
	}
	if withDiag {
		out.Diagnostics = rep.Diagnostics
	}
	return out
}

func jsonResult(r types.HoldingResult) JSONResult {
	return JSONResult{
		Identifier:     r.Identifier,
		Shares:         r.Shares,
		IntrinsicValue: r.IntrinsicValue,
		ValuePerShare:  r.ValuePerShare,
		MarketPrice:    r.MarketPrice,
		Difference:     r.Difference,
		UpsidePercent:  r.UpsidePercent,
		Valuation:      r.Flag.String(),
		HoldingValue:   r.HoldingValue,
	}
}

type JSONRenderer struct{}

func NewJSONRenderer() *JSONRenderer { return &JSONRenderer{} }

func (r *JSONRenderer) Render(w io.Writer, rep Report, opts RenderOptions) error {
	enc := json.NewEncoder(w)
	if opts.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(NewJSONReport(rep, opts.Diagnostics))
}
