package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stex99/dcf-tool/pkg/dcf/columns"
	"github.com/stex99/dcf-tool/pkg/dcf/diag"
	"github.com/stex99/dcf-tool/pkg/dcf/portfolio"
	"github.com/stex99/dcf-tool/pkg/dcf/types"
	"github.com/stex99/dcf-tool/pkg/dcf/valuation"
)

func sampleReport() Report {
	return Report{
		RunID:     "run-1",
		Params:    valuation.DefaultParams(),
		Tolerance: 0.10,
		Summary: types.Summary{
			Results: []types.HoldingResult{
				{
					Identifier:     "AAPL",
					Shares:         20,
					IntrinsicValue: types.Float(1200),
					ValuePerShare:  types.Float(120),
					MarketPrice:    types.Float(100),
					Difference:     types.Float(20),
					UpsidePercent:  types.Float(20),
					Flag:           types.FlagUndervalued,
					HoldingValue:   types.Float(2400),
				},
				{Identifier: "XYZ", Shares: 10, MarketPrice: types.Float(42.5)},
			},
			TotalEstimatedValue: 2400,
		},
		Diagnostics: []diag.Entry{
			{Identifier: "AAPL", Method: diag.MethodStatement, OCF: types.Float(1500), OCFLabel: "Operating Cash Flow", CapEx: types.Float(-500), CapExLabel: "Capital Expenditure", FCF: types.Float(1000)},
			{Identifier: "XYZ", Method: diag.MethodUnavailable, Message: "no cash flow statement"},
		},
	}
}

func TestForFormat(t *testing.T) {
	for _, f := range Formats {
		r, err := ForFormat(f)
		require.NoError(t, err, f)
		assert.NotNil(t, r)
	}
	_, err := ForFormat("xml")
	assert.Error(t, err)
}

func TestCSVRendererStandard(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVRenderer().Render(&buf, sampleReport(), RenderOptions{}))
	assert.Equal(t,
		"Ticker,Shares,DCF Value per Share ($),Market Price ($),Difference ($),Upside/Downside (%),Valuation,Estimated Holding Value ($)\n"+
			"AAPL,20,120.00,100.00,20.00,20.00,Undervalued,2400.00\n"+
			"XYZ,10,N/A,42.50,N/A,N/A,N/A,N/A\n",
		buf.String())
}

func TestCSVRendererCustomColumns(t *testing.T) {
	defs, err := columns.Compute([]string{"holding_value", "ticker"}, nil)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, NewCSVRenderer().Render(&buf, sampleReport(), RenderOptions{Columns: defs}))
	assert.Equal(t, "Estimated Holding Value ($),Ticker\n2400.00,AAPL\nN/A,XYZ\n", buf.String())
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONRenderer().Render(&buf, sampleReport(), RenderOptions{PrettyJSON: true, Diagnostics: true}))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.Equal(t, 2400.0, got["total_estimated_value"])

	results := got["results"].([]any)
	require.Len(t, results, 2)
	xyz := results[1].(map[string]any)
	assert.Nil(t, xyz["value_per_share"])
	assert.Contains(t, xyz, "value_per_share")
	assert.Equal(t, "Unavailable", xyz["valuation"])
	assert.Equal(t, 42.5, xyz["market_price"])
	assert.Len(t, got["diagnostics"], 2)

	params := got["parameters"].(map[string]any)
	assert.Equal(t, 0.1, params["discount_rate"])
}

func TestJSONRendererOmitsDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONRenderer().Render(&buf, sampleReport(), RenderOptions{}))
	assert.NotContains(t, buf.String(), "diagnostics")
}

func TestTableRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableRenderer().Render(&buf, sampleReport(), RenderOptions{Diagnostics: true}))
	out := buf.String()
	upper := strings.ToUpper(out)

	assert.Contains(t, upper, "DCF VALUE PER SHARE ($)")
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "2,400.00")
	assert.Contains(t, out, "N/A")
	assert.Contains(t, upper, strings.ToUpper(TotalLabel))
	assert.Contains(t, out, "$2,400.00")
	assert.Contains(t, upper, "DIAGNOSTICS")
	assert.Contains(t, out, "no cash flow statement")
	assert.NotContains(t, out, "\x1b[")
}

func TestTableRendererSingleColumn(t *testing.T) {
	defs, err := columns.Compute([]string{"ticker"}, nil)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, NewTableRenderer().Render(&buf, sampleReport(), RenderOptions{Columns: defs}))
	assert.Contains(t, buf.String(), TotalLabel+": $2,400.00")
}

func TestTableRendererColor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableRenderer().Render(&buf, sampleReport(), RenderOptions{Color: true}))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestTotalRenderer(t *testing.T) {
	var buf bytes.Buffer
	rep := sampleReport()
	rep.Summary.TotalEstimatedValue = 1234567.891
	require.NoError(t, NewTotalRenderer().Render(&buf, rep, RenderOptions{}))
	assert.Equal(t, "$1,234,567.89\n", buf.String())
}

func TestRenderersHandleOverflowingHolding(t *testing.T) {
	rep := Report{
		Params:    valuation.DefaultParams(),
		Tolerance: 0.10,
		Summary: portfolio.Aggregate([]portfolio.Entry{{
			Holding:           types.Holding{Identifier: "BIG", Shares: 1e300},
			IntrinsicValue:    types.Float(1e12),
			SharesOutstanding: types.Float(1),
			MarketPrice:       types.Float(5e-324),
		}}, 0.10),
	}
	for _, f := range Formats {
		t.Run(f, func(t *testing.T) {
			r, err := ForFormat(f)
			require.NoError(t, err)
			var buf bytes.Buffer
			require.NotPanics(t, func() {
				err = r.Render(&buf, rep, RenderOptions{})
			})
			require.NoError(t, err)
			assert.NotEmpty(t, buf.String())
		})
	}

	var buf bytes.Buffer
	require.NoError(t, NewJSONRenderer().Render(&buf, rep, RenderOptions{}))
	var out JSONReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Nil(t, out.Results[0].HoldingValue)
	assert.Nil(t, out.Results[0].UpsidePercent)
}
