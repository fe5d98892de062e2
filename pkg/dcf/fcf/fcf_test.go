package fcf

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stex99/dcf-tool/pkg/dcf/diag"
	"github.com/stex99/dcf-tool/pkg/dcf/types"
)

func statement(rows ...any) *types.Statement {
	st := &types.Statement{}
	for i := 0; i < len(rows); i += 2 {
		st.Items = append(st.Items, types.LineItem{Label: rows[i].(string), Values: rows[i+1].([]float64)})
	}
	return st
}

func TestResolveFromStatement(t *testing.T) {
	log := diag.NewLog()
	r := New(Labels{}, log)

	st := statement(
		"Net Income", []float64{90},
		"Total Cash From Operating Activities", []float64{120, 100},
		"Capital Expenditures", []float64{-30, -25},
	)
	res := r.Resolve("AAPL", st, types.Float(999))

	require.NotNil(t, res.Value)
	assert.Equal(t, 90.0, *res.Value)
	assert.Equal(t, diag.MethodStatement, res.Method)
	assert.Equal(t, "Total Cash From Operating Activities", res.OCF.Label)

	entries := log.For("AAPL")
	require.Len(t, entries, 1)
	assert.Equal(t, diag.MethodStatement, entries[0].Method)
	assert.Equal(t, -30.0, *entries[0].CapEx)
}

func TestResolveIgnoresCase(t *testing.T) {
	r := New(Labels{}, nil)
	upper := statement(
		"Total Cash From Operating Activities", []float64{50},
		"Capital Expenditures", []float64{-10},
	)
	lower := statement(
		"total cash from operating activities", []float64{50},
		"capital expenditures", []float64{-10},
	)
	a := r.Resolve("X", upper, nil)
	b := r.Resolve("X", lower, nil)
	require.NotNil(t, a.Value)
	require.NotNil(t, b.Value)
	assert.Equal(t, *a.Value, *b.Value)
	assert.Equal(t, a.Method, b.Method)
}

func TestResolveSynonymFallback(t *testing.T) {
	r := New(Labels{}, nil)
	st := statement(
		"Operating Cash Flow", []float64{400},
		"Capital Expenditures - Fixed Assets", []float64{-150},
	)
	res := r.Resolve("MSFT", st, nil)
	require.NotNil(t, res.Value)
	assert.Equal(t, 250.0, *res.Value)
	assert.Equal(t, "Operating Cash Flow", res.OCF.Label)
	assert.Equal(t, "Capital Expenditures - Fixed Assets", res.CapEx.Label)
}

func TestResolveCandidatePriorityBeatsStatementOrder(t *testing.T) {
	r := New(Labels{}, nil)
	// "Operating Cash Flow" appears first in the statement but the
	// higher-priority candidate wins.
	st := statement(
		"Operating Cash Flow", []float64{1},
		"Total Cash From Operating Activities", []float64{2},
		"Capital Expenditures", []float64{0},
	)
	res := r.Resolve("X", st, nil)
	require.NotNil(t, res.Value)
	assert.Equal(t, 2.0, *res.Value)
}

func TestResolveTieUsesStatementOrder(t *testing.T) {
	r := New(Labels{}, nil)
	st := statement(
		"Operating Cash Flow (restated)", []float64{7},
		"Operating Cash Flow", []float64{5},
		"Capital Expenditures", []float64{-1},
	)
	res := r.Resolve("X", st, nil)
	require.NotNil(t, res.Value)
	assert.Equal(t, 6.0, *res.Value)
	assert.Equal(t, "Operating Cash Flow (restated)", res.OCF.Label)
}

func TestResolveSkipsMissingLatestPeriod(t *testing.T) {
	r := New(Labels{}, nil)
	st := statement(
		"Total Cash From Operating Activities", []float64{math.NaN(), 80},
		"Operating Cash Flow", []float64{70},
		"Capital Expenditures", []float64{-20},
	)
	res := r.Resolve("X", st, nil)
	require.NotNil(t, res.Value)
	assert.Equal(t, 50.0, *res.Value)
}

func TestResolveFallsBackToSummary(t *testing.T) {
	log := diag.NewLog()
	r := New(Labels{}, log)
	st := statement("Operating Cash Flow", []float64{100})

	res := r.Resolve("GOOGL", st, types.Float(42))
	require.NotNil(t, res.Value)
	assert.Equal(t, 42.0, *res.Value)
	assert.Equal(t, diag.MethodSummary, res.Method)
	assert.Equal(t, "capital expenditures not found", log.Entries()[0].Message)
}

func TestResolveEmptyStatement(t *testing.T) {
	r := New(Labels{}, nil)

	res := r.Resolve("X", nil, nil)
	assert.Nil(t, res.Value)
	assert.Equal(t, diag.MethodUnavailable, res.Method)

	log := diag.NewLog()
	r = New(Labels{}, log)
	res = r.Resolve("X", &types.Statement{}, types.Float(1e6))
	assert.Nil(t, res.Value, "summary is only a fallback for a statement lacking a quantity")
	assert.Equal(t, diag.MethodUnavailable, res.Method)

	res = r.Resolve("Y", nil, types.Float(1e6))
	assert.Nil(t, res.Value)
	assert.Equal(t, "no cash flow statement", log.Entries()[1].Message)
}

func TestResolveNothingFound(t *testing.T) {
	r := New(Labels{}, nil)
	res := r.Resolve("X", statement("Revenue", []float64{1}), nil)
	assert.Nil(t, res.Value)
	assert.Equal(t, diag.MethodUnavailable, res.Method)
}

func TestCustomLabels(t *testing.T) {
	r := New(Labels{OperatingCashFlow: []string{"cfo"}}, nil)
	st := statement(
		"CFO", []float64{10},
		"Capital Expenditure", []float64{-4},
	)
	res := r.Resolve("X", st, nil)
	require.NotNil(t, res.Value)
	assert.Equal(t, 6.0, *res.Value)
	assert.Equal(t, DefaultLabels().CapitalExpenditures, r.Labels.CapitalExpenditures)
}

func TestUnavailableRecordsRetrievalError(t *testing.T) {
	log := diag.NewLog()
	r := New(Labels{}, log)
	r.RunID = "run-1"
	res := r.Unavailable("BAD", errors.New("404"))
	assert.Nil(t, res.Value)

	e := log.Entries()
	require.Len(t, e, 1)
	assert.Equal(t, diag.MethodRetrieval, e[0].Method)
	assert.Equal(t, "404", e[0].Message)
	assert.Equal(t, "run-1", e[0].RunID)
}
