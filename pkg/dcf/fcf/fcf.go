package fcf

import (
	"strings"

	"github.com/stex99/dcf-tool/pkg/dcf/diag"
	"github.com/stex99/dcf-tool/pkg/dcf/types"
)

// Labels holds the candidate statement labels for each quantity, highest
// priority first. Matching is a case-insensitive substring test.
type Labels struct {
	OperatingCashFlow   []string `mapstructure:"operating_cash_flow" yaml:"operating_cash_flow"`
	CapitalExpenditures []string `mapstructure:"capital_expenditures" yaml:"capital_expenditures"`
}

// DefaultLabels covers the Yahoo quoteSummary keys (once humanised), the
// Yahoo web statement rows and common filing captions.
func DefaultLabels() Labels {
	return Labels{
		OperatingCashFlow: []string{
			"Total Cash From Operating Activities",
			"Operating Cash Flow",
			"Cash Flow From Continuing Operating Activities",
			"Net Cash Provided By Operating Activities",
		},
		CapitalExpenditures: []string{
			"Capital Expenditures",
			"Capital Expenditure",
			"Purchase Of PPE",
			"Purchases Of Property And Equipment",
		},
	}
}

// Merge returns l with empty lists filled from d.
func (l Labels) Merge(d Labels) Labels {
	if len(l.OperatingCashFlow) == 0 {
		l.OperatingCashFlow = d.OperatingCashFlow
	}
	if len(l.CapitalExpenditures) == 0 {
		l.CapitalExpenditures = d.CapitalExpenditures
	}
	return l
}

// Match is a resolved statement quantity.
type Match struct {
	Label string
	Value float64
}

// Result is the outcome of a resolution. Value is nil when unavailable.
type Result struct {
	Value  *float64
	Method diag.Method
	OCF    *Match
	CapEx  *Match
}

// Resolver turns statement data into a free-cash-flow figure.
type Resolver struct {
	Labels Labels
	Sink   diag.Sink
	RunID  string
}

// New returns a resolver with the given labels; empty lists use defaults.
func New(labels Labels, sink diag.Sink) *Resolver {
	if sink == nil {
		sink = diag.Discard
	}
	return &Resolver{Labels: labels.Merge(DefaultLabels()), Sink: sink}
}

// Resolve computes FCF = operating cash flow + capital expenditures from the
// most recent period of st. An absent or empty statement is unavailable.
// When either quantity is missing from a statement it falls back to summary;
// with no summary the result is unavailable.
func (r *Resolver) Resolve(identifier string, st *types.Statement, summary *float64) Result {
	var res Result
	if !st.Empty() {
		res.OCF = find(st, r.Labels.OperatingCashFlow)
		res.CapEx = find(st, r.Labels.CapitalExpenditures)
	}

	switch {
	case st.Empty():
		res.Method = diag.MethodUnavailable
	case res.OCF != nil && res.CapEx != nil:
		v := res.OCF.Value + res.CapEx.Value
		res.Value = &v
		res.Method = diag.MethodStatement
	case summary != nil:
		v := *summary
		res.Value = &v
		res.Method = diag.MethodSummary
	default:
		res.Method = diag.MethodUnavailable
	}

	r.record(identifier, res, message(st, res))
	return res
}

// Unavailable records a retrieval failure for identifier and returns an
// unavailable result.
func (r *Resolver) Unavailable(identifier string, err error) Result {
	res := Result{Method: diag.MethodRetrieval}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	r.record(identifier, res, msg)
	return res
}

func (r *Resolver) record(identifier string, res Result, msg string) {
	e := diag.Entry{
		RunID:      r.RunID,
		Identifier: identifier,
		Method:     res.Method,
		FCF:        res.Value,
		Message:    msg,
	}
	if res.OCF != nil {
		e.OCF, e.OCFLabel = types.Float(res.OCF.Value), res.OCF.Label
	}
	if res.CapEx != nil {
		e.CapEx, e.CapExLabel = types.Float(res.CapEx.Value), res.CapEx.Label
	}
	r.Sink.Record(e)
}

func message(st *types.Statement, res Result) string {
	if res.Method == diag.MethodStatement {
		return ""
	}
	switch {
	case st.Empty():
		return "no cash flow statement"
	case res.OCF == nil && res.CapEx == nil:
		return "operating cash flow and capital expenditures not found"
	case res.OCF == nil:
		return "operating cash flow not found"
	case res.CapEx == nil:
		return "capital expenditures not found"
	}
	return ""
}

// find returns the first candidate, in priority order, that occurs in some
// label; among labels matching that candidate the first in statement order
// wins. Items without a latest value are skipped.
func find(st *types.Statement, candidates []string) *Match {
	for _, c := range candidates {
		needle := strings.ToLower(strings.TrimSpace(c))
		if needle == "" {
			continue
		}
		for _, it := range st.Items {
			if !strings.Contains(strings.ToLower(it.Label), needle) {
				continue
			}
			v, ok := it.Latest()
			if !ok {
				continue
			}
			return &Match{Label: it.Label, Value: v}
		}
	}
	return nil
}
