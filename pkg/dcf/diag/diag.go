// Package diag records how each holding's free cash flow was obtained.
//
// Entries are for the user's benefit: they explain why a row is N/A or which
// statement labels were used. Nothing in the engine reads them back.
package diag

import (
	"sync"

	"go.uber.org/zap"
)

// Method names how a free-cash-flow figure was produced.
type Method string

const (
	MethodStatement   Method = "statement"
	MethodSummary     Method = "summary"
	MethodUnavailable Method = "unavailable"
	MethodRetrieval   Method = "retrieval-error"
)

// Entry is one diagnostic record.
type Entry struct {
	RunID      string   `json:"run_id,omitempty"`
	Identifier string   `json:"identifier"`
	Method     Method   `json:"method"`
	OCF        *float64 `json:"operating_cash_flow"`
	OCFLabel   string   `json:"operating_cash_flow_label,omitempty"`
	CapEx      *float64 `json:"capital_expenditures"`
	CapExLabel string   `json:"capital_expenditures_label,omitempty"`
	FCF        *float64 `json:"free_cash_flow"`
	Message    string   `json:"message,omitempty"`
}

// Sink is an append-only destination for entries. Implementations must be
// safe for concurrent use.
type Sink interface {
	Record(Entry)
}

// Discard drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Record(Entry) {}

// Log keeps entries in memory in arrival order.
type Log struct {
	mu      sync.Mutex
	entries []Entry
}

func NewLog() *Log { return &Log{} }

func (l *Log) Record(e Entry) {
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
}

// Entries returns a copy of the recorded entries.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// For returns the entries of one identifier.
func (l *Log) For(identifier string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Entry
	for _, e := range l.entries {
		if e.Identifier == identifier {
			out = append(out, e)
		}
	}
	return out
}

// ZapSink mirrors entries to a logger at debug level, warnings for
// unavailable figures.
type ZapSink struct {
	Log *zap.SugaredLogger
}

func (z ZapSink) Record(e Entry) {
	kv := []any{"symbol", e.Identifier, "method", string(e.Method)}
	if e.OCF != nil {
		kv = append(kv, "ocf", *e.OCF, "ocf_label", e.OCFLabel)
	}
	if e.CapEx != nil {
		kv = append(kv, "capex", *e.CapEx, "capex_label", e.CapExLabel)
	}
	if e.FCF != nil {
		kv = append(kv, "fcf", *e.FCF)
	}
	if e.Message != "" {
		kv = append(kv, "detail", e.Message)
	}
	switch e.Method {
	case MethodUnavailable, MethodRetrieval:
		z.Log.Warnw("free cash flow unavailable", kv...)
	default:
		z.Log.Debugw("free cash flow resolved", kv...)
	}
}

// Tee fans entries out to several sinks.
type Tee []Sink

func (t Tee) Record(e Entry) {
	for _, s := range t {
		s.Record(e)
	}
}
