package types

import "math"

// Holding is one input row: an identifier and the number of shares held.
type Holding struct {
	Identifier string
	Shares     float64
}

// LineItem is a labelled statement row. Values are most recent first;
// a NaN marks a period that did not report the item.
type LineItem struct {
	Label  string
	Values []float64
}

// Latest returns the most recent value of the item.
func (li LineItem) Latest() (float64, bool) {
	if len(li.Values) == 0 || math.IsNaN(li.Values[0]) {
		return 0, false
	}
	return li.Values[0], true
}

// Statement is a cash-flow statement in its natural row order.
type Statement struct {
	Items []LineItem
}

// Empty reports whether s carries no line items.
func (s *Statement) Empty() bool {
	return s == nil || len(s.Items) == 0
}

// Quote contains current market figures for a symbol.
type Quote struct {
	Name  string
	Price *float64
}

// Fundamentals is what the FCF resolver and aggregator need from a provider.
type Fundamentals struct {
	Statement         *Statement
	SummaryFCF        *float64 // provider's aggregate free cash flow, if any
	SharesOutstanding *float64
}

// Flag is the valuation verdict of a holding.
type Flag int

const (
	FlagUnavailable Flag = iota
	FlagUndervalued
	FlagOvervalued
	FlagFairlyValued
)

func (f Flag) String() string {
	switch f {
	case FlagUndervalued:
		return "Undervalued"
	case FlagOvervalued:
		return "Overvalued"
	case FlagFairlyValued:
		return "Fairly Valued"
	default:
		return "Unavailable"
	}
}

// ParseFlag is the inverse of Flag.String. Unknown text is FlagUnavailable.
func ParseFlag(s string) Flag {
	for _, f := range []Flag{FlagUndervalued, FlagOvervalued, FlagFairlyValued} {
		if f.String() == s {
			return f
		}
	}
	return FlagUnavailable
}

// HoldingResult is the per-holding comparison. Nil pointers mean unavailable.
// Values are unrounded.
type HoldingResult struct {
	Identifier     string
	Shares         float64
	IntrinsicValue *float64
	ValuePerShare  *float64
	MarketPrice    *float64
	Difference     *float64
	UpsidePercent  *float64
	Flag           Flag
	HoldingValue   *float64
}

// Summary is the portfolio-level output, results in input order.
type Summary struct {
	Results             []HoldingResult
	TotalEstimatedValue float64
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
