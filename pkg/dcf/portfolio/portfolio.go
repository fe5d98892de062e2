package portfolio

import (
	"math"

	"github.com/stex99/dcf-tool/pkg/dcf/types"
)

// Entry is everything known about one holding once data has been fetched.
type Entry struct {
	Holding           types.Holding
	IntrinsicValue    *float64
	SharesOutstanding *float64
	MarketPrice       *float64
}

// Evaluate builds the comparison record of a single holding.
func Evaluate(e Entry, tolerance float64) types.HoldingResult {
	r := types.HoldingResult{
		Identifier:     e.Holding.Identifier,
		Shares:         e.Holding.Shares,
		IntrinsicValue: e.IntrinsicValue,
	}
	if positive(e.MarketPrice) {
		r.MarketPrice = types.Float(*e.MarketPrice)
	}
	// Derived values that overflow float64 are unavailable like missing ones.
	if e.IntrinsicValue != nil && positive(e.SharesOutstanding) {
		r.ValuePerShare = finite(*e.IntrinsicValue / *e.SharesOutstanding)
	}
	if r.ValuePerShare != nil {
		r.HoldingValue = finite(*r.ValuePerShare * e.Holding.Shares)
	}
	if r.ValuePerShare != nil && r.MarketPrice != nil {
		if r.Difference = finite(*r.ValuePerShare - *r.MarketPrice); r.Difference != nil {
			r.UpsidePercent = finite(*r.Difference / *r.MarketPrice * 100)
		}
	}
	r.Flag = Flag(r.ValuePerShare, r.MarketPrice, tolerance)
	return r
}

// Flag compares value per share with the market price at the given
// tolerance band.
func Flag(valuePerShare, marketPrice *float64, tolerance float64) types.Flag {
	if valuePerShare == nil || !positive(marketPrice) {
		return types.FlagUnavailable
	}
	rel := (*valuePerShare - *marketPrice) / *marketPrice
	switch {
	case rel > tolerance:
		return types.FlagUndervalued
	case rel < -tolerance:
		return types.FlagOvervalued
	default:
		return types.FlagFairlyValued
	}
}

// Aggregate evaluates every entry in order and sums the present holding
// values. Absent values add nothing to the total.
func Aggregate(entries []Entry, tolerance float64) types.Summary {
	s := types.Summary{Results: make([]types.HoldingResult, 0, len(entries))}
	for _, e := range entries {
		r := Evaluate(e, tolerance)
		s.Results = append(s.Results, r)
	}
	s.TotalEstimatedValue = Total(s.Results)
	return s
}

// Total sums the unrounded holding values that are present. A sum beyond
// the float64 range saturates at ±math.MaxFloat64.
func Total(results []types.HoldingResult) float64 {
	var total float64
	for _, r := range results {
		if r.HoldingValue != nil {
			total += *r.HoldingValue
		}
	}
	switch {
	case math.IsInf(total, 1):
		return math.MaxFloat64
	case math.IsInf(total, -1):
		return -math.MaxFloat64
	}
	return total
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func positive(v *float64) bool {
	return v != nil && *v > 0 && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
