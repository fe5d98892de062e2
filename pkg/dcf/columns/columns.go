package columns

import (
	"math"
	"sort"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/stex99/dcf-tool/pkg/dcf/types"
)

// NA is written wherever a value is unavailable.
const NA = "N/A"

// Currency of every monetary column.
const Currency = "USD"

// Def describes one output column.
type Def struct {
	Key     string
	Header  string
	Numeric bool
	Value   func(r types.HoldingResult) string
}

// Registry maps column keys to definitions.
var Registry = map[string]Def{}

// Order is the canonical column order, used by the "all" set.
var Order []string

func register(d Def) {
	Registry[d.Key] = d
	Order = append(Order, d.Key)
}

func init() {
	register(Def{Key: "ticker", Header: "Ticker", Value: func(r types.HoldingResult) string {
		return r.Identifier
	}})
	register(Def{Key: "shares", Header: "Shares", Numeric: true, Value: func(r types.HoldingResult) string {
		return decimal.NewFromFloat(r.Shares).String()
	}})
	register(Def{Key: "intrinsic_value", Header: "Intrinsic Value ($)", Numeric: true, Value: func(r types.HoldingResult) string {
		return Round2(r.IntrinsicValue)
	}})
	register(Def{Key: "value_per_share", Header: "DCF Value per Share ($)", Numeric: true, Value: func(r types.HoldingResult) string {
		return Round2(r.ValuePerShare)
	}})
	register(Def{Key: "market_price", Header: "Market Price ($)", Numeric: true, Value: func(r types.HoldingResult) string {
		return Round2(r.MarketPrice)
	}})
	register(Def{Key: "difference", Header: "Difference ($)", Numeric: true, Value: func(r types.HoldingResult) string {
		return Round2(r.Difference)
	}})
	register(Def{Key: "upside", Header: "Upside/Downside (%)", Numeric: true, Value: func(r types.HoldingResult) string {
		return Round2(r.UpsidePercent)
	}})
	register(Def{Key: "valuation", Header: "Valuation", Value: func(r types.HoldingResult) string {
		if r.Flag == types.FlagUnavailable {
			return NA
		}
		return r.Flag.String()
	}})
	register(Def{Key: "holding_value", Header: "Estimated Holding Value ($)", Numeric: true, Value: func(r types.HoldingResult) string {
		return Round2(r.HoldingValue)
	}})
}

// Canonical maps a key, alias or header (any case) to its registry key.
func Canonical(name string) (string, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if _, ok := Registry[n]; ok {
		return n, true
	}
	switch n {
	case "sym", "symbol", "identifier":
		return "ticker", true
	case "vps", "dcf":
		return "value_per_share", true
	case "price":
		return "market_price", true
	case "diff":
		return "difference", true
	case "upside%", "upside_percent":
		return "upside", true
	case "flag":
		return "valuation", true
	case "iv":
		return "intrinsic_value", true
	}
	for k, d := range Registry {
		if strings.ToLower(d.Header) == n {
			return k, true
		}
	}
	return "", false
}

// Compute determines the final columns from an explicit list, else from the
// named sets, else the "valuation" set. Duplicates keep their first position.
func Compute(explicit, sets []string) ([]Def, error) {
	keys := explicit
	if len(keys) == 0 {
		if len(sets) == 0 {
			sets = []string{DefaultSet}
		}
		var err error
		if keys, err = ExpandSets(sets); err != nil {
			return nil, err
		}
	}

	seen := map[string]struct{}{}
	out := make([]Def, 0, len(keys))
	for _, k := range keys {
		if strings.TrimSpace(k) == "" {
			continue
		}
		key, ok := Canonical(k)
		if !ok {
			return nil, &UnknownColumnError{Name: k, Available: available()}
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, Registry[key])
	}
	return out, nil
}

// Headers returns the header row for defs.
func Headers(defs []Def) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Header
	}
	return out
}

// Row renders r for defs.
func Row(defs []Def, r types.HoldingResult) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Value(r)
	}
	return out
}

// UnknownColumnError reports an unknown column name.
type UnknownColumnError struct {
	Name      string
	Available []string
}

func (e *UnknownColumnError) Error() string {
	return "unknown column: " + e.Name + "; available: " + strings.Join(e.Available, ", ")
}

func available() []string {
	keys := make([]string, 0, len(Registry))
	for k := range Registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Round2 formats v with exactly two decimals, half away from zero, or NA
// when v is missing or not finite.
func Round2(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return NA
	}
	return decimal.NewFromFloat(*v).StringFixed(2)
}

// Money formats an amount as USD with thousands separators, e.g. "$1,234.57",
// or NA when it is not finite.
func Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NA
	}
	cur := money.GetCurrency(Currency)
	amount := decimal.NewFromFloat(v).Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return money.New(amount.IntPart(), Currency).Display()
}

// Group inserts thousands separators into the integer part of a plain
// decimal string, keeping its fraction digits. NA and other non-numeric text
// pass through.
func Group(s string) string {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
	}
	frac := ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		frac = s[dot:]
	}
	return sign + humanize.BigComma(d.Abs().BigInt()) + frac
}
