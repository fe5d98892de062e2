package market

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/PaesslerAG/jsonpath"

	"github.com/stex99/dcf-tool/pkg/dcf/apperrors"
	"github.com/stex99/dcf-tool/pkg/dcf/types"
)

const (
	pathResults           = "$.quoteSummary.result"
	pathResult            = "$.quoteSummary.result[0]"
	pathError             = "$.quoteSummary.error.description"
	pathSharesOutstanding = "$.defaultKeyStatistics.sharesOutstanding.raw"
	pathFreeCashflow      = "$.financialData.freeCashflow.raw"
	pathCashflowPeriods   = "$.cashflowStatementHistory.cashflowStatements"
)

// Keys of a cash-flow period that are not line items.
var skipKeys = map[string]bool{"maxAge": true, "endDate": true}

// ParseQuoteSummary extracts fundamentals from a quoteSummary response. It
// accepts either the full envelope or a single result object.
func ParseQuoteSummary(data []byte) (types.Fundamentals, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return types.Fundamentals{}, fmt.Errorf("decode quote summary: %w", err)
	}
	if msg, err := jsonpath.Get(pathError, doc); err == nil {
		if s, ok := msg.(string); ok && s != "" {
			return types.Fundamentals{}, fmt.Errorf("quote summary: %s", s)
		}
	}

	if rs, err := jsonpath.Get(pathResults, doc); err == nil {
		if l, _ := rs.([]any); len(l) == 0 {
			return types.Fundamentals{}, fmt.Errorf("quote summary: empty result: %w", apperrors.ErrDataUnavailable)
		}
	}

	root := doc
	if r, err := jsonpath.Get(pathResult, doc); err == nil && r != nil {
		root = r
	}

	return types.Fundamentals{
		Statement:         cashflowStatement(root, periodKeys(data)),
		SummaryFCF:        number(root, pathFreeCashflow),
		SharesOutstanding: number(root, pathSharesOutstanding),
	}, nil
}

// cashflowStatement builds one line item per key found in any period. Periods
// arrive most recent first. Line items follow order, the keys as they appear
// in the document; keys missing from order are appended sorted.
func cashflowStatement(root any, order []string) *types.Statement {
	v, err := jsonpath.Get(pathCashflowPeriods, root)
	if err != nil {
		return nil
	}
	periods, ok := v.([]any)
	if !ok || len(periods) == 0 {
		return nil
	}

	seen := map[string]bool{}
	var keys, rest []string
	for _, k := range order {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for _, p := range periods {
		m, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for k := range m {
			if skipKeys[k] || seen[k] {
				continue
			}
			seen[k] = true
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	st := &types.Statement{}
	for _, k := range keys {
		values := make([]float64, len(periods))
		for i, p := range periods {
			values[i] = math.NaN()
			if f := number(p, "$."+k+".raw"); f != nil {
				values[i] = *f
			}
		}
		st.Items = append(st.Items, types.LineItem{Label: Humanize(k), Values: values})
	}
	return st
}

// Token walk states for periodKeys.
const (
	walkOther = iota
	walkPeriods
	walkPeriod
)

// periodKeys walks data token by token and returns the keys of every
// cash-flow period object in document order, first occurrence wins. It
// returns what it collected so far if data is malformed.
func periodKeys(data []byte) []string {
	dec := json.NewDecoder(bytes.NewReader(data))
	seen := map[string]bool{}
	var keys []string

	var walk func(state int) error
	walk = func(state int) error {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		d, ok := tok.(json.Delim)
		if !ok {
			return nil
		}
		switch d {
		case '[':
			child := walkOther
			if state == walkPeriods {
				child = walkPeriod
			}
			for dec.More() {
				if err := walk(child); err != nil {
					return err
				}
			}
		case '{':
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return err
				}
				k, _ := kt.(string)
				child := walkOther
				switch {
				case state == walkPeriod:
					if !skipKeys[k] && !seen[k] {
						seen[k] = true
						keys = append(keys, k)
					}
				case k == "cashflowStatements":
					child = walkPeriods
				}
				if err := walk(child); err != nil {
					return err
				}
			}
		}
		// closing delimiter
		_, err = dec.Token()
		return err
	}

	_ = walk(walkOther)
	return keys
}

// number reads a numeric value at path, or nil.
func number(v any, path string) *float64 {
	got, err := jsonpath.Get(path, v)
	if err != nil {
		return nil
	}
	// jsonpath may wrap a single answer in a list
	if l, ok := got.([]any); ok {
		if len(l) == 0 {
			return nil
		}
		got = l[0]
	}
	switch n := got.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil
		}
		return types.Float(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil
		}
		return types.Float(f)
	default:
		return nil
	}
}

// Humanize turns a camelCase key into a title-cased label:
// "purchaseOfPPE" -> "Purchase Of PPE".
func Humanize(key string) string {
	rs := []rune(key)
	var b strings.Builder
	for i, r := range rs {
		if i > 0 && unicode.IsUpper(r) {
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte(' ')
			}
		}
		if i == 0 {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
