package filter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/stex99/dcf-tool/pkg/dcf/types"
)

// Filter matches a holding identifier.
type Filter interface {
	Match(identifier string) bool
}

// Parse builds a filter from an expression. Matching ignores case.
// - Comma-separated tickers: "AAPL,MSFT"
// - Glob: "GOO*"
// - Regex: "/^(AAPL|NV)/"
// - Substring: "~oo"
// - A single ticker: "JNJ"
// A leading "!" negates any of the above.
func Parse(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Always(true), nil
	}
	if strings.HasPrefix(expr, "!") {
		inner, err := Parse(expr[1:])
		if err != nil {
			return nil, err
		}
		return Not{inner}, nil
	}
	if strings.HasPrefix(expr, "/") && strings.HasSuffix(expr, "/") && len(expr) > 2 {
		re, err := regexp.Compile("(?i)" + expr[1:len(expr)-1])
		if err != nil {
			return nil, fmt.Errorf("bad filter %q: %w", expr, err)
		}
		return Regex{re: re}, nil
	}
	if strings.Contains(expr, ",") {
		set := map[string]struct{}{}
		for _, p := range strings.Split(expr, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			set[strings.ToUpper(p)] = struct{}{}
		}
		return ExactSet{set: set}, nil
	}
	if strings.ContainsAny(expr, "*?[") {
		pattern := strings.ToUpper(expr)
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("bad filter %q: %w", expr, err)
		}
		return Glob{pattern: pattern}, nil
	}
	if strings.HasPrefix(expr, "~") {
		return SubstrCI{needle: expr[1:]}, nil
	}
	return Exact{value: strings.ToUpper(expr)}, nil
}

// Select keeps the holdings f matches, in input order, and returns the
// identifiers it left out.
func Select(hs []types.Holding, f Filter) (kept []types.Holding, skipped []string) {
	kept = make([]types.Holding, 0, len(hs))
	for _, h := range hs {
		if f.Match(h.Identifier) {
			kept = append(kept, h)
		} else {
			skipped = append(skipped, h.Identifier)
		}
	}
	return kept, skipped
}

// Implementations

type Always bool

func (a Always) Match(string) bool { return bool(a) }

type Not struct{ inner Filter }

func (n Not) Match(id string) bool { return !n.inner.Match(id) }

type Exact struct{ value string }

func (e Exact) Match(id string) bool { return strings.ToUpper(id) == e.value }

type ExactSet struct{ set map[string]struct{} }

func (e ExactSet) Match(id string) bool {
	_, ok := e.set[strings.ToUpper(id)]
	return ok
}

type Glob struct{ pattern string }

func (g Glob) Match(id string) bool {
	ok, _ := filepath.Match(g.pattern, strings.ToUpper(id))
	return ok
}

type Regex struct{ re *regexp.Regexp }

func (r Regex) Match(id string) bool { return r.re.MatchString(id) }

// String provides a human-readable representation useful for logs/errors.
func (g Glob) String() string  { return fmt.Sprintf("glob:%s", g.pattern) }
func (e Exact) String() string { return fmt.Sprintf("exact:%s", e.value) }

// SubstrCI matches if the identifier contains needle, case-insensitively.
type SubstrCI struct{ needle string }

func (s SubstrCI) Match(id string) bool {
	if s.needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(id), strings.ToLower(s.needle))
}

func (s SubstrCI) String() string { return fmt.Sprintf("substr-ci:%s", s.needle) }
