package columns

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// DefaultSet is used when neither columns nor sets are requested.
const DefaultSet = "valuation"

// Sets defines named column groups that expand into lists of columns.
// - "valuation": the exported valuation table
// - "market": identifiers and prices only
// - "all": every registered column
var Sets = map[string][]string{
	"valuation": {
		"ticker",
		"shares",
		"value_per_share",
		"market_price",
		"difference",
		"upside",
		"valuation",
		"holding_value",
	},
	"market": {"ticker", "shares", "market_price"},
}

func init() {
	Sets["all"] = append([]string(nil), Order...)
}

// ExpandSets concatenates the named sets in order, keeping the first
// occurrence of a column that appears in several. Set names are
// case-insensitive.
func ExpandSets(setNames []string) ([]string, error) {
	var out []string
	for _, name := range setNames {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		cols, ok := Sets[name]
		if !ok {
			return nil, &UnknownSetError{Name: name, Available: availableSets()}
		}
		for _, c := range cols {
			if !slices.Contains(out, c) {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

// UnknownSetError reports an unknown column set name.
type UnknownSetError struct {
	Name      string
	Available []string
}

func (e *UnknownSetError) Error() string {
	return fmt.Sprintf("unknown column set %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

func availableSets() []string {
	return slices.Sorted(maps.Keys(Sets))
}
