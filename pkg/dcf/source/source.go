package source

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/stex99/dcf-tool/pkg/dcf/apperrors"
	"github.com/stex99/dcf-tool/pkg/dcf/types"
)

// Source loads an ordered batch of holdings from a location (a path, a
// run ID, ...).
type Source interface {
	Load(ctx context.Context, spec string) ([]types.Holding, error)
}

// ForPath picks a file source by extension. Directories are read as YAML.
func ForPath(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSVSource{}, nil
	case ".yaml", ".yml", "":
		return YAMLSource{}, nil
	default:
		return nil, fmt.Errorf("unsupported holdings file %s (want .csv, .yaml or .yml)", path)
	}
}

// Example is the portfolio used when no input is given.
func Example() []types.Holding {
	return []types.Holding{
		{Identifier: "AAPL", Shares: 20},
		{Identifier: "MSFT", Shares: 15},
		{Identifier: "GOOGL", Shares: 10},
		{Identifier: "NVDA", Shares: 8},
		{Identifier: "JNJ", Shares: 25},
	}
}

// Validate checks that every holding has an identifier and a positive share
// count. One bad row rejects the whole batch.
func Validate(hs []types.Holding) error {
	for i, h := range hs {
		if strings.TrimSpace(h.Identifier) == "" {
			return fmt.Errorf("%w: row %d: missing identifier", apperrors.ErrMalformedInput, i+1)
		}
		if !(h.Shares > 0) || math.IsInf(h.Shares, 0) {
			return fmt.Errorf("%w: row %d (%s): shares must be a positive number, got %v", apperrors.ErrMalformedInput, i+1, h.Identifier, h.Shares)
		}
	}
	return nil
}
