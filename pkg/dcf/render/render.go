package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/stex99/dcf-tool/pkg/dcf/columns"
	"github.com/stex99/dcf-tool/pkg/dcf/diag"
	"github.com/stex99/dcf-tool/pkg/dcf/types"
	"github.com/stex99/dcf-tool/pkg/dcf/valuation"
)

// Report is everything a renderer may show about one run.
type Report struct {
	RunID       string
	Params      valuation.Params
	Tolerance   float64
	Summary     types.Summary
	Diagnostics []diag.Entry
}

// Renderer renders a run report to an output writer.
type Renderer interface {
	Render(w io.Writer, rep Report, opts RenderOptions) error
}

type RenderOptions struct {
	Columns     []columns.Def
	Color       bool
	PrettyJSON  bool
	Diagnostics bool
	MaxColWidth int
	TermWidth   int
}

// Formats lists the accepted --format values.
var Formats = []string{"table", "json", "csv", "total"}

// ForFormat returns the renderer for a format name.
func ForFormat(name string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "table":
		return NewTableRenderer(), nil
	case "json":
		return NewJSONRenderer(), nil
	case "csv":
		return NewCSVRenderer(), nil
	case "total":
		return NewTotalRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want %s)", name, strings.Join(Formats, ", "))
	}
}

func defsOrDefault(defs []columns.Def) ([]columns.Def, error) {
	if len(defs) > 0 {
		return defs, nil
	}
	return columns.Compute(nil, nil)
}
