package pipeline

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/stex99/dcf-tool/pkg/dcf/columns"
	"github.com/stex99/dcf-tool/pkg/dcf/filter"
	"github.com/stex99/dcf-tool/pkg/dcf/render"
	"github.com/stex99/dcf-tool/pkg/dcf/source"
	"github.com/stex99/dcf-tool/pkg/dcf/types"
)

// Runner loads holdings, analyses them and renders the report.
type Runner struct {
	Source   source.Source // nil or an empty spec uses the example portfolio
	Analyzer *Analyzer
	Renderer render.Renderer
	Writer   io.Writer
	Log      *zap.SugaredLogger
}

type ExecuteOptions struct {
	Options
	Columns     []columns.Def
	Filter      filter.Filter
	Color       bool
	PrettyJSON  bool
	Diagnostics bool
	MaxColWidth int
	TermWidth   int
}

func (r *Runner) Execute(ctx context.Context, spec string, opts ExecuteOptions) (*Result, error) {
	log := r.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if err := opts.Options.Validate(); err != nil {
		return nil, err
	}

	var hs []types.Holding
	if r.Source == nil || spec == "" {
		log.Infow("no portfolio given, using example holdings")
		hs = source.Example()
	} else {
		var err error
		if hs, err = r.Source.Load(ctx, spec); err != nil {
			return nil, err
		}
	}

	// Apply holding filter
	if opts.Filter != nil {
		var skipped []string
		hs, skipped = filter.Select(hs, opts.Filter)
		if len(skipped) > 0 {
			log.Infow("holdings excluded by filter", "skipped", skipped)
		}
	}

	res, err := r.Analyzer.Analyze(ctx, hs, opts.Options)
	if err != nil {
		return nil, err
	}

	return res, r.Renderer.Render(r.Writer, res.Report(), render.RenderOptions{
		Columns:     opts.Columns,
		Color:       opts.Color,
		PrettyJSON:  opts.PrettyJSON,
		Diagnostics: opts.Diagnostics,
		MaxColWidth: opts.MaxColWidth,
		TermWidth:   opts.TermWidth,
	})
}

// Report converts a result for rendering.
func (res *Result) Report() render.Report {
	return render.Report{
		RunID:       res.RunID,
		Params:      res.Options.Params,
		Tolerance:   res.Options.Tolerance,
		Summary:     res.Summary,
		Diagnostics: res.Diagnostics,
	}
}
