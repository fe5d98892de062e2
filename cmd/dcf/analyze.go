package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/stex99/dcf-tool/pkg/dcf/columns"
	"github.com/stex99/dcf-tool/pkg/dcf/filter"
	"github.com/stex99/dcf-tool/pkg/dcf/pipeline"
	"github.com/stex99/dcf-tool/pkg/dcf/render"
	"github.com/stex99/dcf-tool/pkg/dcf/source"
)

type analyzeFlags struct {
	format      string
	columns     []string
	sets        []string
	only        string
	rerun       string
	diagnostics bool
	color       string
	pretty      bool
	maxColWidth int
}

func newAnalyzeCmd(e *env) *cobra.Command {
	var fl analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze [portfolio.csv|portfolio.yaml|dir]",
		Short: "Value every holding of a portfolio",
		Long: "Value every holding of a portfolio with a discounted cash flow model.\n" +
			"Without an argument the built-in example portfolio is used.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return errors.New("accepts at most 1 portfolio argument")
			}
			if len(args) == 1 && fl.rerun != "" {
				return errors.New("--rerun cannot be combined with a portfolio argument")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, e, fl, args)
		},
	}

	f := cmd.Flags()
	f.Float64("discount", 10, "discount rate in percent")
	f.Float64("growth", 5, "growth rate in percent")
	f.Int("years", 5, "projection horizon in years")
	f.Float64("tolerance", 10, "fair value band in percent")
	f.Int("workers", pipeline.DefaultWorkers, "concurrent fetches")
	f.Duration("timeout", pipeline.DefaultTimeout, "timeout per market data request")
	f.String("statements", "yahoo", "cash flow statement source (yahoo or scrape)")
	f.StringVarP(&fl.format, "format", "f", "table", fmt.Sprintf("output format (%s)", strings.Join(render.Formats, ", ")))
	f.StringSliceVarP(&fl.columns, "columns", "c", nil, "columns to show, comma separated")
	f.StringSliceVar(&fl.sets, "set", nil, "named column sets (valuation, market, all)")
	f.StringVar(&fl.only, "only", "", "holding filter: AAPL,MSFT | 'A*' | ~sub | /re/ | !expr")
	f.StringVar(&fl.rerun, "rerun", "", "re-value the holdings of an archived run")
	f.BoolVar(&fl.diagnostics, "diagnostics", false, "show how each free cash flow was derived")
	f.StringVar(&fl.color, "color", "auto", "colour output (auto, always, never)")
	f.BoolVar(&fl.pretty, "pretty", false, "indent JSON output")
	f.IntVar(&fl.maxColWidth, "max-col-width", 0, "cap table column width (0 = terminal width)")

	for key, name := range map[string]string{
		"discount_rate":    "discount",
		"growth_rate":      "growth",
		"projection_years": "years",
		"tolerance":        "tolerance",
		"workers":          "workers",
		"timeout":          "timeout",
		"statements":       "statements",
	} {
		_ = e.v.BindPFlag(key, f.Lookup(name))
	}
	return cmd
}

func runAnalyze(cmd *cobra.Command, e *env, fl analyzeFlags, args []string) error {
	ctx := cmd.Context()
	cfg, log, err := e.load()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	renderer, err := render.ForFormat(fl.format)
	if err != nil {
		return err
	}
	defs, err := columns.Compute(fl.columns, fl.sets)
	if err != nil {
		return err
	}
	var only filter.Filter
	if fl.only != "" {
		if only, err = filter.Parse(fl.only); err != nil {
			return err
		}
	}
	color, err := useColor(fl.color)
	if err != nil {
		return err
	}

	analyzer := newAnalyzer(cfg, log)
	archive, err := openArchive(ctx, cfg, log)
	if err != nil {
		return err
	}
	if archive != nil {
		defer archive.Close()
		analyzer.Archive = archive
	}

	var (
		src  source.Source
		spec string
	)
	switch {
	case fl.rerun != "":
		if archive == nil {
			return errors.New("--rerun needs --archive")
		}
		src, spec = source.ArchiveSource{Store: archive}, fl.rerun
	case len(args) == 1:
		if src, err = source.ForPath(args[0]); err != nil {
			return err
		}
		spec = args[0]
	}

	runner := &pipeline.Runner{
		Source:   src,
		Analyzer: analyzer,
		Renderer: renderer,
		Writer:   cmd.OutOrStdout(),
		Log:      log,
	}
	res, err := runner.Execute(ctx, spec, pipeline.ExecuteOptions{
		Options: pipeline.Options{
			Params:    cfg.Params(),
			Tolerance: cfg.ToleranceFraction(),
		},
		Columns:     defs,
		Filter:      only,
		Color:       color,
		PrettyJSON:  fl.pretty,
		Diagnostics: fl.diagnostics,
		MaxColWidth: fl.maxColWidth,
		TermWidth:   terminalWidth(os.Stdout),
	})
	if err != nil {
		return err
	}
	if archive != nil {
		log.Infow("run archived", "run_id", res.RunID)
	}
	return nil
}

func useColor(mode string) (bool, error) {
	switch mode {
	case "", "auto":
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false, nil
		}
		return isatty.IsTerminal(os.Stdout.Fd()), nil
	case "always":
		return true, nil
	case "never":
		return false, nil
	default:
		return false, fmt.Errorf("unknown --color %q (want auto, always or never)", mode)
	}
}

