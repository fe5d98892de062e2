package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/stex99/dcf-tool/pkg/dcf/config"
	"github.com/stex99/dcf-tool/pkg/dcf/logging"
	"github.com/stex99/dcf-tool/pkg/dcf/market"
	"github.com/stex99/dcf-tool/pkg/dcf/pipeline"
	"github.com/stex99/dcf-tool/pkg/dcf/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "dcf",
		Short:         "Discounted cash flow valuation of a stock portfolio",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default ./dcf.yaml)")
	pf.String("archive", "", "SQLite file to archive runs in")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "console", "log format (console or json)")
	_ = v.BindPFlag("archive", pf.Lookup("archive"))
	_ = v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = v.BindPFlag("log.format", pf.Lookup("log-format"))

	env := &env{v: v, configFile: &configFile}
	rootCmd.AddCommand(newAnalyzeCmd(env), newServeCmd(env), newHistoryCmd(env))
	return rootCmd
}

// env loads configuration lazily, after cobra has parsed the flags.
type env struct {
	v          *viper.Viper
	configFile *string
}

func (e *env) load() (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.Load(e.v, *e.configFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func newProvider(cfg *config.Config) market.Provider {
	var p market.Provider = market.NewYahooProvider()
	if cfg.Statements == "scrape" {
		p = market.WithStatements(p, market.ScrapeStatements{})
	}
	return p
}

func newAnalyzer(cfg *config.Config, log *zap.SugaredLogger) *pipeline.Analyzer {
	return &pipeline.Analyzer{
		Provider: newProvider(cfg),
		Labels:   cfg.Labels,
		Workers:  cfg.Workers,
		Timeout:  cfg.Timeout,
		Log:      log,
	}
}

// openArchive opens the configured archive, or returns nil when none is set.
func openArchive(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*store.Store, error) {
	if cfg.Archive == "" {
		return nil, nil
	}
	st, err := store.Open(ctx, cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", cfg.Archive, err)
	}
	log.Debugw("archive opened", "path", cfg.Archive)
	return st, nil
}
