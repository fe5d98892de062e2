package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/stex99/dcf-tool/pkg/dcf/api"
)

func newServeCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve valuations over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), e)
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().StringSlice("allowed-origins", nil, "CORS allowed origins")
	_ = e.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = e.v.BindPFlag("server.allowed_origins", cmd.Flags().Lookup("allowed-origins"))
	return cmd
}

func runServe(ctx context.Context, e *env) error {
	cfg, log, err := e.load()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	analyzer := newAnalyzer(cfg, log)
	archive, err := openArchive(ctx, cfg, log)
	if err != nil {
		return err
	}
	var runs api.RunStore
	if archive != nil {
		defer archive.Close()
		analyzer.Archive = archive
		runs = archive
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(analyzer, runs, cfg, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("starting server", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Infow("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Infow("server exited")
	return nil
}
