package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpadapter "companywatch/internal/adapters/http"
	"companywatch/internal/bootstrap"
	"companywatch/internal/config"
	"companywatch/internal/logging"
	"companywatch/internal/workers/enrichrunner"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var configPath string
	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Serve company enrichment over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "optional config file (yaml, toml, json)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil && !errors.Is(err, config.ErrNoDatabase) {
		return err
	}
	log := bootstrap.Logger(cfg, "companywatch-server")
	if err != nil {
		log.Warn("running without a database", logging.Fields{"reason": err.Error()})
	}

	stores, err := bootstrap.OpenStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	enricher := bootstrap.Enricher(cfg, stores.Records, log)
	acceptAsync := cfg.EnrichWorkers > 0 || stores.JobsDurable
	if !acceptAsync {
		log.Warn("async enrichment disabled: in-memory job queue and no workers", nil)
	}
	srv := httpadapter.New(enricher, stores.Records, stores.Jobs, acceptAsync)

	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		enrichrunner.Run(ctx, stores.Jobs, enricher, cfg.EnrichWorkers, cfg.PollInterval, log)
	}()
	if cfg.EnrichWorkers > 0 {
		log.Info("enrichment workers started", logging.Fields{"workers": cfg.EnrichWorkers})
	}

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Routes(log.Zerolog()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", logging.Fields{"addr": cfg.ListenAddr})
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info("shutdown initiated", nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "graceful shutdown failed", nil)
		_ = httpSrv.Close()
	}
	select {
	case <-workersDone:
	case <-shutdownCtx.Done():
		log.Warn("workers still running at shutdown deadline", nil)
	}
	return nil
}
