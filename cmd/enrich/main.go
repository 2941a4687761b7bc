package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"companywatch/internal/bootstrap"
	"companywatch/internal/config"
	"companywatch/internal/domain"
	"companywatch/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "enrich:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath         string
		submissionID       string
		companyName        string
		registrationNumber string
	)
	cmd := &cobra.Command{
		Use:           "enrich --submission-id <id> [--name <name> | --registration-number <number>]",
		Short:         "Enrich one submission and print the result as JSON",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sub := domain.Submission{SubmissionID: submissionID}
			if cmd.Flags().Changed("name") {
				sub.Name = &companyName
			}
			if cmd.Flags().Changed("registration-number") {
				sub.RegistrationNumber = &registrationNumber
			}
			return run(cmd.Context(), configPath, sub)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "optional config file (yaml, toml, json)")
	cmd.Flags().StringVar(&submissionID, "submission-id", "", "submission identifier the result is saved under")
	cmd.Flags().StringVar(&companyName, "name", "", "company name to fuzzy-search")
	cmd.Flags().StringVar(&registrationNumber, "registration-number", "", "exact company registration number")
	_ = cmd.MarkFlagRequired("submission-id")
	return cmd
}

func run(ctx context.Context, configPath string, sub domain.Submission) error {
	cfg, err := config.Load(configPath)
	if err != nil && !errors.Is(err, config.ErrNoDatabase) {
		return err
	}
	// stdout carries the result; logs go to stderr.
	zl := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "companywatch-enrich", Output: os.Stderr})
	log := logging.NewLogger(zl, logging.Fields{"env": cfg.Env})

	stores, err := bootstrap.OpenStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	result, err := bootstrap.Enricher(cfg, stores.Records, log).Enrich(ctx, sub)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
