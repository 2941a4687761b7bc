// Package bootstrap turns a Config into wired adapters, shared by the
// server and the CLI.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"companywatch/internal/adapters/memory"
	pg "companywatch/internal/adapters/postgres"
	"companywatch/internal/adapters/provider"
	"companywatch/internal/adapters/s3archive"
	"companywatch/internal/config"
	"companywatch/internal/logging"
	"companywatch/internal/ports"
	"companywatch/internal/services/enrichment"
)

// Stores are the persistence adapters selected by configuration.
type Stores struct {
	Records ports.EnrichmentRepository
	Jobs    ports.JobRepository
	// JobsDurable reports a shared queue that other processes can drain.
	JobsDurable bool
	close       func()
}

func (s Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStores connects the configured record store. Jobs live in Postgres
// whenever a database is configured, otherwise in memory.
func OpenStores(ctx context.Context, cfg config.Config, log logging.Logger) (Stores, error) {
	var (
		stores Stores
		db     *pg.DB
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return Stores{}, fmt.Errorf("db connect: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return Stores{}, fmt.Errorf("db migrate: %w", err)
		}
		stores.Jobs = db
		stores.JobsDurable = true
		stores.close = db.Close
	} else {
		stores.Jobs = memory.NewJobQueue()
	}

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		stores.Records = db
	case config.BackendS3:
		archive, err := s3archive.New(ctx, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			stores.Close()
			return Stores{}, err
		}
		stores.Records = archive
	default:
		stores.Records = memory.NewRepository()
	}
	log.Info("stores ready", logging.Fields{"records": cfg.StoreBackend, "jobsDurable": stores.JobsDurable})
	return stores, nil
}

// Lookups builds a provider client per workflow run. All clients share one
// transport and its connection pool.
func Lookups(cfg config.Provider) ports.LookupFactory {
	transport := provider.NewTransport()
	return func(context.Context) (ports.CompanyLookup, error) {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = provider.DefaultTimeout
		}
		client, err := provider.New(provider.Config{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Timeout: timeout,
		}, provider.WithHTTPClient(&http.Client{Timeout: timeout, Transport: transport}))
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

func Enricher(cfg config.Config, records ports.EnrichmentRepository, log logging.Logger) *enrichment.Service {
	return enrichment.New(enrichment.Options{
		Lookups:     Lookups(cfg.Provider),
		Repo:        records,
		CountryCode: cfg.CountryCode,
		SearchLimit: cfg.SearchLimit,
		Logger:      log,
	})
}

// Logger builds the root logger for a binary.
func Logger(cfg config.Config, service string) logging.Logger {
	zl := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: service})
	return logging.NewLogger(zl, logging.Fields{"env": cfg.Env})
}
