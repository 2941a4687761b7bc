// Package enrichment runs one submission through resolution, aggregation and
// persistence.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"companywatch/internal/domain"
	"companywatch/internal/logging"
	"companywatch/internal/ports"
	"companywatch/internal/services/aggregator"
	"companywatch/internal/services/resolver"
)

var (
	// ErrInitialization means the provider client could not be built. It is
	// the only failure that aborts a workflow before any lookup.
	ErrInitialization = errors.New("France Company Watch initialization failed")
	// ErrPersistence means the result was computed but not saved.
	ErrPersistence       = errors.New("persist enrichment result")
	ErrInvalidSubmission = errors.New("invalid submission")
)

const DefaultCountryCode = "fr"

type State int

const (
	StateIdle State = iota
	StateInitializing
	StateResolving
	StateAggregating
	StatePersisting
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateResolving:
		return "resolving"
	case StateAggregating:
		return "aggregating"
	case StatePersisting:
		return "persisting"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Options struct {
	Lookups     ports.LookupFactory
	Repo        ports.EnrichmentRepository
	CountryCode string
	SearchLimit int
	Logger      logging.Logger
}

// Service is the enrichment workflow. It is safe for concurrent use; each
// call to Enrich runs its own state machine.
type Service struct {
	lookups ports.LookupFactory
	repo    ports.EnrichmentRepository
	country string
	limit   int
	log     logging.Logger
}

var _ ports.Enricher = (*Service)(nil)

func New(opts Options) *Service {
	country := opts.CountryCode
	if country == "" {
		country = DefaultCountryCode
	}
	return &Service{
		lookups: opts.Lookups,
		repo:    opts.Repo,
		country: country,
		limit:   opts.SearchLimit,
		log:     opts.Logger.With(logging.Fields{"component": "enrichment"}),
	}
}

type run struct {
	state State
	log   logging.Logger
}

func (r *run) to(next State) {
	r.log.Debug("state transition", logging.Fields{"from": r.state.String(), "to": next.String()})
	r.state = next
}

// Enrich resolves the submission's query to company identifiers, aggregates
// every identifier and saves the result under the submission id.
//
// A submission that resolves to nothing returns an empty result and is not
// saved. Errors are ErrInvalidSubmission, ErrInitialization, ErrPersistence
// or the context's error when ctx ends before persisting; per-company lookup
// failures are never returned.
func (s *Service) Enrich(ctx context.Context, sub domain.Submission) (domain.EnrichmentResult, error) {
	if strings.TrimSpace(sub.SubmissionID) == "" {
		return domain.EnrichmentResult{}, fmt.Errorf("%w: missing submission id", ErrInvalidSubmission)
	}
	r := &run{state: StateIdle, log: s.log.With(logging.Fields{"submissionId": sub.SubmissionID})}

	r.to(StateInitializing)
	lookup, err := s.lookups(ctx)
	if err != nil {
		r.to(StateFailed)
		r.log.Error(err, "provider client initialization failed", nil)
		return domain.EnrichmentResult{}, fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	r.to(StateResolving)
	resolutions := resolver.New(lookup, s.limit, r.log).Resolve(ctx, s.country, sub.Query)
	if err := s.abandoned(ctx, r); err != nil {
		return domain.EnrichmentResult{}, err
	}
	if len(resolutions) == 0 {
		r.log.Info("no company resolved", nil)
		r.to(StateCompleted)
		return domain.EmptyResult(), nil
	}

	r.to(StateAggregating)
	result := aggregator.New(lookup, r.log).AggregateAll(ctx, s.country, resolutions)
	// Facets degrade when the context ends; a hollow result must not be saved.
	if err := s.abandoned(ctx, r); err != nil {
		return domain.EnrichmentResult{}, err
	}

	r.to(StatePersisting)
	err = s.repo.Save(ctx, domain.EnrichmentRecord{
		SubmissionID:       sub.SubmissionID,
		CountryCode:        s.country,
		Result:             result,
		CompanyName:        sub.Name,
		RegistrationNumber: sub.RegistrationNumber,
	})
	if err != nil {
		r.log.Error(err, "saving enrichment result failed", nil)
		return domain.EnrichmentResult{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	r.to(StateCompleted)
	r.log.Info("enrichment completed", logging.Fields{"companies": len(result.Companies)})
	return result, nil
}

func (s *Service) abandoned(ctx context.Context, r *run) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	r.log.Warn("enrichment abandoned", logging.Fields{"state": r.state.String(), "error": err.Error()})
	return fmt.Errorf("enrichment %s: %w", r.state, err)
}

// Process runs a queued job's submission. Only workflow errors fail the job.
func (s *Service) Process(ctx context.Context, job domain.EnrichmentJob) error {
	_, err := s.Enrich(ctx, job.Submission)
	return err
}
