package aggregator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"companywatch/internal/domain"
	"companywatch/internal/logging"
	"companywatch/internal/ports"
)

const (
	facetProfile          = "profile"
	facetScores           = "scores"
	facetAccounts         = "accounts"
	facetIncomeStatements = "incomeStatements"
)

// Service fetches every data facet of a company and merges them.
type Service struct {
	lookup ports.CompanyLookup
	log    logging.Logger
}

func New(lookup ports.CompanyLookup, log logging.Logger) *Service {
	return &Service{lookup: lookup, log: log.With(logging.Fields{"component": "aggregator"})}
}

type facets struct {
	profile    domain.CompanyProfile
	scores     domain.CompanyScore
	accounts   []domain.FinancialAccount
	statements []domain.IncomeStatement
}

// Aggregate fetches the four facets of one company concurrently. A facet
// that fails is replaced by its empty placeholder; siblings are unaffected
// and nothing is cancelled.
func (s *Service) Aggregate(ctx context.Context, country string, r domain.Resolution) domain.EnrichedCompany {
	id := r.ID
	f := facets{
		profile: domain.CompanyProfile{ID: id},
		scores:  domain.CompanyScore{ID: id},
	}

	// Facet goroutines never return an error, so the group only joins.
	var g errgroup.Group
	g.Go(func() error {
		p, err := s.lookup.GetProfile(ctx, country, id)
		if err != nil {
			s.degraded(country, id, facetProfile, err)
			return nil
		}
		p.ID = id
		f.profile = p
		return nil
	})
	g.Go(func() error {
		sc, err := s.lookup.GetScores(ctx, country, id)
		if err != nil {
			s.degraded(country, id, facetScores, err)
			return nil
		}
		f.scores = sc
		return nil
	})
	g.Go(func() error {
		acc, err := s.lookup.GetAccounts(ctx, country, id)
		if err != nil {
			s.degraded(country, id, facetAccounts, err)
			return nil
		}
		f.accounts = acc
		return nil
	})
	g.Go(func() error {
		st, err := s.lookup.GetIncomeStatements(ctx, country, id)
		if err != nil {
			s.degraded(country, id, facetIncomeStatements, err)
			return nil
		}
		f.statements = st
		return nil
	})
	_ = g.Wait()

	return Merge(f.profile, f.scores, f.accounts, f.statements, r.Confidence)
}

// AggregateAll aggregates every resolution concurrently. The output keeps
// input order regardless of which company finishes first.
func (s *Service) AggregateAll(ctx context.Context, country string, rs []domain.Resolution) domain.EnrichmentResult {
	companies := make([]domain.EnrichedCompany, len(rs))

	var g errgroup.Group
	for i, r := range rs {
		i, r := i, r
		g.Go(func() error {
			companies[i] = s.Aggregate(ctx, country, r)
			return nil
		})
	}
	_ = g.Wait()

	return domain.EnrichmentResult{Companies: companies}
}

func (s *Service) degraded(country, id, facet string, err error) {
	s.log.Warn("facet lookup failed, continuing without it", logging.Fields{
		"country":   country,
		"companyId": id,
		"facet":     facet,
		"error":     err.Error(),
	})
}
