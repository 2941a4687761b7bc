package ports

import (
	"context"

	"companywatch/internal/domain"
)

// CompanyLookup performs one upstream call per operation. Implementations
// return errors as-is; degrading failures into placeholders is the caller's
// policy.
type CompanyLookup interface {
	SearchByName(ctx context.Context, country, name string, limit int) ([]domain.SearchCandidate, error)
	GetProfile(ctx context.Context, country, id string) (domain.CompanyProfile, error)
	GetScores(ctx context.Context, country, id string) (domain.CompanyScore, error)
	GetAccounts(ctx context.Context, country, id string) ([]domain.FinancialAccount, error)
	GetIncomeStatements(ctx context.Context, country, id string) ([]domain.IncomeStatement, error)
}

// LookupFactory builds a ready-to-use CompanyLookup. An error means the
// provider cannot be reached at all and is fatal for the request.
type LookupFactory func(ctx context.Context) (CompanyLookup, error)

// Enricher runs the end-to-end workflow for one submission.
type Enricher interface {
	Enrich(ctx context.Context, sub domain.Submission) (domain.EnrichmentResult, error)
}
