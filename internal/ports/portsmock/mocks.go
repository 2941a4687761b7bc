// Package portsmock holds testify mocks of the ports interfaces.
package portsmock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"companywatch/internal/domain"
	"companywatch/internal/ports"
)

var (
	_ ports.CompanyLookup        = (*Lookup)(nil)
	_ ports.EnrichmentRepository = (*Repository)(nil)
	_ ports.JobRepository        = (*Jobs)(nil)
	_ ports.Enricher             = (*Enricher)(nil)
)

type Lookup struct {
	mock.Mock
}

func (m *Lookup) SearchByName(ctx context.Context, country, name string, limit int) ([]domain.SearchCandidate, error) {
	args := m.Called(ctx, country, name, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchCandidate), args.Error(1)
}

func (m *Lookup) GetProfile(ctx context.Context, country, id string) (domain.CompanyProfile, error) {
	args := m.Called(ctx, country, id)
	return args.Get(0).(domain.CompanyProfile), args.Error(1)
}

func (m *Lookup) GetScores(ctx context.Context, country, id string) (domain.CompanyScore, error) {
	args := m.Called(ctx, country, id)
	return args.Get(0).(domain.CompanyScore), args.Error(1)
}

func (m *Lookup) GetAccounts(ctx context.Context, country, id string) ([]domain.FinancialAccount, error) {
	args := m.Called(ctx, country, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FinancialAccount), args.Error(1)
}

func (m *Lookup) GetIncomeStatements(ctx context.Context, country, id string) ([]domain.IncomeStatement, error) {
	args := m.Called(ctx, country, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.IncomeStatement), args.Error(1)
}

type Repository struct {
	mock.Mock
}

func (m *Repository) Save(ctx context.Context, rec domain.EnrichmentRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *Repository) GetBySubmissionID(ctx context.Context, submissionID string) (domain.EnrichmentRecord, error) {
	args := m.Called(ctx, submissionID)
	return args.Get(0).(domain.EnrichmentRecord), args.Error(1)
}

type Jobs struct {
	mock.Mock
}

func (m *Jobs) Enqueue(ctx context.Context, sub domain.Submission) (string, error) {
	args := m.Called(ctx, sub)
	return args.String(0), args.Error(1)
}

func (m *Jobs) Get(ctx context.Context, jobID string) (domain.EnrichmentJob, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).(domain.EnrichmentJob), args.Error(1)
}

func (m *Jobs) ClaimNext(ctx context.Context) (domain.EnrichmentJob, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.EnrichmentJob), args.Bool(1), args.Error(2)
}

func (m *Jobs) MarkCompleted(ctx context.Context, jobID string) error {
	return m.Called(ctx, jobID).Error(0)
}

func (m *Jobs) MarkFailed(ctx context.Context, jobID string, reason string) error {
	return m.Called(ctx, jobID, reason).Error(0)
}

type Enricher struct {
	mock.Mock
}

func (m *Enricher) Enrich(ctx context.Context, sub domain.Submission) (domain.EnrichmentResult, error) {
	args := m.Called(ctx, sub)
	return args.Get(0).(domain.EnrichmentResult), args.Error(1)
}
