package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companywatch/internal/domain"
	"companywatch/internal/ports"
)

func sampleRecord(id string) domain.EnrichmentRecord {
	return domain.EnrichmentRecord{
		SubmissionID:       id,
		CountryCode:        "fr",
		RegistrationNumber: domain.Ptr("552100554"),
		Result: domain.EnrichmentResult{Companies: []domain.EnrichedCompany{{
			ID:         "552100554",
			Name:       "ACME FR",
			Financials: []domain.FinancialAccount{{Year: 2023, Revenue: domain.Ptr(10.0)}},
		}}},
	}
}

func TestRepository_SaveAndGet(t *testing.T) {
	repo := NewRepository()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleRecord("s1")))

	got, err := repo.GetBySubmissionID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SubmissionID)
	assert.Equal(t, "fr", got.CountryCode)
	assert.Equal(t, fixed, got.CreatedAt)
	assert.Nil(t, got.CompanyName)
	assert.Equal(t, "552100554", *got.RegistrationNumber)
	require.Len(t, got.Result.Companies, 1)
	assert.Equal(t, "ACME FR", got.Result.Companies[0].Name)
}

func TestRepository_NotFound(t *testing.T) {
	_, err := NewRepository().GetBySubmissionID(context.Background(), "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_Immutable(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	rec := sampleRecord("s1")
	require.NoError(t, repo.Save(ctx, rec))

	rec.Result.Companies[0].Name = "mutated"
	err := repo.Save(ctx, rec)
	assert.ErrorIs(t, err, ports.ErrDuplicateSubmission)

	got, err := repo.GetBySubmissionID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ACME FR", got.Result.Companies[0].Name)

	got.Result.Companies[0].Name = "changed by reader"
	again, err := repo.GetBySubmissionID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ACME FR", again.Result.Companies[0].Name)
}

func TestRepository_EmptySubmissionID(t *testing.T) {
	err := NewRepository().Save(context.Background(), domain.EnrichmentRecord{})
	assert.Error(t, err)
}

func TestRepository_ConcurrentSaves(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Save(ctx, sampleRecord("same"))
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case err == ports.ErrDuplicateSubmission:
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 9, dup)
}
