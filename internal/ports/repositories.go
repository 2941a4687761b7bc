package ports

import (
	"context"
	"errors"

	"companywatch/internal/domain"
)

var (
	// ErrNotFound is returned when a record, job or upstream company does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateSubmission is returned when a record for the submission
	// already exists. Records are insert-only.
	ErrDuplicateSubmission = errors.New("enrichment record already exists for submission")
)

// EnrichmentRepository persists enrichment results keyed by submission.
type EnrichmentRepository interface {
	Save(ctx context.Context, rec domain.EnrichmentRecord) error
	GetBySubmissionID(ctx context.Context, submissionID string) (domain.EnrichmentRecord, error)
}
