package ports

import (
	"context"

	"companywatch/internal/domain"
)

// JobRepository queues submissions for the background workers.
type JobRepository interface {
	Enqueue(ctx context.Context, sub domain.Submission) (jobID string, err error)
	Get(ctx context.Context, jobID string) (domain.EnrichmentJob, error)
	// ClaimNext moves the oldest queued job to running and returns it.
	ClaimNext(ctx context.Context) (job domain.EnrichmentJob, found bool, err error)
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID string, reason string) error
}
