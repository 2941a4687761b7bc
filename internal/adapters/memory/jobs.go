package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"companywatch/internal/domain"
	"companywatch/internal/ports"
)

// JobQueue is an in-memory ports.JobRepository. Jobs are claimed in
// enqueue order.
type JobQueue struct {
	mu    sync.Mutex
	jobs  map[string]*domain.EnrichmentJob
	order []string // queued job ids, oldest first
	now   func() time.Time
}

var _ ports.JobRepository = (*JobQueue)(nil)

func NewJobQueue() *JobQueue {
	return &JobQueue{
		jobs: make(map[string]*domain.EnrichmentJob),
		now:  time.Now,
	}
}

func (q *JobQueue) Enqueue(_ context.Context, sub domain.Submission) (string, error) {
	id := uuid.NewString()

	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs[id] = &domain.EnrichmentJob{
		ID:         id,
		Submission: sub,
		Status:     domain.JobQueued,
		QueuedAt:   q.now().UTC(),
	}
	q.order = append(q.order, id)
	return id, nil
}

func (q *JobQueue) Get(_ context.Context, jobID string) (domain.EnrichmentJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return domain.EnrichmentJob{}, ports.ErrNotFound
	}
	return *job, nil
}

func (q *JobQueue) ClaimNext(_ context.Context) (domain.EnrichmentJob, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.order) == 0 {
		return domain.EnrichmentJob{}, false, nil
	}
	id := q.order[0]
	q.order = q.order[1:]

	job := q.jobs[id]
	now := q.now().UTC()
	job.Status = domain.JobRunning
	job.Attempts++
	job.StartedAt = &now
	return *job, true, nil
}

func (q *JobQueue) MarkCompleted(_ context.Context, jobID string) error {
	return q.finish(jobID, domain.JobCompleted, nil)
}

func (q *JobQueue) MarkFailed(_ context.Context, jobID string, reason string) error {
	return q.finish(jobID, domain.JobFailed, &reason)
}

func (q *JobQueue) finish(jobID string, status domain.JobStatus, reason *string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return ports.ErrNotFound
	}
	now := q.now().UTC()
	job.Status = status
	job.LastError = reason
	job.FinishedAt = &now
	return nil
}
