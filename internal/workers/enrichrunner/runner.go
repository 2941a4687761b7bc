// Package enrichrunner drains the enrichment job queue in the background.
package enrichrunner

import (
	"context"
	"sync"
	"time"

	"companywatch/internal/domain"
	"companywatch/internal/logging"
	"companywatch/internal/ports"
)

// Processor performs the enrichment work for a claimed job.
type Processor interface {
	Process(ctx context.Context, job domain.EnrichmentJob) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, job domain.EnrichmentJob) error

func (f ProcessorFunc) Process(ctx context.Context, job domain.EnrichmentJob) error {
	return f(ctx, job)
}

// Run claims queued jobs every pollInterval and hands them to concurrency
// workers. It blocks until ctx is cancelled and every worker has returned.
func Run(ctx context.Context, repo ports.JobRepository, processor Processor, concurrency int, pollInterval time.Duration, log logging.Logger) {
	if concurrency < 1 {
		return
	}
	log = log.With(logging.Fields{"component": "enrichrunner"})
	jobsCh := make(chan domain.EnrichmentJob, concurrency)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for job := range jobsCh {
				handle(ctx, repo, processor, job, log.With(logging.Fields{"worker": idx, "jobId": job.ID}))
			}
		}(i)
	}

	dispatch(ctx, repo, jobsCh, pollInterval, log)
	close(jobsCh)
	wg.Wait()
}

func dispatch(ctx context.Context, repo ports.JobRepository, jobsCh chan<- domain.EnrichmentJob, pollInterval time.Duration, log logging.Logger) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		for {
			job, found, err := repo.ClaimNext(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Error(err, "job claim failed", nil)
				}
				break
			}
			if !found {
				break
			}
			select {
			case jobsCh <- job:
			case <-ctx.Done():
				log.Warn("shutting down with claimed job unprocessed", logging.Fields{"jobId": job.ID})
				return
			}
		}
	}
}

func handle(ctx context.Context, repo ports.JobRepository, processor Processor, job domain.EnrichmentJob, log logging.Logger) {
	// Outcome is recorded even if shutdown began mid-job.
	markCtx := context.WithoutCancel(ctx)
	if err := processor.Process(ctx, job); err != nil {
		log.Error(err, "job failed", logging.Fields{"submissionId": job.Submission.SubmissionID})
		if err := repo.MarkFailed(markCtx, job.ID, err.Error()); err != nil {
			log.Error(err, "marking job failed", nil)
		}
		return
	}
	if err := repo.MarkCompleted(markCtx, job.ID); err != nil {
		log.Error(err, "marking job completed", nil)
		return
	}
	log.Debug("job completed", logging.Fields{"submissionId": job.Submission.SubmissionID})
}
