package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"companywatch/internal/domain"
	"companywatch/internal/ports"
)

var _ ports.JobRepository = (*DB)(nil)

func (db *DB) Enqueue(ctx context.Context, sub domain.Submission) (string, error) {
	var id string
	err := db.Pool.QueryRow(ctx, `
        INSERT INTO enrichment_jobs (submission_id, company_name, company_registration_number)
        VALUES ($1, $2, $3)
        RETURNING id::text
    `, sub.SubmissionID, sub.Name, sub.RegistrationNumber).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("enqueue enrichment job: %w", err)
	}
	return id, nil
}

const jobColumns = `id::text, submission_id, company_name, company_registration_number,
        status, attempts, last_error, queued_at, started_at, finished_at`

func scanJob(row pgx.Row) (domain.EnrichmentJob, error) {
	var (
		job    domain.EnrichmentJob
		status string
	)
	err := row.Scan(&job.ID, &job.Submission.SubmissionID, &job.Submission.Name, &job.Submission.RegistrationNumber,
		&status, &job.Attempts, &job.LastError, &job.QueuedAt, &job.StartedAt, &job.FinishedAt)
	job.Status = domain.JobStatus(status)
	return job, err
}

func (db *DB) Get(ctx context.Context, jobID string) (domain.EnrichmentJob, error) {
	job, err := scanJob(db.Pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM enrichment_jobs WHERE id::text = $1`, jobID))
	if errors.Is(err, pgx.ErrNoRows) {
		return job, ports.ErrNotFound
	}
	if err != nil {
		return job, fmt.Errorf("get enrichment job: %w", err)
	}
	return job, nil
}

// ClaimNext selects the next queued job using SKIP LOCKED and marks it running.
func (db *DB) ClaimNext(ctx context.Context) (job domain.EnrichmentJob, found bool, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return job, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	job, err = scanJob(tx.QueryRow(ctx, `
        UPDATE enrichment_jobs
        SET status = 'running', started_at = now(), attempts = attempts + 1
        WHERE id = (
            SELECT id FROM enrichment_jobs
            WHERE status = 'queued'
            ORDER BY queued_at
            LIMIT 1
            FOR UPDATE SKIP LOCKED
        )
        RETURNING `+jobColumns))
	if errors.Is(err, pgx.ErrNoRows) {
		return job, false, nil
	}
	if err != nil {
		return job, false, fmt.Errorf("claim enrichment job: %w", err)
	}
	return job, true, nil
}

func (db *DB) MarkCompleted(ctx context.Context, jobID string) error {
	return db.finish(ctx, jobID, domain.JobCompleted, nil)
}

func (db *DB) MarkFailed(ctx context.Context, jobID string, reason string) error {
	return db.finish(ctx, jobID, domain.JobFailed, &reason)
}

func (db *DB) finish(ctx context.Context, jobID string, status domain.JobStatus, reason *string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	tag, err := db.Pool.Exec(ctx, `
        UPDATE enrichment_jobs SET status = $2, last_error = $3, finished_at = now() WHERE id::text = $1
    `, jobID, string(status), reason)
	if err != nil {
		return fmt.Errorf("mark enrichment job %s: %w", status, err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}
