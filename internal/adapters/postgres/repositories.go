package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"companywatch/internal/domain"
	"companywatch/internal/ports"
)

var _ ports.EnrichmentRepository = (*DB)(nil)

const uniqueViolation = "23505"

// Save inserts the record. Records are never updated; a second save for the
// same submission returns ports.ErrDuplicateSubmission.
func (db *DB) Save(ctx context.Context, rec domain.EnrichmentRecord) error {
	result, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("encode enrichment result: %w", err)
	}
	_, err = db.Pool.Exec(ctx, `
        INSERT INTO enrichment_records (submission_id, country_code, company_name, company_registration_number, result)
        VALUES ($1, $2, $3, $4, $5)
    `, rec.SubmissionID, rec.CountryCode, rec.CompanyName, rec.RegistrationNumber, result)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ports.ErrDuplicateSubmission
	}
	if err != nil {
		return fmt.Errorf("insert enrichment record: %w", err)
	}
	return nil
}

func (db *DB) GetBySubmissionID(ctx context.Context, submissionID string) (domain.EnrichmentRecord, error) {
	var (
		rec    domain.EnrichmentRecord
		result []byte
	)
	err := db.Pool.QueryRow(ctx, `
        SELECT submission_id, country_code, company_name, company_registration_number, result, created_at
        FROM enrichment_records
        WHERE submission_id = $1
    `, submissionID).Scan(&rec.SubmissionID, &rec.CountryCode, &rec.CompanyName, &rec.RegistrationNumber, &result, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return rec, ports.ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("get enrichment record: %w", err)
	}
	if err := json.Unmarshal(result, &rec.Result); err != nil {
		return rec, fmt.Errorf("decode enrichment result: %w", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}
