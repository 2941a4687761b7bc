// Package memory provides in-process implementations of the repository
// ports, for local runs without a database and for tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"companywatch/internal/domain"
	"companywatch/internal/ports"
)

// Repository is an in-memory ports.EnrichmentRepository.
type Repository struct {
	mu      sync.RWMutex
	records map[string][]byte // submission id -> JSON encoded record
	now     func() time.Time
}

var _ ports.EnrichmentRepository = (*Repository)(nil)

func NewRepository() *Repository {
	return &Repository{
		records: make(map[string][]byte),
		now:     time.Now,
	}
}

// Save stores rec. CreatedAt is stamped here; a second save for the same
// submission returns ports.ErrDuplicateSubmission.
func (r *Repository) Save(_ context.Context, rec domain.EnrichmentRecord) error {
	if rec.SubmissionID == "" {
		return fmt.Errorf("save enrichment: empty submission id")
	}
	rec.CreatedAt = r.now().UTC()
	// Stored encoded so callers can never alias the saved result.
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode enrichment record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[rec.SubmissionID]; exists {
		return ports.ErrDuplicateSubmission
	}
	r.records[rec.SubmissionID] = raw
	return nil
}

func (r *Repository) GetBySubmissionID(_ context.Context, submissionID string) (domain.EnrichmentRecord, error) {
	r.mu.RLock()
	raw, ok := r.records[submissionID]
	r.mu.RUnlock()
	if !ok {
		return domain.EnrichmentRecord{}, ports.ErrNotFound
	}
	var rec domain.EnrichmentRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.EnrichmentRecord{}, fmt.Errorf("decode enrichment record: %w", err)
	}
	return rec, nil
}
