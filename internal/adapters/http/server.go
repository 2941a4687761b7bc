// Package httpadapter exposes enrichment over HTTP.
package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"companywatch/internal/domain"
	"companywatch/internal/ports"
	"companywatch/internal/services/enrichment"
)

// maxBodyBytes caps submission bodies.
const maxBodyBytes = 1 << 20

type Server struct {
	enricher ports.Enricher
	records  ports.EnrichmentRepository
	jobs     ports.JobRepository
	// acceptAsync is false when nothing will ever drain jobs, e.g. an
	// in-memory queue with no workers.
	acceptAsync bool
}

func New(enricher ports.Enricher, records ports.EnrichmentRepository, jobs ports.JobRepository, acceptAsync bool) *Server {
	return &Server{enricher: enricher, records: records, jobs: jobs, acceptAsync: acceptAsync}
}

// Routes returns the router with request id, logging and panic recovery.
func (s *Server) Routes(logger zerolog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(&logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/enrichments", s.createEnrichment)
		r.Get("/enrichments/{submissionId}", s.getEnrichment)
		r.Get("/jobs/{jobId}", s.getJob)
	})
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

type jobAccepted struct {
	JobID string `json:"jobId"`
}

type jobResponse struct {
	ID           string           `json:"id"`
	SubmissionID string           `json:"submissionId"`
	Status       domain.JobStatus `json:"status"`
	Attempts     int              `json:"attempts"`
	LastError    *string          `json:"lastError,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createEnrichment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var sub domain.Submission
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&sub); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(sub.SubmissionID) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "submissionId is required"})
		return
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		if !s.acceptAsync {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "async enrichment is disabled: no workers are running"})
			return
		}
		id, err := s.jobs.Enqueue(ctx, sub)
		if err != nil {
			logger.Error().Err(err).Str("submissionId", sub.SubmissionID).Msg("failed to enqueue enrichment")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not enqueue enrichment"})
			return
		}
		writeJSON(w, http.StatusAccepted, jobAccepted{JobID: id})
		return
	}

	result, err := s.enricher.Enrich(ctx, sub)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, enrichment.ErrInvalidSubmission):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, enrichment.ErrInitialization):
		http.Error(w, enrichment.ErrInitialization.Error(), http.StatusInternalServerError)
	case errors.Is(err, ports.ErrDuplicateSubmission):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "submission already enriched"})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		logger.Warn().Err(err).Str("submissionId", sub.SubmissionID).Msg("enrichment abandoned")
		writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: "enrichment did not finish in time"})
	default:
		logger.Error().Err(err).Str("submissionId", sub.SubmissionID).Msg("enrichment failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "enrichment could not be saved"})
	}
}

func (s *Server) getEnrichment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "submissionId")

	rec, err := s.records.GetBySubmissionID(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "enrichment not found"})
		return
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("submissionId", id).Msg("failed to load enrichment")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not load enrichment"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "jobId")

	job, err := s.jobs.Get(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "job not found"})
		return
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("jobId", id).Msg("failed to load job")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not load job"})
		return
	}
	writeJSON(w, http.StatusOK, jobResponse{
		ID:           job.ID,
		SubmissionID: job.Submission.SubmissionID,
		Status:       job.Status,
		Attempts:     job.Attempts,
		LastError:    job.LastError,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
