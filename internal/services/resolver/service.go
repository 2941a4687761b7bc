package resolver

import (
	"context"
	"strings"

	"companywatch/internal/domain"
	"companywatch/internal/logging"
	"companywatch/internal/ports"
)

const DefaultLimit = 5

// Service turns a submission query into company identifiers.
type Service struct {
	lookup ports.CompanyLookup
	limit  int
	log    logging.Logger
}

func New(lookup ports.CompanyLookup, limit int, log logging.Logger) *Service {
	if limit < 1 {
		limit = DefaultLimit
	}
	return &Service{lookup: lookup, limit: limit, log: log.With(logging.Fields{"component": "resolver"})}
}

// Resolve returns the identifiers to aggregate, in the order found.
//
// A non-empty registration number is an exact key and is returned as-is,
// unvalidated, without a confidence score. Otherwise the name is fuzzy-searched and each
// candidate carries its relevance score. No match, no input and search
// failures all yield an empty slice.
func (s *Service) Resolve(ctx context.Context, country string, q domain.Query) []domain.Resolution {
	if q.RegistrationNumber != nil && *q.RegistrationNumber != "" {
		s.log.Info("resolving by registration number", logging.Fields{
			"country":                   country,
			"companyRegistrationNumber": *q.RegistrationNumber,
		})
		return []domain.Resolution{{ID: *q.RegistrationNumber}}
	}
	if q.Name == nil || strings.TrimSpace(*q.Name) == "" {
		return []domain.Resolution{}
	}

	name := *q.Name
	s.log.Info("resolving by company name", logging.Fields{"country": country, "companyName": name})
	candidates, err := s.lookup.SearchByName(ctx, country, name, s.limit)
	if err != nil {
		s.log.Warn("company name search failed", logging.Fields{
			"country":     country,
			"companyName": name,
			"error":       err.Error(),
		})
		return []domain.Resolution{}
	}
	if len(candidates) > s.limit {
		candidates = candidates[:s.limit]
	}

	out := make([]domain.Resolution, 0, len(candidates))
	for _, c := range candidates {
		score := c.RelevanceScore
		out = append(out, domain.Resolution{ID: c.ID, Confidence: &score})
	}
	return out
}
