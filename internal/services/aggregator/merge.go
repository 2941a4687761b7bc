package aggregator

import "companywatch/internal/domain"

// Merge builds an EnrichedCompany from its facets. Scores, financials and
// income statements are attached only when the provider returned something;
// confidence only when given.
func Merge(
	profile domain.CompanyProfile,
	scores domain.CompanyScore,
	accounts []domain.FinancialAccount,
	statements []domain.IncomeStatement,
	confidence *float64,
) domain.EnrichedCompany {
	out := domain.EnrichedCompany{
		ID:                 profile.ID,
		Name:               profile.Name,
		RegistrationNumber: profile.RegistrationNumber,
		Address:            profile.Address,
		IncorporationDate:  profile.IncorporationDate,
		Status:             profile.Status,
	}
	if len(accounts) > 0 {
		out.Financials = append([]domain.FinancialAccount(nil), accounts...)
	}
	if len(statements) > 0 {
		out.IncomeStatements = append([]domain.IncomeStatement(nil), statements...)
	}
	if !scores.Empty() {
		sc := scores
		sc.ID = ""
		out.Scores = &sc
	}
	if confidence != nil {
		c := *confidence
		out.ConfidenceScore = &c
	}
	return out
}
