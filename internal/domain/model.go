package domain

import "time"

// Core domain models. The JSON shape of EnrichedCompany is the public
// response contract, so optional facets use omitempty and pointers: a
// missing value is absent from the payload, never zero.

// SearchCandidate is one fuzzy name-search hit. Only lives for the duration
// of a single resolution.
type SearchCandidate struct {
	ID                 string  `json:"id"`
	DisplayName        string  `json:"name"`
	RegistrationNumber *string `json:"registrationNumber,omitempty"`
	RelevanceScore     float64 `json:"relevanceScore"`
}

// Resolution is a company identifier ready to be aggregated. Confidence is
// set only when the identifier came from fuzzy name search.
type Resolution struct {
	ID         string
	Confidence *float64
}

type Address struct {
	Street     *string `json:"street,omitempty"`
	City       *string `json:"city,omitempty"`
	PostalCode *string `json:"postalCode,omitempty"`
	Country    *string `json:"country,omitempty"`
}

type CompanyProfile struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	RegistrationNumber *string  `json:"registrationNumber,omitempty"`
	Address            *Address `json:"address,omitempty"`
	IncorporationDate  *string  `json:"incorporationDate,omitempty"`
	Status             *string  `json:"status,omitempty"`
}

type CompanyScore struct {
	ID                string   `json:"-"`
	CreditScore       *float64 `json:"creditScore,omitempty"`
	FinancialStrength *float64 `json:"financialStrength,omitempty"`
	RiskLevel         *string  `json:"riskLevel,omitempty"`
	ScoreDate         *string  `json:"scoreDate,omitempty"`
}

// Empty reports whether the provider returned no score data at all.
func (s CompanyScore) Empty() bool {
	return s.CreditScore == nil && s.FinancialStrength == nil && s.RiskLevel == nil && s.ScoreDate == nil
}

type FinancialAccount struct {
	Year        int      `json:"year"`
	Revenue     *float64 `json:"revenue,omitempty"`
	Profit      *float64 `json:"profit,omitempty"`
	Assets      *float64 `json:"assets,omitempty"`
	Liabilities *float64 `json:"liabilities,omitempty"`
}

type IncomeStatement struct {
	Year              int      `json:"year"`
	Revenue           *float64 `json:"revenue,omitempty"`
	CostOfSales       *float64 `json:"costOfSales,omitempty"`
	GrossProfit       *float64 `json:"grossProfit,omitempty"`
	OperatingExpenses *float64 `json:"operatingExpenses,omitempty"`
	OperatingIncome   *float64 `json:"operatingIncome,omitempty"`
	NetIncome         *float64 `json:"netIncome,omitempty"`
}

// EnrichedCompany is the merged record for one resolved identifier.
type EnrichedCompany struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	RegistrationNumber *string            `json:"registrationNumber,omitempty"`
	Address            *Address           `json:"address,omitempty"`
	IncorporationDate  *string            `json:"incorporationDate,omitempty"`
	Status             *string            `json:"status,omitempty"`
	Financials         []FinancialAccount `json:"financials,omitempty"`
	IncomeStatements   []IncomeStatement  `json:"incomeStatements,omitempty"`
	Scores             *CompanyScore      `json:"scores,omitempty"`
	ConfidenceScore    *float64           `json:"confidenceScore,omitempty"`
}

// EnrichmentResult keeps companies in resolution order.
type EnrichmentResult struct {
	Companies []EnrichedCompany `json:"companies"`
}

// EmptyResult is the benign response for a submission nothing resolved for.
func EmptyResult() EnrichmentResult {
	return EnrichmentResult{Companies: []EnrichedCompany{}}
}

// Query holds the identifying fields of a submission.
type Query struct {
	Name               *string `json:"companyName,omitempty"`
	RegistrationNumber *string `json:"companyRegistrationNumber,omitempty"`
}

type Submission struct {
	SubmissionID string `json:"submissionId"`
	Query
}

// EnrichmentRecord is the persisted form of one submission's result.
// Written once, never updated.
type EnrichmentRecord struct {
	SubmissionID       string           `json:"submissionId"`
	CountryCode        string           `json:"countryCode"`
	Result             EnrichmentResult `json:"enrichmentData"`
	CompanyName        *string          `json:"companyName,omitempty"`
	RegistrationNumber *string          `json:"companyRegistrationNumber,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
}

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// EnrichmentJob is a queued submission processed by the background workers.
type EnrichmentJob struct {
	ID         string     `json:"id"`
	Submission Submission `json:"submission"`
	Status     JobStatus  `json:"status"`
	Attempts   int        `json:"attempts"`
	LastError  *string    `json:"lastError,omitempty"`
	QueuedAt   time.Time  `json:"queuedAt"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
