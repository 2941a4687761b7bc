// Package provider is the client for the upstream business-data API
// (company search, profile, scores, accounts, income statements).
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/http2"

	"companywatch/internal/domain"
	"companywatch/internal/ports"
)

const (
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 10 << 20
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is safe for concurrent use; it holds configuration only.
type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
}

var _ ports.CompanyLookup = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. Its Timeout is left
// untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a fully configured client or an error when the configuration
// cannot produce one.
func New(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("provider: api key is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("provider: base url is required")
	}
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("provider: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("provider: unsupported base url scheme %q", u.Scheme)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{baseURL: u, apiKey: cfg.APIKey}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: timeout, Transport: newTransport()}
	}
	return c, nil
}

// newTransport is swapped in tests.
var newTransport = NewTransport

// NewTransport returns an HTTP/2-capable transport that pings idle
// connections so a dead upstream connection is dropped instead of reused.
func NewTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = 16
	if h2, err := http2.ConfigureTransports(t); err == nil {
		h2.ReadIdleTimeout = 30 * time.Second
		h2.PingTimeout = 5 * time.Second
	}
	return t
}

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Code int
	Path string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider: %s returned http %d", e.Path, e.Code)
}

// Is lets a 404 match ports.ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ports.ErrNotFound && e.Code == http.StatusNotFound
}

func (c *Client) companyPath(country, id string, facet ...string) string {
	parts := append([]string{"v1", "companies", url.PathEscape(country), url.PathEscape(id)}, facet...)
	return "/" + strings.Join(parts, "/")
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := *c.baseURL
	u.RawPath = c.baseURL.EscapedPath() + path
	unescaped, err := url.PathUnescape(u.RawPath)
	if err != nil {
		return fmt.Errorf("provider: bad path %q: %w", path, err)
	}
	u.Path = unescaped
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("provider: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("provider: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &StatusError{Code: resp.StatusCode, Path: path}
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("provider: decode %s: %w", path, err)
	}
	return nil
}

type searchResponse struct {
	Companies []struct {
		ID                 string   `json:"id"`
		Name               string   `json:"name"`
		RegistrationNumber *string  `json:"registrationNumber"`
		RelevanceScore     *float64 `json:"relevanceScore"`
	} `json:"companies"`
}

// SearchByName runs a fuzzy search, asking the provider for at most limit
// candidates. Candidates come back in provider order.
func (c *Client) SearchByName(ctx context.Context, country, name string, limit int) ([]domain.SearchCandidate, error) {
	q := url.Values{}
	q.Set("country", country)
	q.Set("name", name)
	q.Set("fuzzy", "true")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var body searchResponse
	if err := c.getJSON(ctx, "/v1/companies/search", q, &body); err != nil {
		return nil, err
	}
	out := make([]domain.SearchCandidate, 0, len(body.Companies))
	for _, co := range body.Companies {
		cand := domain.SearchCandidate{
			ID:                 co.ID,
			DisplayName:        co.Name,
			RegistrationNumber: co.RegistrationNumber,
		}
		if co.RelevanceScore != nil {
			cand.RelevanceScore = *co.RelevanceScore
		}
		out = append(out, cand)
	}
	return out, nil
}

// GetProfile fetches identity facts. The returned ID is always id, whatever
// the provider echoes back.
func (c *Client) GetProfile(ctx context.Context, country, id string) (domain.CompanyProfile, error) {
	var body domain.CompanyProfile
	if err := c.getJSON(ctx, c.companyPath(country, id), nil, &body); err != nil {
		return domain.CompanyProfile{ID: id}, err
	}
	body.ID = id
	return body, nil
}

func (c *Client) GetScores(ctx context.Context, country, id string) (domain.CompanyScore, error) {
	var body domain.CompanyScore
	if err := c.getJSON(ctx, c.companyPath(country, id, "scores"), nil, &body); err != nil {
		return domain.CompanyScore{ID: id}, err
	}
	body.ID = id
	return body, nil
}

func (c *Client) GetAccounts(ctx context.Context, country, id string) ([]domain.FinancialAccount, error) {
	var body struct {
		Accounts []domain.FinancialAccount `json:"accounts"`
	}
	if err := c.getJSON(ctx, c.companyPath(country, id, "accounts"), nil, &body); err != nil {
		return nil, err
	}
	return body.Accounts, nil
}

func (c *Client) GetIncomeStatements(ctx context.Context, country, id string) ([]domain.IncomeStatement, error) {
	var body struct {
		IncomeStatements []domain.IncomeStatement `json:"incomeStatements"`
	}
	if err := c.getJSON(ctx, c.companyPath(country, id, "income-statements"), nil, &body); err != nil {
		return nil, err
	}
	return body.IncomeStatements, nil
}
