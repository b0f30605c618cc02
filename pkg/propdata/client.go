// Package propdata provides a client for the property-data provider's
// paginated search API.
package propdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadflow/internal/resilience"
)

// MaxPageSize is the provider's documented maximum for the take parameter.
// Requests asking for more are silently capped.
const MaxPageSize = 250

// Client defines the provider search operation. Pagination state lives with
// the caller; the client is stateless between calls.
type Client interface {
	// Search runs one paginated search. skip is the absolute offset into the
	// provider's result set; take is capped at MaxPageSize.
	Search(ctx context.Context, f Filters, skip, take int) (*SearchResponse, error)
}

// Filters is the provider-side search filter object. Optional numeric filters
// are pointers: the provider treats an absent filter differently from an
// explicit zero, so omitted fields must not serialize at all.
type Filters struct {
	Location         string   `json:"query"`
	Quicklists       []string `json:"quicklists,omitempty"`
	PropertyType     string   `json:"property_type,omitempty"`
	MinBedrooms      *int     `json:"beds_min,omitempty"`
	MaxPrice         *float64 `json:"value_max,omitempty"`
	MinEquityPercent *float64 `json:"equity_percent_min,omitempty"`
}

// RawRecord is one provider result, kept as opaque nested JSON. Field
// locations drift across provider API versions, so interpretation is left to
// the normalization layer.
type RawRecord map[string]any

// SearchResponse is one page of provider results plus the total-count hint.
type SearchResponse struct {
	Records   []RawRecord `json:"results"`
	TotalHint int         `json:"result_count"`
}

// ProviderError is returned for any non-2xx provider response. Status and
// body are preserved so callers can log exactly what the provider said.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("propdata: status %d: %s", e.Status, e.Body)
}

// Option configures the HTTP client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

// WithRateLimit sets the outbound request rate.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.Policy
}

// NewClient creates a provider client. The API key is required; callers are
// expected to have validated it at startup.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.propdata.example.com/v2",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(5, 5),
		retry:   resilience.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchRequest struct {
	Filters
	Skip int `json:"skip"`
	Take int `json:"take"`
}

func (c *httpClient) Search(ctx context.Context, f Filters, skip, take int) (*SearchResponse, error) {
	if skip < 0 {
		return nil, eris.Errorf("propdata: negative skip %d", skip)
	}
	if take <= 0 || take > MaxPageSize {
		take = MaxPageSize
	}

	payload, err := json.Marshal(searchRequest{Filters: f, Skip: skip, Take: take})
	if err != nil {
		return nil, eris.Wrap(err, "propdata: marshal search request")
	}

	return resilience.Retry(ctx, c.retry, "propdata.search", func(ctx context.Context) (*SearchResponse, error) {
		return c.doSearch(ctx, payload)
	})
}

func (c *httpClient) doSearch(ctx context.Context, payload []byte) (*SearchResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "propdata: rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "propdata: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		// Network failures are retryable; the retry wrapper decides.
		return nil, resilience.MarkTransient(eris.Wrap(err, "propdata: request failed"), 0)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "propdata: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		perr := &ProviderError{Status: resp.StatusCode, Body: string(body)}
		if resilience.RetryableStatus(resp.StatusCode) {
			return nil, resilience.MarkTransient(perr, resp.StatusCode)
		}
		return nil, perr
	}

	var out SearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "propdata: unmarshal response")
	}
	return &out, nil
}
