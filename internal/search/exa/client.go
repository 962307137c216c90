// Package exa provides the Exa neural search API client.
package exa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/guardnomad/guardnomad/internal/provider/resilience"
	"github.com/guardnomad/guardnomad/internal/search"
)

const (
	// ProviderName identifies this search provider.
	ProviderName = "exa"

	// DefaultBaseURL is the Exa API base URL.
	DefaultBaseURL = "https://api.exa.ai"
)

// ClientConfig holds configuration for the Exa client.
type ClientConfig struct {
	// APIKey is the Exa API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to the Exa API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an Exa API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Exa client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// HTTPClient exposes the underlying resilient client for health registration.
func (c *Client) HTTPClient() *resilience.Client {
	return c.httpClient
}

// Search executes a neural search query.
func (c *Client) Search(ctx context.Context, q search.Query) ([]search.Result, error) {
	numResults := q.NumResults
	if numResults <= 0 {
		numResults = 10
	}

	body := searchRequest{
		Query:      q.Text,
		Type:       "neural",
		NumResults: numResults,
		Contents:   contentsRequest{Text: true},
	}
	if len(q.IncludeDomains) > 0 {
		body.IncludeDomains = q.IncludeDomains
	}
	if !q.PublishedAfter.IsZero() {
		body.StartPublishedDate = q.PublishedAfter.UTC().Format(time.RFC3339)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var exaResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&exaResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return c.toResults(&exaResp), nil
}

// toResults converts the Exa response to domain results. Missing fields get
// defensive defaults; results without a URL are dropped.
func (c *Client) toResults(resp *searchResponse) []search.Result {
	results := make([]search.Result, 0, len(resp.Results))
	for i := range resp.Results {
		r := &resp.Results[i]
		if r.URL == "" {
			continue
		}

		var published time.Time
		if r.PublishedDate != "" {
			if parsed, err := time.Parse(time.RFC3339, r.PublishedDate); err == nil {
				published = parsed
			} else if parsed, err := time.Parse("2006-01-02", r.PublishedDate); err == nil {
				published = parsed
			}
		}

		results = append(results, search.Result{
			Title:       r.Title,
			URL:         r.URL,
			Text:        r.Text,
			PublishedAt: published,
			Score:       r.Score,
		})
	}
	return results
}

// Exa API request/response structures.

type searchRequest struct {
	Query              string          `json:"query"`
	Type               string          `json:"type"`
	NumResults         int             `json:"numResults"`
	IncludeDomains     []string        `json:"includeDomains,omitempty"`
	StartPublishedDate string          `json:"startPublishedDate,omitempty"`
	Contents           contentsRequest `json:"contents"`
}

type contentsRequest struct {
	Text bool `json:"text"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	PublishedDate string  `json:"publishedDate"`
	Text          string  `json:"text"`
	Score         float64 `json:"score"`
}
