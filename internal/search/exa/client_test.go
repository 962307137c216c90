package exa_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardnomad/guardnomad/internal/search"
	"github.com/guardnomad/guardnomad/internal/search/exa"
)

func TestSearch_SendsNeuralQuery(t *testing.T) {
	var captured map[string]any
	var gotPath, gotKey, gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	client := exa.NewClient(exa.ClientConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
	})

	_, err := client.Search(context.Background(), search.Query{
		Text:           "safety updates for travelers in Lisbon",
		NumResults:     5,
		IncludeDomains: []string{"reuters.com", "bbc.com"},
		PublishedAfter: time.Date(2025, 5, 25, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "/search", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "application/json", gotContentType)

	assert.Equal(t, "safety updates for travelers in Lisbon", captured["query"])
	assert.Equal(t, "neural", captured["type"])
	assert.Equal(t, float64(5), captured["numResults"])
	assert.Equal(t, []any{"reuters.com", "bbc.com"}, captured["includeDomains"])
	assert.Equal(t, "2025-05-25T00:00:00Z", captured["startPublishedDate"])
	assert.Equal(t, map[string]any{"text": true}, captured["contents"])
}

func TestSearch_DefaultsNumResults(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	client := exa.NewClient(exa.ClientConfig{APIKey: "k", BaseURL: srv.URL})

	_, err := client.Search(context.Background(), search.Query{Text: "q"})
	require.NoError(t, err)

	assert.Equal(t, float64(10), captured["numResults"])
	assert.NotContains(t, captured, "includeDomains")
	assert.NotContains(t, captured, "startPublishedDate")
}

func TestSearch_MapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"results": [
				{
					"title": "Advisory update",
					"url": "https://travel.state.gov/a",
					"publishedDate": "2025-05-28T09:30:00Z",
					"text": "Exercise increased caution.",
					"score": 0.92
				},
				{
					"title": "Date only",
					"url": "https://example.com/b",
					"publishedDate": "2025-05-27",
					"text": "Body."
				},
				{
					"title": "No URL, dropped",
					"publishedDate": "2025-05-26T00:00:00Z",
					"text": "Body."
				}
			]
		}`))
	}))
	defer srv.Close()

	client := exa.NewClient(exa.ClientConfig{APIKey: "k", BaseURL: srv.URL})

	results, err := client.Search(context.Background(), search.Query{Text: "q"})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "Advisory update", results[0].Title)
	assert.Equal(t, "https://travel.state.gov/a", results[0].URL)
	assert.Equal(t, time.Date(2025, 5, 28, 9, 30, 0, 0, time.UTC), results[0].PublishedAt)
	assert.InDelta(t, 0.92, results[0].Score, 0.001)

	assert.Equal(t, time.Date(2025, 5, 27, 0, 0, 0, 0, time.UTC), results[1].PublishedAt)
}

func TestSearch_UnparseableDateIsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"title":"t","url":"https://example.com","publishedDate":"yesterday","text":"b"}]}`))
	}))
	defer srv.Close()

	client := exa.NewClient(exa.ClientConfig{APIKey: "k", BaseURL: srv.URL})

	results, err := client.Search(context.Background(), search.Query{Text: "q"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].PublishedAt.IsZero())
}

func TestSearch_NonOKStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := exa.NewClient(exa.ClientConfig{APIKey: "bad", BaseURL: srv.URL})

	_, err := client.Search(context.Background(), search.Query{Text: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestName(t *testing.T) {
	client := exa.NewClient(exa.ClientConfig{APIKey: "k"})
	assert.Equal(t, exa.ProviderName, client.Name())
}
