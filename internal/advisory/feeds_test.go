package advisory_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardnomad/guardnomad/internal/advisory"
	"github.com/guardnomad/guardnomad/internal/search"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Travel Advisories</title>
    <item>
      <title>France Travel Advisory</title>
      <link>https://example.gov/advisories/france</link>
      <description>Exercise increased caution in France due to terrorism and civil unrest.</description>
      <pubDate>Wed, 28 May 2025 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Japan Travel Advisory</title>
      <link>https://example.gov/advisories/japan</link>
      <description>Exercise normal precautions in Japan.</description>
      <pubDate>Tue, 27 May 2025 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Thailand Travel Advisory</title>
      <link>https://example.gov/advisories/thailand</link>
      <description>Reconsider travel to some border provinces of Thailand due to civil unrest.</description>
      <pubDate>Mon, 26 May 2025 10:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testRSS))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_FiltersByDestination(t *testing.T) {
	srv := newFeedServer(t)
	reader := advisory.NewFeedReader(advisory.FeedReaderConfig{
		Feeds:  []string{srv.URL},
		Logger: zerolog.Nop(),
	})

	alerts := reader.Fetch(context.Background(), "Paris", "France", 5)

	require.Len(t, alerts, 1)
	assert.Equal(t, "France Travel Advisory", alerts[0].Title)
	assert.Equal(t, search.TierOfficial, alerts[0].Authority)
	assert.Equal(t, "Travel Advisories", alerts[0].Source)
	assert.Equal(t, "Paris", alerts[0].Location)
	assert.Equal(t, time.Date(2025, 5, 28, 10, 0, 0, 0, time.UTC), alerts[0].IssuedAt.UTC())
}

func TestFetch_ClassifiesFeedItems(t *testing.T) {
	srv := newFeedServer(t)
	reader := advisory.NewFeedReader(advisory.FeedReaderConfig{
		Feeds:  []string{srv.URL},
		Logger: zerolog.Nop(),
	})

	alerts := reader.Fetch(context.Background(), "Bangkok", "Thailand", 5)

	require.Len(t, alerts, 1)
	assert.Equal(t, search.SeverityHigh, alerts[0].Severity)
}

func TestFetch_RespectsLimit(t *testing.T) {
	srv := newFeedServer(t)
	reader := advisory.NewFeedReader(advisory.FeedReaderConfig{
		// The same feed twice; the limit caps the total across feeds.
		Feeds:  []string{srv.URL, srv.URL},
		Logger: zerolog.Nop(),
	})

	alerts := reader.Fetch(context.Background(), "Paris", "France", 1)
	assert.Len(t, alerts, 1)
}

func TestFetch_ShortTokensDoNotMatchEverything(t *testing.T) {
	srv := newFeedServer(t)
	reader := advisory.NewFeedReader(advisory.FeedReaderConfig{
		Feeds:  []string{srv.URL},
		Logger: zerolog.Nop(),
	})

	// "a, b" yields no usable keywords, so nothing matches.
	alerts := reader.Fetch(context.Background(), "a, b", "", 5)
	assert.Empty(t, alerts)
}

func TestFetch_UnreachableFeedContributesNothing(t *testing.T) {
	srv := newFeedServer(t)
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(dead.Close)

	reader := advisory.NewFeedReader(advisory.FeedReaderConfig{
		Feeds:  []string{dead.URL, srv.URL},
		Logger: zerolog.Nop(),
	})

	alerts := reader.Fetch(context.Background(), "Tokyo", "Japan", 5)

	require.Len(t, alerts, 1)
	assert.Equal(t, "Japan Travel Advisory", alerts[0].Title)
}

func TestDefaultFeedsAreConfigured(t *testing.T) {
	assert.NotEmpty(t, advisory.DefaultFeeds)
	for _, feed := range advisory.DefaultFeeds {
		assert.Contains(t, feed, "https://")
	}
}
