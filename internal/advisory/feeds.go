// Package advisory reads government travel-advisory RSS/Atom feeds as a
// secondary source of travel-safety alerts alongside the search provider.
package advisory

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/guardnomad/guardnomad/internal/search"
)

// DefaultFeeds are the advisory feeds polled when none are configured.
var DefaultFeeds = []string{
	"https://travel.state.gov/_res/rss/TAsTWs.xml",
	"https://www.gov.uk/foreign-travel-advice.atom",
	"https://www.smartraveller.gov.au/countries/documents/index.rss",
}

// FeedReaderConfig holds configuration for the feed reader.
type FeedReaderConfig struct {
	// Feeds are the advisory feed URLs (default: DefaultFeeds).
	Feeds []string

	// Classifier assigns severity/category (default: keyword classifier).
	Classifier search.Classifier

	// Logger for reader operations.
	Logger zerolog.Logger

	// Timeout is the per-feed fetch timeout (default: 15 seconds).
	Timeout time.Duration

	// Now allows tests to supply a virtual clock.
	Now func() time.Time
}

// FeedReader fetches and filters advisory feeds. Feeds are pull-only, so
// items are filtered locally by destination keywords.
type FeedReader struct {
	feeds      []string
	parser     *gofeed.Parser
	classifier search.Classifier
	logger     zerolog.Logger
	now        func() time.Time
}

// NewFeedReader creates a new advisory feed reader.
func NewFeedReader(cfg FeedReaderConfig) *FeedReader {
	feeds := cfg.Feeds
	if len(feeds) == 0 {
		feeds = DefaultFeeds
	}

	classifier := cfg.Classifier
	if classifier == nil {
		classifier = search.KeywordClassifier{}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	parser := gofeed.NewParser()
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	parser.Client = newHTTPClient(cfg.Timeout)

	return &FeedReader{
		feeds:      feeds,
		parser:     parser,
		classifier: classifier,
		logger:     cfg.Logger,
		now:        now,
	}
}

// Fetch returns advisories mentioning the destination, newest first, up to
// limit. Failures are logged and skipped; an unreachable feed contributes
// nothing rather than failing the aggregation.
func (r *FeedReader) Fetch(ctx context.Context, destination, country string, limit int) []search.TravelSafetyAlert {
	if limit <= 0 {
		limit = 5
	}

	keywords := destinationKeywords(destination, country)
	if len(keywords) == 0 {
		return nil
	}

	var alerts []search.TravelSafetyAlert
	for _, feedURL := range r.feeds {
		if len(alerts) >= limit {
			break
		}

		feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			r.logger.Warn().Err(err).Str("feed", feedURL).Msg("advisory feed fetch failed")
			continue
		}

		for _, item := range feed.Items {
			if len(alerts) >= limit {
				break
			}

			text := item.Title + " " + item.Description
			if !matchesAny(strings.ToLower(text), keywords) {
				continue
			}

			issued := r.now()
			if item.PublishedParsed != nil {
				issued = *item.PublishedParsed
			} else if item.UpdatedParsed != nil {
				issued = *item.UpdatedParsed
			}

			c := r.classifier.Classify(text)

			alerts = append(alerts, search.TravelSafetyAlert{
				ID:          feedItemID(item.Link, issued),
				Type:        c.Category,
				Severity:    c.Severity,
				Title:       strings.TrimSpace(item.Title),
				Description: strings.TrimSpace(item.Description),
				Location:    destination,
				Authority:   search.TierOfficial,
				Source:      strings.TrimSpace(feed.Title),
				URL:         strings.TrimSpace(item.Link),
				IssuedAt:    issued,
			})
		}
	}

	return alerts
}

// destinationKeywords builds the lowercase match set for feed filtering.
// Short tokens are dropped to avoid matching everything.
func destinationKeywords(destination, country string) []string {
	var keywords []string
	for _, raw := range append(strings.FieldsFunc(destination, func(r rune) bool {
		return r == ',' || r == ' '
	}), country) {
		token := strings.ToLower(strings.TrimSpace(raw))
		if len(token) >= 4 {
			keywords = append(keywords, token)
		}
	}
	return keywords
}

func matchesAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func feedItemID(link string, issued time.Time) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(link))
	return fmt.Sprintf("feed-%08x-%d", h.Sum32(), issued.Unix())
}
