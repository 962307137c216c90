package search

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/guardnomad/guardnomad/internal/cache"
	"github.com/guardnomad/guardnomad/internal/knowledge"
	"github.com/guardnomad/guardnomad/internal/provider/resilience"
)

// ErrProviderUnavailable is returned internally when the provider is not
// configured or its breaker is open. It never escapes a public operation.
var ErrProviderUnavailable = errors.New("search provider unavailable")

// Recency windows per operation. Queries are bounded to a published-after
// date to bias results toward current information.
const (
	newsWindow     = 7 * 24 * time.Hour
	eventWindow    = 14 * 24 * time.Hour
	scamWindow     = 30 * 24 * time.Hour
	safetyWindow   = 30 * 24 * time.Hour
	advisoryWindow = 60 * 24 * time.Hour
)

// ServiceConfig holds configuration for the unified search service.
type ServiceConfig struct {
	// Provider is the neural search backend. Nil constructs the service in
	// permanent fallback mode (e.g. missing API key).
	Provider Provider

	// Classifier assigns severity/category (default: KeywordClassifier).
	Classifier Classifier

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is the freshness window for news/scams/events/advisories
	// (default: 15 minutes).
	CacheTTL time.Duration

	// SafetyCacheTTL is the freshness window for the composite safety data
	// (default: 30 minutes).
	SafetyCacheTTL time.Duration

	// Breaker configures the availability gate. By default a single failed
	// provider call short-circuits all operations to fallback for 5 minutes.
	Breaker *resilience.BreakerConfig

	// Now allows tests to supply a virtual clock.
	Now func() time.Time
}

// Service is the unified search service. Every public operation returns a
// non-nil, non-empty result: live data when the provider is healthy, static
// fallback payloads otherwise. Operations never return errors.
type Service struct {
	provider   Provider
	classifier Classifier
	logger     zerolog.Logger
	now        func() time.Time
	safetyTTL  time.Duration

	gate *gobreaker.CircuitBreaker[[]Result]

	newsCache     *cache.TTL[[]NewsItem]
	scamCache     *cache.TTL[[]ScamAlert]
	eventCache    *cache.TTL[[]LocalEvent]
	advisoryCache *cache.TTL[[]TravelSafetyAlert]
	safetyCache   *cache.TTL[*LocationSafetyData]
}

// NewService creates a new unified search service.
func NewService(cfg ServiceConfig) *Service {
	classifier := cfg.Classifier
	if classifier == nil {
		classifier = KeywordClassifier{}
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 15 * time.Minute
	}

	safetyTTL := cfg.SafetyCacheTTL
	if safetyTTL == 0 {
		safetyTTL = 30 * time.Minute
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	breakerCfg := cfg.Breaker
	if breakerCfg == nil {
		def := resilience.DefaultBreakerConfig("search")
		breakerCfg = &def
	}

	cacheCfg := func(ttl time.Duration) cache.Config {
		return cache.Config{TTL: ttl, Now: now}
	}

	return &Service{
		provider:      cfg.Provider,
		classifier:    classifier,
		logger:        cfg.Logger,
		now:           now,
		safetyTTL:     safetyTTL,
		gate:          resilience.NewBreaker[[]Result](*breakerCfg),
		newsCache:     cache.New[[]NewsItem](cacheCfg(cacheTTL)),
		scamCache:     cache.New[[]ScamAlert](cacheCfg(cacheTTL)),
		eventCache:    cache.New[[]LocalEvent](cacheCfg(cacheTTL)),
		advisoryCache: cache.New[[]TravelSafetyAlert](cacheCfg(cacheTTL)),
		safetyCache:   cache.New[*LocationSafetyData](cacheCfg(safetyTTL)),
	}
}

// Available reports whether live search calls are currently attempted.
func (s *Service) Available() bool {
	return s.provider != nil && s.gate.State() != gobreaker.StateOpen
}

// GateState returns the availability gate state for the ops surface.
func (s *Service) GateState() gobreaker.State {
	return s.gate.State()
}

// run executes a query through the availability gate.
func (s *Service) run(ctx context.Context, q Query) ([]Result, error) {
	if s.provider == nil {
		return nil, ErrProviderUnavailable
	}

	results, err := s.gate.Execute(func() ([]Result, error) {
		return s.provider.Search(ctx, q)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrProviderUnavailable
		}
		return nil, err
	}
	return results, nil
}

// LocalNews returns classified recent news for a location. Category is an
// optional filter hint folded into the query.
func (s *Service) LocalNews(ctx context.Context, location, category string) []NewsItem {
	key := cache.Key("local_news", struct {
		Location string `json:"location"`
		Category string `json:"category"`
	}{location, category})

	if cached, ok := s.newsCache.Get(key); ok {
		return cached
	}

	query := "latest local news and safety updates for travelers in " + location
	if category != "" {
		query += " about " + category
	}

	results, err := s.run(ctx, Query{
		Text:           query,
		NumResults:     10,
		IncludeDomains: newsDomains(location),
		PublishedAfter: s.now().Add(-newsWindow),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("location", location).Msg("local news query failed, serving fallback")
		return fallbackNews(location, s.now())
	}

	items := make([]NewsItem, 0, len(results))
	for _, r := range results {
		c := s.classifier.Classify(r.Title + " " + r.Text)

		itemCategory := c.Category
		if category != "" {
			itemCategory = category
		}

		items = append(items, NewsItem{
			ID:          resultID("news", r.URL, r.PublishedAt),
			Title:       strings.TrimSpace(r.Title),
			Summary:     summarize(r.Text, 280),
			URL:         r.URL,
			Source:      hostOf(r.URL),
			Tier:        classifyTier(r.URL),
			Category:    itemCategory,
			Severity:    c.Severity,
			Location:    location,
			PublishedAt: orNow(r.PublishedAt, s.now()),
		})
	}

	if len(items) == 0 {
		return fallbackNews(location, s.now())
	}

	s.newsCache.Set(key, items)
	return items
}

// ScamAlerts returns scams reported for a location, or worldwide patterns
// when no location is given.
func (s *Service) ScamAlerts(ctx context.Context, location string) []ScamAlert {
	key := cache.Key("scam_alerts", struct {
		Location string `json:"location"`
	}{location})

	if cached, ok := s.scamCache.Get(key); ok {
		return cached
	}

	scope := location
	if scope == "" {
		scope = "popular tourist destinations"
	}

	results, err := s.run(ctx, Query{
		Text:           "common tourist scams and fraud warnings in " + scope,
		NumResults:     8,
		IncludeDomains: append(newsDomains(location), governmentDomains(location)...),
		PublishedAfter: s.now().Add(-scamWindow),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("location", location).Msg("scam alerts query failed, serving fallback")
		return fallbackScams(location, s.now())
	}

	alerts := make([]ScamAlert, 0, len(results))
	for _, r := range results {
		text := r.Title + " " + r.Text
		c := s.classifier.Classify(text)

		alerts = append(alerts, ScamAlert{
			ID:            resultID("scam", r.URL, r.PublishedAt),
			ScamType:      extractScamType(text),
			Title:         strings.TrimSpace(r.Title),
			Description:   summarize(r.Text, 280),
			Severity:      c.Severity,
			Location:      location,
			TargetedAreas: extractAffectedAreas(r.Text, 3),
			Advice:        extractRecommendations(r.Text, 3),
			Source:        hostOf(r.URL),
			Tier:          classifyTier(r.URL),
			URL:           r.URL,
			ReportedAt:    orNow(r.PublishedAt, s.now()),
		})
	}

	if len(alerts) == 0 {
		return fallbackScams(location, s.now())
	}

	s.scamCache.Set(key, alerts)
	return alerts
}

// LocalEvents returns upcoming events for a location.
func (s *Service) LocalEvents(ctx context.Context, location, category string) []LocalEvent {
	key := cache.Key("local_events", struct {
		Location string `json:"location"`
		Category string `json:"category"`
	}{location, category})

	if cached, ok := s.eventCache.Get(key); ok {
		return cached
	}

	query := "upcoming events, festivals and concerts in " + location
	if category != "" {
		query = "upcoming " + category + " events in " + location
	}

	results, err := s.run(ctx, Query{
		Text:           query,
		NumResults:     10,
		IncludeDomains: newsDomains(location),
		PublishedAfter: s.now().Add(-eventWindow),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("location", location).Msg("local events query failed, serving fallback")
		return fallbackEvents(location, s.now())
	}

	events := make([]LocalEvent, 0, len(results))
	for _, r := range results {
		eventCategory := category
		if eventCategory == "" {
			eventCategory = "general"
		}

		events = append(events, LocalEvent{
			ID:          resultID("event", r.URL, r.PublishedAt),
			Title:       strings.TrimSpace(r.Title),
			Description: summarize(r.Text, 280),
			Category:    eventCategory,
			Venue:       extractVenue(r.Text),
			StartsAt:    extractEventDate(r.Text, s.now()),
			URL:         r.URL,
			Source:      hostOf(r.URL),
			Location:    location,
		})
	}

	if len(events) == 0 {
		return fallbackEvents(location, s.now())
	}

	s.eventCache.Set(key, events)
	return events
}

// TravelSafetyAlerts returns current travel advisories for a location.
func (s *Service) TravelSafetyAlerts(ctx context.Context, location string) []TravelSafetyAlert {
	key := cache.Key("travel_safety", struct {
		Location string `json:"location"`
	}{location})

	if cached, ok := s.advisoryCache.Get(key); ok {
		return cached
	}

	results, err := s.run(ctx, Query{
		Text:           "current travel advisory and safety warnings for " + location,
		NumResults:     8,
		IncludeDomains: governmentDomains(location),
		PublishedAfter: s.now().Add(-advisoryWindow),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("location", location).Msg("travel safety query failed, serving fallback")
		return fallbackAdvisories(location, s.now())
	}

	alerts := s.mapAdvisories(results, location)
	if len(alerts) == 0 {
		return fallbackAdvisories(location, s.now())
	}

	s.advisoryCache.Set(key, alerts)
	return alerts
}

func (s *Service) mapAdvisories(results []Result, location string) []TravelSafetyAlert {
	alerts := make([]TravelSafetyAlert, 0, len(results))
	for _, r := range results {
		text := r.Title + " " + r.Text
		c := s.classifier.Classify(text)

		alerts = append(alerts, TravelSafetyAlert{
			ID:              resultID("advisory", r.URL, r.PublishedAt),
			Type:            c.Category,
			Severity:        c.Severity,
			Title:           strings.TrimSpace(r.Title),
			Description:     summarize(r.Text, 280),
			Location:        location,
			Authority:       classifyTier(r.URL),
			Source:          hostOf(r.URL),
			URL:             r.URL,
			IssuedAt:        orNow(r.PublishedAt, s.now()),
			Recommendations: extractRecommendations(r.Text, 3),
			AffectedAreas:   extractAffectedAreas(r.Text, 3),
		})
	}
	return alerts
}

// Severity weights subtracted from the baseline safety score.
var severityWeights = map[Severity]int{
	SeverityLow:      3,
	SeverityMedium:   8,
	SeverityHigh:     15,
	SeverityCritical: 25,
}

// LocationSafetyData is the composite operation: four parallel sub-queries
// (crime/safety, advisories, scams, emergency contacts) merged into a single
// per-location aggregate.
func (s *Service) LocationSafetyData(ctx context.Context, lctx LocationContext) *LocationSafetyData {
	key := cache.Key("location_safety", struct {
		Destination string `json:"destination"`
		Country     string `json:"country"`
	}{lctx.Destination, lctx.Country})

	if cached, ok := s.safetyCache.Get(key); ok {
		return cached
	}

	published := s.now().Add(-safetyWindow)
	queries := []Query{
		{Text: "crime rates and safety concerns for travelers in " + lctx.Destination, NumResults: 6, IncludeDomains: newsDomains(lctx.Destination), PublishedAfter: published},
		{Text: "current travel advisories for " + lctx.Destination, NumResults: 6, IncludeDomains: governmentDomains(lctx.Destination), PublishedAfter: published},
		{Text: "common tourist scams in " + lctx.Destination, NumResults: 6, IncludeDomains: newsDomains(lctx.Destination), PublishedAfter: published},
		{Text: "emergency numbers and contacts for tourists in " + lctx.Destination, NumResults: 4, IncludeDomains: governmentDomains(lctx.Destination), PublishedAfter: published},
	}

	resultSets := make([][]Result, len(queries))
	errs := make([]error, len(queries))

	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q Query) {
			defer wg.Done()
			resultSets[i], errs[i] = s.run(ctx, q)
		}(i, q)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	if succeeded == 0 {
		s.logger.Warn().Str("destination", lctx.Destination).Msg("all safety sub-queries failed, serving fallback")
		return fallbackSafetyData(lctx, s.now())
	}

	data := s.deriveSafetyData(lctx, resultSets)
	s.safetyCache.SetWithTTL(key, data, s.safetyTTL)
	return data
}

// deriveSafetyData merges the sub-query result sets into the aggregate.
func (s *Service) deriveSafetyData(lctx LocationContext, resultSets [][]Result) *LocationSafetyData {
	now := s.now()

	// Crime and advisory results become active alerts.
	alerts := s.mapAdvisories(append(append([]Result{}, resultSets[0]...), resultSets[1]...), lctx.Destination)

	// Keep the most severe five.
	for i := 0; i < len(alerts); i++ {
		for j := i + 1; j < len(alerts); j++ {
			if alerts[j].Severity.Rank() > alerts[i].Severity.Rank() {
				alerts[i], alerts[j] = alerts[j], alerts[i]
			}
		}
	}
	if len(alerts) > 5 {
		alerts = alerts[:5]
	}

	// Scam results become common scams, capped at three.
	scams := make([]ScamAlert, 0, 3)
	for _, r := range resultSets[2] {
		text := r.Title + " " + r.Text
		c := s.classifier.Classify(text)
		scams = append(scams, ScamAlert{
			ID:          resultID("scam", r.URL, r.PublishedAt),
			ScamType:    extractScamType(text),
			Title:       strings.TrimSpace(r.Title),
			Description: summarize(r.Text, 200),
			Severity:    c.Severity,
			Location:    lctx.Destination,
			Source:      hostOf(r.URL),
			Tier:        classifyTier(r.URL),
			URL:         r.URL,
			ReportedAt:  orNow(r.PublishedAt, now),
		})
		if len(scams) == 3 {
			break
		}
	}

	// Score: start at 100, subtract per-alert severity weights, clamp to
	// [20,100].
	score := 100
	for _, a := range alerts {
		score -= severityWeights[a.Severity]
	}
	if score < 20 {
		score = 20
	}

	contacts := extractEmergencyContacts(resultSets[3])
	if len(contacts) == 0 {
		contacts = knowledge.EmergencyNumbers(lctx.Country)
	}
	if len(contacts) > 3 {
		contacts = contacts[:3]
	}

	return &LocationSafetyData{
		Location:         lctx.Destination,
		Country:          lctx.Country,
		SafetyScore:      score,
		RiskLevel:        riskLevelFor(score, alerts),
		ActiveAlerts:     alerts,
		CommonScams:      scams,
		EmergencyNumbers: contacts,
		FetchedAt:        now,
	}
}

// riskLevelFor derives the risk level from the score and alert severities.
func riskLevelFor(score int, alerts []TravelSafetyAlert) RiskLevel {
	criticals := 0
	highs := 0
	for _, a := range alerts {
		switch a.Severity {
		case SeverityCritical:
			criticals++
		case SeverityHigh:
			highs++
		}
	}

	switch {
	case criticals > 0 || score < 50:
		return RiskCritical
	case highs >= 2 || score < 70:
		return RiskHigh
	case score < 85:
		return RiskMedium
	default:
		return RiskLow
	}
}

var emergencyNumberRe = regexp.MustCompile(`(?i)\b(police|ambulance|fire|emergency)\b[^0-9]{0,20}\b(\d{2,4})\b`)

// extractEmergencyContacts mines phone numbers from the emergency-contacts
// sub-query. Best effort; callers fall back to the knowledge base.
func extractEmergencyContacts(results []Result) []knowledge.EmergencyContact {
	seen := make(map[string]bool)
	var contacts []knowledge.EmergencyContact
	for _, r := range results {
		for _, m := range emergencyNumberRe.FindAllStringSubmatch(r.Text, -1) {
			name := strings.ToLower(m[1])
			service := strings.ToUpper(name[:1]) + name[1:]
			if seen[service] {
				continue
			}
			seen[service] = true
			contacts = append(contacts, knowledge.EmergencyContact{Service: service, Number: m[2]})
		}
	}
	return contacts
}

// InvalidateCache clears all cached results.
func (s *Service) InvalidateCache() {
	s.newsCache.InvalidateAll()
	s.scamCache.InvalidateAll()
	s.eventCache.InvalidateAll()
	s.advisoryCache.InvalidateAll()
	s.safetyCache.InvalidateAll()
}

// CacheStats returns per-cache statistics for the ops surface.
func (s *Service) CacheStats() map[string]cache.Stats {
	return map[string]cache.Stats{
		"news":       s.newsCache.Stats(),
		"scams":      s.scamCache.Stats(),
		"events":     s.eventCache.Stats(),
		"advisories": s.advisoryCache.Stats(),
		"safety":     s.safetyCache.Stats(),
	}
}

// resultID derives a stable identifier from the source URL and timestamp.
func resultID(prefix, url string, ts time.Time) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(url))
	return fmt.Sprintf("%s-%08x-%d", prefix, h.Sum32(), ts.Unix())
}

// summarize truncates text to at most n runes on a word boundary.
func summarize(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= n {
		return text
	}
	cut := text[:n]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}

// orNow substitutes now for a zero timestamp.
func orNow(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}
