package alert

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/guardnomad/guardnomad/internal/cache"
	"github.com/guardnomad/guardnomad/internal/knowledge"
	"github.com/guardnomad/guardnomad/internal/search"
	"github.com/guardnomad/guardnomad/internal/weather"
)

// Searcher is the slice of the unified search service the orchestrator uses.
type Searcher interface {
	LocalNews(ctx context.Context, location, category string) []search.NewsItem
	TravelSafetyAlerts(ctx context.Context, location string) []search.TravelSafetyAlert
	LocationSafetyData(ctx context.Context, lctx search.LocationContext) *search.LocationSafetyData
}

// AdvisoryFeed supplies government advisory feed items for a destination.
type AdvisoryFeed interface {
	Fetch(ctx context.Context, destination, country string, limit int) []search.TravelSafetyAlert
}

// Forecaster supplies a short-range forecast for the weather-awareness alert.
type Forecaster interface {
	GetForecast(ctx context.Context, lat, lon float64) (*weather.Forecast, error)
}

// Repository persists generated alerts. Saves are best-effort; the
// orchestrator never fails a request over a write error.
type Repository interface {
	SaveAlerts(ctx context.Context, destination string, alerts []SafetyAlert) error
}

// ServiceConfig holds configuration for the alert orchestration service.
type ServiceConfig struct {
	// Search is the unified search service. Nil degrades the orchestrator
	// to knowledge-base and weather alerts only.
	Search Searcher

	// Advisories is the government feed reader (optional).
	Advisories AdvisoryFeed

	// Weather enriches the weather-awareness alert with forecast data
	// (optional; a static reminder is produced without it).
	Weather Forecaster

	// Repository receives a best-effort copy of each generated alert set
	// (optional).
	Repository Repository

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is the freshness window for generated alert sets
	// (default: 30 minutes).
	CacheTTL time.Duration

	// Now allows tests to supply a virtual clock.
	Now func() time.Time
}

// Service aggregates safety alerts for a destination from search results,
// advisory feeds, the weather service, and the static knowledge base.
// GenerateSafetyAlerts never returns an error and never returns an empty
// slice; every degradation path ends in the static fallback set.
type Service struct {
	search     Searcher
	advisories AdvisoryFeed
	weather    Forecaster
	repo       Repository
	logger     zerolog.Logger
	now        func() time.Time

	alertCache *cache.TTL[[]SafetyAlert]
}

// NewService creates a new alert orchestration service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 30 * time.Minute
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		search:     cfg.Search,
		advisories: cfg.Advisories,
		weather:    cfg.Weather,
		repo:       cfg.Repository,
		logger:     cfg.Logger,
		now:        now,
		alertCache: cache.New[[]SafetyAlert](cache.Config{TTL: cacheTTL, Now: now}),
	}
}

// GenerateSafetyAlerts produces the prioritized alert set for a location.
// A context without a usable location yields the generic fallback pair.
func (s *Service) GenerateSafetyAlerts(ctx context.Context, lctx LocationContext) (alerts []SafetyAlert) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("destination", lctx.Destination).
				Msg("alert aggregation panicked, serving fallback")
			alerts = FallbackAlerts(s.now())
		}
	}()

	if !lctx.HasLocation() {
		return FallbackAlerts(s.now())
	}

	key := lctx.CacheKey()
	if cached, ok := s.alertCache.Get(key); ok {
		return cached
	}

	now := s.now()
	timing := lctx.Timing(now)

	var (
		safetyData   *search.LocationSafetyData
		news         []search.NewsItem
		searchAlerts []search.TravelSafetyAlert
		feedAlerts   []search.TravelSafetyAlert
		weatherAlert *SafetyAlert
		wg           sync.WaitGroup
	)

	if s.search != nil {
		if lctx.Coordinates != nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				safetyData = s.search.LocationSafetyData(ctx, searchContext(lctx))
			}()
		}

		wg.Add(2)
		go func() {
			defer wg.Done()
			news = s.search.LocalNews(ctx, lctx.Destination, "safety")
		}()
		go func() {
			defer wg.Done()
			searchAlerts = s.search.TravelSafetyAlerts(ctx, lctx.Destination)
		}()
	}

	if s.advisories != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			feedAlerts = s.advisories.Fetch(ctx, lctx.Destination, lctx.Country, 5)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		weatherAlert = s.weatherAwarenessAlert(ctx, lctx, timing, now)
	}()

	wg.Wait()

	alerts = s.assemble(lctx, safetyData, news, searchAlerts, feedAlerts, weatherAlert, now)
	alerts = Prioritize(alerts)
	if len(alerts) == 0 {
		alerts = FallbackAlerts(now)
	}

	s.saveAsync(ctx, lctx.Destination, alerts)
	s.alertCache.Set(key, alerts)
	return alerts
}

// assemble merges all gathered signals into an unordered alert list.
func (s *Service) assemble(
	lctx LocationContext,
	safetyData *search.LocationSafetyData,
	news []search.NewsItem,
	searchAlerts, feedAlerts []search.TravelSafetyAlert,
	weatherAlert *SafetyAlert,
	now time.Time,
) []SafetyAlert {
	var alerts []SafetyAlert
	seen := make(map[string]bool)

	add := func(a SafetyAlert) {
		if a.ID == "" || seen[a.ID] {
			return
		}
		seen[a.ID] = true
		alerts = append(alerts, a)
	}

	// Core alerts: live active alerts first, then a score summary, then the
	// knowledge base when nothing live is available.
	switch {
	case safetyData != nil && len(safetyData.ActiveAlerts) > 0:
		for _, t := range safetyData.ActiveAlerts {
			add(s.fromTravelAlert(t, lctx))
		}
	case safetyData != nil:
		add(s.scoreAlert(safetyData, lctx, now))
	default:
		add(s.adviceAlert(lctx, now))
	}

	for _, t := range searchAlerts {
		add(s.fromTravelAlert(t, lctx))
	}
	for _, t := range feedAlerts {
		add(s.fromTravelAlert(t, lctx))
	}

	// News only contributes when it carries real signal.
	for _, item := range news {
		if item.Severity.Rank() < search.SeverityMedium.Rank() {
			continue
		}
		add(s.fromNewsItem(item, lctx))
	}

	if weatherAlert != nil {
		add(*weatherAlert)
	}

	return alerts
}

// LocationSpecificAdvice returns the static knowledge-base guidance for a
// country. The last tip always names the primary emergency number.
func (s *Service) LocationSpecificAdvice(country string) knowledge.Advice {
	advice, _ := knowledge.ForCountry(country)
	return advice
}

// InvalidateCache clears the generated alert cache.
func (s *Service) InvalidateCache() {
	s.alertCache.InvalidateAll()
}

// CacheStats returns alert cache statistics for the ops surface.
func (s *Service) CacheStats() cache.Stats {
	return s.alertCache.Stats()
}

// saveAsync persists the alert set without blocking or failing the request.
func (s *Service) saveAsync(ctx context.Context, destination string, alerts []SafetyAlert) {
	if s.repo == nil {
		return
	}

	saveCtx := context.WithoutCancel(ctx)
	go func() {
		saveCtx, cancel := context.WithTimeout(saveCtx, 10*time.Second)
		defer cancel()

		if err := s.repo.SaveAlerts(saveCtx, destination, alerts); err != nil {
			s.logger.Warn().Err(err).Str("destination", destination).
				Msg("persisting generated alerts failed")
		}
	}()
}

// scoreAlert summarizes the safety score when no individual alerts are live.
func (s *Service) scoreAlert(data *search.LocationSafetyData, lctx LocationContext, now time.Time) SafetyAlert {
	var assessment string
	switch {
	case data.SafetyScore >= 85:
		assessment = "This destination is relatively safe for travelers."
	case data.SafetyScore >= 70:
		assessment = "This destination has moderate safety concerns. Stay alert in crowded areas."
	case data.SafetyScore >= 50:
		assessment = "This destination has elevated safety risks. Take extra precautions."
	default:
		assessment = "This destination has significant safety concerns. Review current advisories carefully."
	}

	advice := make([]string, 0, 4)
	for _, scam := range data.CommonScams {
		advice = append(advice, "Watch out for "+strings.ToLower(scam.ScamType)+" scams")
		if len(advice) == 2 {
			break
		}
	}
	if len(data.EmergencyNumbers) > 0 {
		c := data.EmergencyNumbers[0]
		advice = append(advice, fmt.Sprintf("%s: %s", c.Service, c.Number))
	}

	return SafetyAlert{
		ID:       fmt.Sprintf("score-%s-%d", slugify(lctx.Destination), now.Unix()),
		Category: CategorySafety,
		Severity: ParseSeverity(string(data.RiskLevel)),
		Title:    fmt.Sprintf("Safety Overview: %s", lctx.Destination),
		Message: fmt.Sprintf("Current safety score for %s is %d/100. %s",
			lctx.Destination, data.SafetyScore, assessment),
		Location:    lctx.Destination,
		Coordinates: lctx.Coordinates,
		Source:      Source{Name: "GuardNomad Safety Index", Tier: TierCommunity},
		Timestamp:   now,
		Advice:      advice,
	}
}

// adviceAlert falls back to the country knowledge base when no live safety
// data is available.
func (s *Service) adviceAlert(lctx LocationContext, now time.Time) SafetyAlert {
	advice, known := knowledge.ForCountry(lctx.Country)

	title := "Travel Advice: " + lctx.Destination
	message := fmt.Sprintf("General safety guidance for %s. Baseline risk level: %s.",
		lctx.Destination, advice.Risk)
	if !known {
		message = fmt.Sprintf("No destination-specific data available for %s. General travel guidance applies.",
			lctx.Destination)
	}

	return SafetyAlert{
		ID:          fmt.Sprintf("advice-%s-%d", slugify(lctx.Destination), now.Unix()),
		Category:    CategorySafety,
		Severity:    ParseSeverity(advice.Risk),
		Title:       title,
		Message:     message,
		Location:    lctx.Destination,
		Coordinates: lctx.Coordinates,
		Source:      Source{Name: "GuardNomad Knowledge Base", Tier: TierCommunity},
		Timestamp:   now,
		Advice:      advice.Tips,
	}
}

// weatherAwarenessAlert builds the standing weather reminder, enriched with
// forecast data when coordinates and a weather service are available.
func (s *Service) weatherAwarenessAlert(ctx context.Context, lctx LocationContext, timing *TripTiming, now time.Time) *SafetyAlert {
	severity := SeverityLow
	message := "Check the local forecast before heading out and plan for changing conditions."

	if s.weather != nil && lctx.Coordinates != nil {
		forecast, err := s.weather.GetForecast(ctx, lctx.Coordinates.Lat, lctx.Coordinates.Lon)
		if err != nil {
			s.logger.Warn().Err(err).Str("destination", lctx.Destination).
				Msg("forecast lookup for weather alert failed")
		} else if forecast != nil {
			storms, rainy := 0, 0
			for _, day := range forecast.Days {
				switch day.Condition {
				case weather.ConditionStorm:
					storms++
				case weather.ConditionRain, weather.ConditionSnow:
					rainy++
				}
			}
			switch {
			case storms > 0:
				severity = SeverityMedium
				message = fmt.Sprintf("Storms are expected in %s over the next %d days. Keep plans flexible and follow local guidance.",
					lctx.Destination, len(forecast.Days))
			case rainy >= 2:
				message = fmt.Sprintf("Wet weather is likely in %s over the next %d days. Pack accordingly.",
					lctx.Destination, len(forecast.Days))
			default:
				message = fmt.Sprintf("No significant weather concerns in %s for the next %d days.",
					lctx.Destination, len(forecast.Days))
			}
		}
	}

	if timing != nil && timing.Upcoming && timing.DaysUntil <= 7 {
		message += fmt.Sprintf(" Your trip starts in %d days.", timing.DaysUntil)
	}

	return &SafetyAlert{
		ID:          fmt.Sprintf("weather-%s-%d", slugify(lctx.Destination), now.Unix()),
		Category:    CategoryWeather,
		Severity:    severity,
		Title:       "Weather Awareness",
		Message:     message,
		Location:    lctx.Destination,
		Coordinates: lctx.Coordinates,
		Source:      Source{Name: "GuardNomad Weather", Tier: TierCommunity},
		Timestamp:   now,
	}
}

// fromTravelAlert converts a search-side advisory into the unified model.
func (s *Service) fromTravelAlert(t search.TravelSafetyAlert, lctx LocationContext) SafetyAlert {
	location := t.Location
	if location == "" {
		location = lctx.Destination
	}

	return SafetyAlert{
		ID:          t.ID,
		Category:    MapCategory(t.Type),
		Severity:    ParseSeverity(string(t.Severity)),
		Title:       t.Title,
		Message:     t.Description,
		Location:    location,
		Coordinates: lctx.Coordinates,
		Source:      Source{Name: t.Source, URL: t.URL, Tier: SourceTier(t.Authority)},
		Timestamp:   t.IssuedAt,
		Advice:      t.Recommendations,
		ExpiresAt:   t.ExpiresAt,
	}
}

// fromNewsItem converts a classified news item into the unified model.
func (s *Service) fromNewsItem(item search.NewsItem, lctx LocationContext) SafetyAlert {
	return SafetyAlert{
		ID:        item.ID,
		Category:  MapCategory(item.Category),
		Severity:  ParseSeverity(string(item.Severity)),
		Title:     item.Title,
		Message:   item.Summary,
		Location:  lctx.Destination,
		Source:    Source{Name: item.Source, URL: item.URL, Tier: SourceTier(item.Tier)},
		Timestamp: item.PublishedAt,
	}
}

// searchContext projects the alert-side context onto the search-side one.
func searchContext(lctx LocationContext) search.LocationContext {
	out := search.LocationContext{
		Destination: lctx.Destination,
		Country:     lctx.Country,
		City:        lctx.City,
	}
	if lctx.Coordinates != nil {
		out.Lat = &lctx.Coordinates.Lat
		out.Lon = &lctx.Coordinates.Lon
	}
	return out
}

// slugify reduces a destination name to a lowercase identifier fragment.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == ',' || r == '-':
			if b.Len() > 0 && b.String()[b.Len()-1] != '-' {
				b.WriteByte('-')
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
