package weather

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/guardnomad/guardnomad/internal/cache"
)

// ForecastDays is the number of forecast days requested from providers and
// produced by the synthetic generator.
const ForecastDays = 3

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Provider is the weather data provider. Nil means synthetic-only mode
	// (e.g. no API key configured).
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache weather data (default: 15 minutes).
	CacheTTL time.Duration

	// CacheGridSize groups nearby points into shared cache cells, in
	// degrees (default: 0.1, ~11km).
	CacheGridSize float64

	// Now allows tests to supply a virtual clock.
	Now func() time.Time
}

// Service provides weather data with caching and synthetic degradation.
// Public methods only fail on invalid coordinates; provider failures are
// absorbed by the synthetic generator.
type Service struct {
	provider Provider
	logger   zerolog.Logger
	gridSize float64
	now      func() time.Time

	obsCache      *cache.TTL[*Observation]
	forecastCache *cache.TTL[*Forecast]
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 15 * time.Minute
	}

	gridSize := cfg.CacheGridSize
	if gridSize == 0 {
		gridSize = 0.1
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		provider:      cfg.Provider,
		logger:        cfg.Logger,
		gridSize:      gridSize,
		now:           now,
		obsCache:      cache.New[*Observation](cache.Config{TTL: cacheTTL, Now: now}),
		forecastCache: cache.New[*Forecast](cache.Config{TTL: cacheTTL, Now: now}),
	}
}

// Current returns current conditions for a location, synthetic when the
// provider is absent or failing.
func (s *Service) Current(ctx context.Context, lat, lon float64) (*Observation, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	key := s.cacheKey(lat, lon)
	if cached, ok := s.obsCache.Get(key); ok {
		return cached, nil
	}

	if s.provider != nil {
		obs, err := s.provider.Current(ctx, lat, lon)
		if err == nil {
			s.obsCache.Set(key, obs)
			return obs, nil
		}
		s.logger.Warn().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("weather provider failed, generating synthetic conditions")
	}

	obs := s.syntheticObservation(lat, lon)
	s.obsCache.Set(key, obs)
	return obs, nil
}

// GetForecast returns a 3-day forecast for a location, synthetic when the
// provider is absent or failing.
func (s *Service) GetForecast(ctx context.Context, lat, lon float64) (*Forecast, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	key := s.cacheKey(lat, lon)
	if cached, ok := s.forecastCache.Get(key); ok {
		return cached, nil
	}

	if s.provider != nil {
		forecast, err := s.provider.Forecast(ctx, lat, lon, ForecastDays)
		if err == nil {
			s.forecastCache.Set(key, forecast)
			return forecast, nil
		}
		s.logger.Warn().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("weather provider failed, generating synthetic forecast")
	}

	forecast := s.syntheticForecast(lat, lon)
	s.forecastCache.Set(key, forecast)
	return forecast, nil
}

// Live reports whether a real provider is configured.
func (s *Service) Live() bool {
	return s.provider != nil
}

// InvalidateCache clears all cached data.
func (s *Service) InvalidateCache() {
	s.obsCache.InvalidateAll()
	s.forecastCache.InvalidateAll()
}

// cacheKey groups nearby points into grid cells.
func (s *Service) cacheKey(lat, lon float64) string {
	gridLat := math.Floor(lat/s.gridSize) * s.gridSize
	gridLon := math.Floor(lon/s.gridSize) * s.gridSize
	return fmt.Sprintf("%.2f:%.2f", gridLat, gridLon)
}

// syntheticObservation generates plausible conditions deterministically from
// the location, so repeated requests for the same place agree.
func (s *Service) syntheticObservation(lat, lon float64) *Observation {
	rng := s.seededRand(lat, lon, 0)
	now := s.now()

	base := baselineTempC(lat, now)
	conditions := []Condition{ConditionClear, ConditionCloudy, ConditionRain, ConditionCloudy, ConditionClear}

	return &Observation{
		Lat:        lat,
		Lon:        lon,
		TempC:      round1(base + rng.Float64()*8 - 4),
		Humidity:   float64(40 + rng.Intn(50)),
		WindKph:    round1(5 + rng.Float64()*25),
		Condition:  conditions[rng.Intn(len(conditions))],
		Synthetic:  true,
		ObservedAt: now,
		FetchedAt:  now,
	}
}

// syntheticForecast generates a deterministic 3-day forecast.
func (s *Service) syntheticForecast(lat, lon float64) *Forecast {
	now := s.now()
	forecast := &Forecast{
		Lat:       lat,
		Lon:       lon,
		Days:      make([]DailyForecast, 0, ForecastDays),
		Synthetic: true,
		FetchedAt: now,
	}

	conditions := []Condition{ConditionClear, ConditionCloudy, ConditionRain, ConditionCloudy}
	for day := 0; day < ForecastDays; day++ {
		rng := s.seededRand(lat, lon, day+1)
		base := baselineTempC(lat, now)
		minC := base - 3 - rng.Float64()*3
		forecast.Days = append(forecast.Days, DailyForecast{
			Date:         now.AddDate(0, 0, day),
			MinC:         round1(minC),
			MaxC:         round1(minC + 5 + rng.Float64()*5),
			Condition:    conditions[rng.Intn(len(conditions))],
			ChanceOfRain: rng.Intn(70),
		})
	}
	return forecast
}

// seededRand derives a deterministic RNG from the location grid cell and a
// salt, so synthetic weather is stable per place and day offset.
func (s *Service) seededRand(lat, lon float64, salt int) *rand.Rand {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s:%d", s.cacheKey(lat, lon), salt)
	return rand.New(rand.NewSource(int64(h.Sum64()))) //nolint:gosec // synthetic weather, not crypto
}

// baselineTempC approximates a seasonal baseline temperature by latitude.
func baselineTempC(lat float64, now time.Time) float64 {
	// Warmer at the equator, with a simple seasonal swing by hemisphere.
	base := 28 - math.Abs(lat)*0.5
	seasonal := 8 * math.Cos(2*math.Pi*float64(now.YearDay()-196)/365)
	if lat < 0 {
		seasonal = -seasonal
	}
	return base + seasonal
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// validateCoordinates checks if coordinates are valid.
func validateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}
