package weather_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardnomad/guardnomad/internal/weather"
)

// mockProvider is a controllable weather backend.
type mockProvider struct {
	mu            sync.Mutex
	currentCalls  int
	forecastCalls int
	err           error
	obs           *weather.Observation
	forecast      *weather.Forecast
}

func (m *mockProvider) Current(_ context.Context, _, _ float64) (*weather.Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.obs, nil
}

func (m *mockProvider) Forecast(_ context.Context, _, _ float64, _ int) (*weather.Forecast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forecastCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.forecast, nil
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) calls() (current, forecast int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentCalls, m.forecastCalls
}

func newTestService(p weather.Provider) *weather.Service {
	return weather.NewService(weather.ServiceConfig{
		Provider: p,
		Logger:   zerolog.Nop(),
	})
}

func TestCurrent_InvalidCoordinates(t *testing.T) {
	svc := newTestService(nil)

	tests := []struct {
		name     string
		lat, lon float64
	}{
		{"lat too high", 91, 0},
		{"lat too low", -91, 0},
		{"lon too high", 0, 181},
		{"lon too low", 0, -181},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Current(context.Background(), tt.lat, tt.lon)
			assert.ErrorIs(t, err, weather.ErrInvalidCoordinates)

			_, err = svc.GetForecast(context.Background(), tt.lat, tt.lon)
			assert.ErrorIs(t, err, weather.ErrInvalidCoordinates)
		})
	}
}

func TestCurrent_SyntheticWithoutProvider(t *testing.T) {
	svc := newTestService(nil)

	obs, err := svc.Current(context.Background(), 48.8566, 2.3522)
	require.NoError(t, err)

	assert.True(t, obs.Synthetic)
	assert.Equal(t, 48.8566, obs.Lat)
	assert.GreaterOrEqual(t, obs.Humidity, 40.0)
	assert.False(t, svc.Live())
}

func TestCurrent_SyntheticIsDeterministicPerGridCell(t *testing.T) {
	svc := newTestService(nil)
	other := newTestService(nil)

	a, err := svc.Current(context.Background(), 48.8566, 2.3522)
	require.NoError(t, err)

	// A fresh service instance generates identical conditions for a point in
	// the same grid cell.
	b, err := other.Current(context.Background(), 48.8570, 2.3530)
	require.NoError(t, err)

	assert.Equal(t, a.TempC, b.TempC)
	assert.Equal(t, a.Condition, b.Condition)
	assert.Equal(t, a.Humidity, b.Humidity)
}

func TestCurrent_UsesProviderWhenHealthy(t *testing.T) {
	provider := &mockProvider{
		obs: &weather.Observation{Lat: 1, Lon: 2, TempC: 21.5, Condition: weather.ConditionClear},
	}
	svc := newTestService(provider)

	obs, err := svc.Current(context.Background(), 1, 2)
	require.NoError(t, err)

	assert.False(t, obs.Synthetic)
	assert.Equal(t, 21.5, obs.TempC)
	assert.True(t, svc.Live())
}

func TestCurrent_ProviderFailureFallsBackToSynthetic(t *testing.T) {
	provider := &mockProvider{err: errors.New("quota exceeded")}
	svc := newTestService(provider)

	obs, err := svc.Current(context.Background(), 35.68, 139.65)
	require.NoError(t, err, "provider failures must not surface")
	assert.True(t, obs.Synthetic)
}

func TestCurrent_NearbyPointsShareCacheCell(t *testing.T) {
	provider := &mockProvider{
		obs: &weather.Observation{TempC: 18},
	}
	svc := newTestService(provider)

	_, err := svc.Current(context.Background(), 52.5200, 13.4050)
	require.NoError(t, err)
	_, err = svc.Current(context.Background(), 52.5210, 13.4060)
	require.NoError(t, err)

	current, _ := provider.calls()
	assert.Equal(t, 1, current, "points in the same 0.1 degree cell share a cache entry")
}

func TestCurrent_CacheExpires(t *testing.T) {
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	provider := &mockProvider{obs: &weather.Observation{TempC: 18}}
	svc := weather.NewService(weather.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
		CacheTTL: 15 * time.Minute,
		Now:      func() time.Time { return clock },
	})

	_, err := svc.Current(context.Background(), 52.52, 13.40)
	require.NoError(t, err)

	clock = clock.Add(16 * time.Minute)
	_, err = svc.Current(context.Background(), 52.52, 13.40)
	require.NoError(t, err)

	current, _ := provider.calls()
	assert.Equal(t, 2, current)
}

func TestGetForecast_SyntheticHasThreeOrderedDays(t *testing.T) {
	svc := newTestService(nil)

	forecast, err := svc.GetForecast(context.Background(), -33.8688, 151.2093)
	require.NoError(t, err)

	assert.True(t, forecast.Synthetic)
	require.Len(t, forecast.Days, weather.ForecastDays)

	for i, day := range forecast.Days {
		assert.LessOrEqual(t, day.MinC, day.MaxC, "day %d", i)
		assert.GreaterOrEqual(t, day.ChanceOfRain, 0, "day %d", i)
		assert.Less(t, day.ChanceOfRain, 70, "day %d", i)
		if i > 0 {
			assert.True(t, day.Date.After(forecast.Days[i-1].Date), "dates should ascend")
		}
	}
}

func TestGetForecast_UsesProviderWhenHealthy(t *testing.T) {
	provider := &mockProvider{
		forecast: &weather.Forecast{
			Days: []weather.DailyForecast{{MinC: 10, MaxC: 20, Condition: weather.ConditionRain}},
		},
	}
	svc := newTestService(provider)

	forecast, err := svc.GetForecast(context.Background(), 1, 2)
	require.NoError(t, err)

	assert.False(t, forecast.Synthetic)
	require.Len(t, forecast.Days, 1)
	assert.Equal(t, weather.ConditionRain, forecast.Days[0].Condition)
}

func TestInvalidateCache(t *testing.T) {
	provider := &mockProvider{obs: &weather.Observation{TempC: 18}}
	svc := newTestService(provider)

	_, err := svc.Current(context.Background(), 52.52, 13.40)
	require.NoError(t, err)

	svc.InvalidateCache()

	_, err = svc.Current(context.Background(), 52.52, 13.40)
	require.NoError(t, err)

	current, _ := provider.calls()
	assert.Equal(t, 2, current)
}
