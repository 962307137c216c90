package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardnomad/guardnomad/internal/alert"
	"github.com/guardnomad/guardnomad/internal/weather"
	"github.com/guardnomad/guardnomad/internal/worker"
)

func TestDefaultRefreshConfig(t *testing.T) {
	cfg := worker.DefaultRefreshConfig()

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.True(t, cfg.WarmAlerts)
	assert.True(t, cfg.WarmWeather)
	assert.Len(t, cfg.Targets, 10)
}

func TestDefaultRefreshTargets_HaveValidCoordinates(t *testing.T) {
	for _, target := range worker.DefaultRefreshTargets() {
		assert.NotEmpty(t, target.Destination)
		assert.NotEmpty(t, target.Country)
		assert.InDelta(t, 0, target.Lat, 90, target.Destination)
		assert.InDelta(t, 0, target.Lon, 180, target.Destination)
		assert.GreaterOrEqual(t, target.Priority, 1, target.Destination)
	}
}

func TestRun_WarmsAllTargets(t *testing.T) {
	targets := []worker.RefreshTarget{
		{Destination: "Paris", Country: "France", Lat: 48.8566, Lon: 2.3522},
		{Destination: "Rome", Country: "Italy", Lat: 41.9028, Lon: 12.4964},
		{Destination: "Tokyo", Country: "Japan", Lat: 35.6762, Lon: 139.6503},
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Targets:     targets,
			Concurrency: 2,
			WarmAlerts:  true,
			WarmWeather: true,
		},
		Logger:         zerolog.Nop(),
		AlertService:   alert.NewService(alert.ServiceConfig{Logger: zerolog.Nop()}),
		WeatherService: weather.NewService(weather.ServiceConfig{Logger: zerolog.Nop()}),
	})

	result := job.Run(context.Background())

	assert.Equal(t, 3, result.TotalTargets)
	assert.Equal(t, 3, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Greater(t, result.AlertsCached, 0, "fallback alerts still count as cached")
}

func TestRun_WithoutServicesStillSucceeds(t *testing.T) {
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Targets:     []worker.RefreshTarget{{Destination: "Paris", Country: "France"}},
			WarmAlerts:  true,
			WarmWeather: true,
		},
		Logger: zerolog.Nop(),
	})

	result := job.Run(context.Background())

	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 0, result.AlertsCached)
}

func TestRun_InvalidTargetCoordinatesFail(t *testing.T) {
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Targets: []worker.RefreshTarget{
				{Destination: "Broken", Country: "Nowhere", Lat: 200, Lon: 0},
				{Destination: "Paris", Country: "France", Lat: 48.8566, Lon: 2.3522},
			},
			WarmWeather: true,
		},
		Logger:         zerolog.Nop(),
		WeatherService: weather.NewService(weather.ServiceConfig{Logger: zerolog.Nop()}),
	})

	result := job.Run(context.Background())

	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Failed)
}

func TestRun_UpdatesMetricsAcrossRuns(t *testing.T) {
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Targets: []worker.RefreshTarget{{Destination: "Paris", Country: "France", Lat: 48.8566, Lon: 2.3522}},
		},
		Logger: zerolog.Nop(),
	})

	job.Run(context.Background())
	job.Run(context.Background())

	metrics := job.Metrics()
	assert.Equal(t, int64(2), metrics.TotalRuns)
	assert.Equal(t, int64(2), metrics.SuccessfulTargets)
	assert.False(t, metrics.LastRunAt.IsZero())
}

func TestRun_CancelledContextStopsEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Targets:     worker.DefaultRefreshTargets(),
			Concurrency: 1,
		},
		Logger: zerolog.Nop(),
	})

	result := job.Run(ctx)

	// Workers drain without processing once the context is done.
	assert.Equal(t, 0, result.Successful+result.Failed)
}

func TestRefreshConfig_NormalizeDefaults(t *testing.T) {
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{},
		Logger: zerolog.Nop(),
	})

	result := job.Run(context.Background())
	require.NotNil(t, result)
	assert.Equal(t, len(worker.DefaultRefreshTargets()), result.TotalTargets)
}
