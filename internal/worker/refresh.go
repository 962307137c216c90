package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/guardnomad/guardnomad/internal/alert"
	"github.com/guardnomad/guardnomad/internal/weather"
)

// RefreshJob warms the alert and weather caches for popular destinations.
type RefreshJob struct {
	config RefreshConfig
	logger zerolog.Logger

	// Services (optional, nil if not configured)
	alertService   *alert.Service
	weatherService *weather.Service

	// State (optional; without Redis outcomes are only logged)
	state *StateManager

	metrics *RefreshMetrics
}

// RefreshMetrics tracks warm job statistics across runs.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRuns           int64
	SuccessfulTargets   int64
	FailedTargets       int64
	LastRunAt           time.Time
	LastRunDuration     time.Duration
	LastRunAlertsCached int
}

// Snapshot returns a copy of the current metrics.
func (m *RefreshMetrics) Snapshot() RefreshMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return RefreshMetrics{
		TotalRuns:           m.TotalRuns,
		SuccessfulTargets:   m.SuccessfulTargets,
		FailedTargets:       m.FailedTargets,
		LastRunAt:           m.LastRunAt,
		LastRunDuration:     m.LastRunDuration,
		LastRunAlertsCached: m.LastRunAlertsCached,
	}
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config         RefreshConfig
	Logger         zerolog.Logger
	AlertService   *alert.Service
	WeatherService *weather.Service
	State          *StateManager
}

// NewRefreshJob creates a new cache warming job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	return &RefreshJob{
		config:         cfg.Config.normalize(),
		logger:         cfg.Logger,
		alertService:   cfg.AlertService,
		weatherService: cfg.WeatherService,
		state:          cfg.State,
		metrics:        &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a warming run.
type RefreshResult struct {
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	TotalTargets int
	Successful   int
	Failed       int
	AlertsCached int
}

// Run warms every configured target using a bounded worker pool.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{
		StartTime:    startTime,
		TotalTargets: len(j.config.Targets),
	}

	j.logger.Info().
		Int("targets", result.TotalTargets).
		Int("concurrency", j.config.Concurrency).
		Msg("starting cache warm job")

	targetsChan := make(chan RefreshTarget, len(j.config.Targets))
	resultsChan := make(chan targetResult, len(j.config.Targets))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.warmWorker(ctx, targetsChan, resultsChan)
		}()
	}

	for _, t := range j.config.Targets {
		targetsChan <- t
	}
	close(targetsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for tr := range resultsChan {
		if tr.success {
			result.Successful++
		} else {
			result.Failed++
		}
		result.AlertsCached += tr.alertCount
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("alerts_cached", result.AlertsCached).
		Msg("cache warm job completed")

	return result
}

type targetResult struct {
	target     RefreshTarget
	success    bool
	alertCount int
	err        error
}

func (j *RefreshJob) warmWorker(ctx context.Context, targets <-chan RefreshTarget, results chan<- targetResult) {
	for target := range targets {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.warmTarget(ctx, target)
		}
	}
}

// warmTarget pre-generates data for a single destination and records the
// outcome in Redis.
func (j *RefreshJob) warmTarget(ctx context.Context, target RefreshTarget) targetResult {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	result := targetResult{target: target, success: true}

	if j.config.WarmAlerts && j.alertService != nil {
		alerts := j.alertService.GenerateSafetyAlerts(ctx, alert.LocationContext{
			Destination: target.Destination,
			Country:     target.Country,
			Coordinates: &alert.Coordinates{Lat: target.Lat, Lon: target.Lon},
		})
		result.alertCount = len(alerts)
	}

	if j.config.WarmWeather && j.weatherService != nil {
		if _, err := j.weatherService.GetForecast(ctx, target.Lat, target.Lon); err != nil {
			// Invalid coordinates for a configured target is a config bug,
			// not a transient failure.
			j.logger.Error().Err(err).Str("destination", target.Destination).
				Msg("forecast warm failed")
			result.success = false
			result.err = err
		}
	}

	j.recordState(ctx, target, result)
	return result
}

func (j *RefreshJob) recordState(ctx context.Context, target RefreshTarget, result targetResult) {
	if j.state == nil {
		return
	}

	now := time.Now()
	state := &RefreshState{
		Status:     RefreshStatusOK,
		LastRunAt:  now,
		AlertCount: result.alertCount,
	}
	if result.success {
		state.LastSuccessAt = now
	} else {
		state.Status = RefreshStatusFailed
		if result.err != nil {
			state.LastError = result.err.Error()
		}
	}

	if err := j.state.SetState(ctx, target.Destination, state); err != nil {
		j.logger.Warn().Err(err).Str("destination", target.Destination).
			Msg("recording refresh state failed")
	}
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulTargets += int64(result.Successful)
	j.metrics.FailedTargets += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.LastRunAlertsCached = result.AlertsCached
}

// Metrics returns the job's cumulative metrics.
func (j *RefreshJob) Metrics() RefreshMetrics {
	return j.metrics.Snapshot()
}
