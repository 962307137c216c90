package alert_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardnomad/guardnomad/internal/alert"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input string
		want  alert.Severity
	}{
		{"low", alert.SeverityLow},
		{"medium", alert.SeverityMedium},
		{"HIGH", alert.SeverityHigh},
		{" critical ", alert.SeverityCritical},
		{"", alert.SeverityLow},
		{"unknown", alert.SeverityLow},
		{"severe", alert.SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, alert.ParseSeverity(tt.input))
		})
	}
}

func TestSeverity_RankOrdering(t *testing.T) {
	assert.Less(t, alert.SeverityLow.Rank(), alert.SeverityMedium.Rank())
	assert.Less(t, alert.SeverityMedium.Rank(), alert.SeverityHigh.Rank())
	assert.Less(t, alert.SeverityHigh.Rank(), alert.SeverityCritical.Rank())
}

func TestMapCategory(t *testing.T) {
	tests := []struct {
		input string
		want  alert.Category
	}{
		{"weather", alert.CategoryWeather},
		{"storm", alert.CategoryWeather},
		{"health", alert.CategoryHealth},
		{"outbreak", alert.CategoryHealth},
		{"crime", alert.CategorySecurity},
		{"scam", alert.CategorySecurity},
		{"strike", alert.CategoryTransportation},
		{"customs", alert.CategoryCultural},
		{"safety", alert.CategorySafety},
		{"", alert.CategorySafety},
		{"something-else", alert.CategorySafety},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, alert.MapCategory(tt.input))
		})
	}
}

func TestLocationContext_CacheKey(t *testing.T) {
	a := alert.LocationContext{
		Destination: "Paris",
		Country:     "France",
		Coordinates: &alert.Coordinates{Lat: 48.85661, Lon: 2.35222},
	}
	b := alert.LocationContext{
		Destination: "paris",
		Country:     "FRANCE",
		Coordinates: &alert.Coordinates{Lat: 48.85664, Lon: 2.35219},
	}

	// Same destination with coordinates a few meters apart shares a key.
	assert.Equal(t, a.CacheKey(), b.CacheKey())

	c := alert.LocationContext{Destination: "Paris", Country: "France"}
	assert.NotEqual(t, a.CacheKey(), c.CacheKey())
}

func TestLocationContext_HasLocation(t *testing.T) {
	assert.False(t, alert.LocationContext{}.HasLocation())
	assert.False(t, alert.LocationContext{Destination: "   "}.HasLocation())
	assert.True(t, alert.LocationContext{Destination: "Rome"}.HasLocation())
	assert.True(t, alert.LocationContext{Coordinates: &alert.Coordinates{Lat: 1, Lon: 2}}.HasLocation())
}

func TestLocationContext_Timing(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no travel dates", func(t *testing.T) {
		assert.Nil(t, alert.LocationContext{}.Timing(now))
	})

	t.Run("upcoming trip", func(t *testing.T) {
		start := now.AddDate(0, 0, 5)
		end := start.AddDate(0, 0, 7)
		timing := alert.LocationContext{TravelStart: &start, TravelEnd: &end}.Timing(now)

		require.NotNil(t, timing)
		assert.True(t, timing.Upcoming)
		assert.Equal(t, 5, timing.DaysUntil)
		assert.Equal(t, 8, timing.DurationDays)
	})

	t.Run("trip already started", func(t *testing.T) {
		start := now.AddDate(0, 0, -2)
		timing := alert.LocationContext{TravelStart: &start}.Timing(now)

		require.NotNil(t, timing)
		assert.False(t, timing.Upcoming)
		assert.Equal(t, 0, timing.DaysUntil)
	})
}

func TestPrioritize_OrdersBySeverityThenRecency(t *testing.T) {
	now := time.Now()
	alerts := []alert.SafetyAlert{
		{ID: "old-low", Severity: alert.SeverityLow, Timestamp: now.Add(-2 * time.Hour)},
		{ID: "critical", Severity: alert.SeverityCritical, Timestamp: now.Add(-3 * time.Hour)},
		{ID: "new-medium", Severity: alert.SeverityMedium, Timestamp: now},
		{ID: "old-medium", Severity: alert.SeverityMedium, Timestamp: now.Add(-1 * time.Hour)},
		{ID: "high", Severity: alert.SeverityHigh, Timestamp: now},
	}

	ordered := alert.Prioritize(alerts)

	ids := make([]string, len(ordered))
	for i, a := range ordered {
		ids[i] = a.ID
	}
	assert.Equal(t, []string{"critical", "high", "new-medium", "old-medium", "old-low"}, ids)
}

func TestPrioritize_TruncatesToMaxAlerts(t *testing.T) {
	now := time.Now()
	var alerts []alert.SafetyAlert
	for i := 0; i < alert.MaxAlerts+4; i++ {
		alerts = append(alerts, alert.SafetyAlert{Severity: alert.SeverityLow, Timestamp: now})
	}

	assert.Len(t, alert.Prioritize(alerts), alert.MaxAlerts)
}

func TestPrioritize_DoesNotMutateInput(t *testing.T) {
	now := time.Now()
	alerts := []alert.SafetyAlert{
		{ID: "a", Severity: alert.SeverityLow, Timestamp: now},
		{ID: "b", Severity: alert.SeverityCritical, Timestamp: now},
	}

	_ = alert.Prioritize(alerts)
	assert.Equal(t, "a", alerts[0].ID)
}
