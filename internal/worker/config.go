// Package worker provides background cache warming for GuardNomad. The
// worker pre-generates alerts and weather data for popular destinations so
// interactive requests mostly hit warm caches.
package worker

import "time"

// RefreshTarget is a destination whose caches the worker keeps warm.
type RefreshTarget struct {
	// Destination is the destination string used on the interactive path.
	Destination string

	// Country is the destination's country.
	Country string

	// Lat and Lon are the destination's center coordinates.
	Lat float64
	Lon float64

	// Priority determines refresh order (lower = higher priority).
	Priority int
}

// RefreshConfig holds configuration for the cache warming job.
type RefreshConfig struct {
	// Targets are the destinations to warm.
	// If empty, uses DefaultRefreshTargets.
	Targets []RefreshTarget

	// Concurrency is the number of concurrent warm operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for warming a single destination.
	// Default: 30 seconds
	Timeout time.Duration

	// WarmAlerts enables alert aggregation warming.
	// Default: true
	WarmAlerts bool

	// WarmWeather enables weather forecast warming.
	// Default: true
	WarmWeather bool
}

// DefaultRefreshConfig returns the default warming configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Targets:     DefaultRefreshTargets(),
		Concurrency: 3,
		Timeout:     30 * time.Second,
		WarmAlerts:  true,
		WarmWeather: true,
	}
}

// DefaultRefreshTargets returns the most requested destinations, ordered by
// traffic. Keeping these warm covers the bulk of interactive requests.
func DefaultRefreshTargets() []RefreshTarget {
	return []RefreshTarget{
		{Destination: "Paris", Country: "France", Lat: 48.8566, Lon: 2.3522, Priority: 1},
		{Destination: "London", Country: "United Kingdom", Lat: 51.5074, Lon: -0.1278, Priority: 1},
		{Destination: "Barcelona", Country: "Spain", Lat: 41.3874, Lon: 2.1686, Priority: 1},
		{Destination: "Rome", Country: "Italy", Lat: 41.9028, Lon: 12.4964, Priority: 1},
		{Destination: "Tokyo", Country: "Japan", Lat: 35.6762, Lon: 139.6503, Priority: 1},
		{Destination: "Bangkok", Country: "Thailand", Lat: 13.7563, Lon: 100.5018, Priority: 2},
		{Destination: "New York", Country: "United States", Lat: 40.7128, Lon: -74.0060, Priority: 2},
		{Destination: "Mexico City", Country: "Mexico", Lat: 19.4326, Lon: -99.1332, Priority: 2},
		{Destination: "Berlin", Country: "Germany", Lat: 52.5200, Lon: 13.4050, Priority: 2},
		{Destination: "Sydney", Country: "Australia", Lat: -33.8688, Lon: 151.2093, Priority: 3},
	}
}

// normalize fills in defaults for zero-valued fields.
func (c RefreshConfig) normalize() RefreshConfig {
	if len(c.Targets) == 0 {
		c.Targets = DefaultRefreshTargets()
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}
