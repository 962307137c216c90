// Package weather provides destination weather with a synthetic fallback:
// when no provider is configured or a call fails, a deterministic
// procedurally generated forecast is served instead of an error.
package weather

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for the weather service.
var (
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
	ErrProviderUnavailable = errors.New("weather provider unavailable")
)

// Condition is a coarse weather condition.
type Condition string

// Weather conditions.
const (
	ConditionClear  Condition = "clear"
	ConditionCloudy Condition = "cloudy"
	ConditionRain   Condition = "rain"
	ConditionSnow   Condition = "snow"
	ConditionStorm  Condition = "storm"
	ConditionFog    Condition = "fog"
)

// Observation is the current weather at a location.
type Observation struct {
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	TempC      float64   `json:"tempC"`
	Humidity   float64   `json:"humidity"`
	WindKph    float64   `json:"windKph"`
	Condition  Condition `json:"condition"`
	Synthetic  bool      `json:"synthetic"`
	ObservedAt time.Time `json:"observedAt"`
	FetchedAt  time.Time `json:"fetchedAt"`
}

// DailyForecast is one forecast day.
type DailyForecast struct {
	Date         time.Time `json:"date"`
	MinC         float64   `json:"minC"`
	MaxC         float64   `json:"maxC"`
	Condition    Condition `json:"condition"`
	ChanceOfRain int       `json:"chanceOfRain"`
}

// Forecast is a multi-day forecast for a location.
type Forecast struct {
	Lat       float64         `json:"lat"`
	Lon       float64         `json:"lon"`
	Days      []DailyForecast `json:"days"`
	Synthetic bool            `json:"synthetic"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// Provider defines the interface for weather data providers.
type Provider interface {
	// Current fetches current conditions for a location.
	Current(ctx context.Context, lat, lon float64) (*Observation, error)

	// Forecast fetches a daily forecast for a location.
	Forecast(ctx context.Context, lat, lon float64, days int) (*Forecast, error)

	// Name returns the provider name for logging.
	Name() string
}
