// Package weatherapi provides the WeatherAPI.com client.
package weatherapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/guardnomad/guardnomad/internal/provider/resilience"
	"github.com/guardnomad/guardnomad/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "weatherapi"

	// DefaultBaseURL is the WeatherAPI.com base URL.
	DefaultBaseURL = "https://api.weatherapi.com/v1"
)

// ClientConfig holds configuration for the WeatherAPI client.
type ClientConfig struct {
	// APIKey is the WeatherAPI.com key (required).
	APIKey string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a WeatherAPI.com client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new WeatherAPI client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// HTTPClient exposes the underlying resilient client for health registration.
func (c *Client) HTTPClient() *resilience.Client {
	return c.httpClient
}

// Current fetches current conditions for a location.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*weather.Observation, error) {
	url := fmt.Sprintf("%s/current.json?key=%s&q=%.4f,%.4f", c.baseURL, c.apiKey, lat, lon)

	var apiResp currentResponse
	if err := c.get(ctx, url, &apiResp); err != nil {
		return nil, err
	}

	now := time.Now()
	return &weather.Observation{
		Lat:        lat,
		Lon:        lon,
		TempC:      apiResp.Current.TempC,
		Humidity:   apiResp.Current.Humidity,
		WindKph:    apiResp.Current.WindKph,
		Condition:  mapCondition(apiResp.Current.Condition.Text),
		ObservedAt: now,
		FetchedAt:  now,
	}, nil
}

// Forecast fetches a daily forecast for a location.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, days int) (*weather.Forecast, error) {
	url := fmt.Sprintf("%s/forecast.json?key=%s&q=%.4f,%.4f&days=%d", c.baseURL, c.apiKey, lat, lon, days)

	var apiResp forecastResponse
	if err := c.get(ctx, url, &apiResp); err != nil {
		return nil, err
	}

	forecast := &weather.Forecast{
		Lat:       lat,
		Lon:       lon,
		Days:      make([]weather.DailyForecast, 0, len(apiResp.Forecast.ForecastDay)),
		FetchedAt: time.Now(),
	}

	for _, fd := range apiResp.Forecast.ForecastDay {
		date, _ := time.Parse("2006-01-02", fd.Date)
		forecast.Days = append(forecast.Days, weather.DailyForecast{
			Date:         date,
			MinC:         fd.Day.MinTempC,
			MaxC:         fd.Day.MaxTempC,
			Condition:    mapCondition(fd.Day.Condition.Text),
			ChanceOfRain: fd.Day.ChanceOfRain,
		})
	}

	return forecast, nil
}

func (c *Client) get(ctx context.Context, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// mapCondition maps WeatherAPI condition text to the domain condition.
func mapCondition(text string) weather.Condition {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "thunder") || strings.Contains(lower, "storm"):
		return weather.ConditionStorm
	case strings.Contains(lower, "snow") || strings.Contains(lower, "sleet") || strings.Contains(lower, "ice"):
		return weather.ConditionSnow
	case strings.Contains(lower, "rain") || strings.Contains(lower, "drizzle") || strings.Contains(lower, "shower"):
		return weather.ConditionRain
	case strings.Contains(lower, "fog") || strings.Contains(lower, "mist"):
		return weather.ConditionFog
	case strings.Contains(lower, "cloud") || strings.Contains(lower, "overcast"):
		return weather.ConditionCloudy
	default:
		return weather.ConditionClear
	}
}

// WeatherAPI response structures.

type conditionField struct {
	Text string `json:"text"`
}

type currentResponse struct {
	Current struct {
		TempC     float64        `json:"temp_c"`
		Humidity  float64        `json:"humidity"`
		WindKph   float64        `json:"wind_kph"`
		Condition conditionField `json:"condition"`
	} `json:"current"`
}

type forecastResponse struct {
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				MinTempC     float64        `json:"mintemp_c"`
				MaxTempC     float64        `json:"maxtemp_c"`
				ChanceOfRain int            `json:"daily_chance_of_rain"`
				Condition    conditionField `json:"condition"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}
