package weatherapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardnomad/guardnomad/internal/weather"
	"github.com/guardnomad/guardnomad/internal/weather/weatherapi"
)

func TestCurrent(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{
			"current": {
				"temp_c": 18.5,
				"humidity": 63,
				"wind_kph": 12.2,
				"condition": {"text": "Partly cloudy"}
			}
		}`))
	}))
	defer srv.Close()

	client := weatherapi.NewClient(weatherapi.ClientConfig{APIKey: "test-key", BaseURL: srv.URL})

	obs, err := client.Current(context.Background(), 48.8566, 2.3522)
	require.NoError(t, err)

	assert.Equal(t, "/current.json", gotPath)
	assert.Contains(t, gotQuery, "key=test-key")
	assert.Contains(t, gotQuery, "q=48.8566,2.3522")

	assert.Equal(t, 18.5, obs.TempC)
	assert.Equal(t, 63.0, obs.Humidity)
	assert.Equal(t, 12.2, obs.WindKph)
	assert.Equal(t, weather.ConditionCloudy, obs.Condition)
	assert.False(t, obs.Synthetic)
}

func TestForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast.json", r.URL.Path)
		assert.Contains(t, r.URL.RawQuery, "days=3")
		_, _ = w.Write([]byte(`{
			"forecast": {
				"forecastday": [
					{
						"date": "2025-06-02",
						"day": {
							"mintemp_c": 12.1,
							"maxtemp_c": 21.4,
							"daily_chance_of_rain": 40,
							"condition": {"text": "Light rain shower"}
						}
					},
					{
						"date": "2025-06-03",
						"day": {
							"mintemp_c": 13.0,
							"maxtemp_c": 23.8,
							"daily_chance_of_rain": 5,
							"condition": {"text": "Sunny"}
						}
					}
				]
			}
		}`))
	}))
	defer srv.Close()

	client := weatherapi.NewClient(weatherapi.ClientConfig{APIKey: "k", BaseURL: srv.URL})

	forecast, err := client.Forecast(context.Background(), 48.8566, 2.3522, 3)
	require.NoError(t, err)

	require.Len(t, forecast.Days, 2)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), forecast.Days[0].Date)
	assert.Equal(t, 12.1, forecast.Days[0].MinC)
	assert.Equal(t, 21.4, forecast.Days[0].MaxC)
	assert.Equal(t, 40, forecast.Days[0].ChanceOfRain)
	assert.Equal(t, weather.ConditionRain, forecast.Days[0].Condition)
	assert.Equal(t, weather.ConditionClear, forecast.Days[1].Condition)
}

func TestCurrent_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := weatherapi.NewClient(weatherapi.ClientConfig{APIKey: "bad", BaseURL: srv.URL})

	_, err := client.Current(context.Background(), 1, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestMapCondition_ThroughCurrent(t *testing.T) {
	tests := []struct {
		text string
		want weather.Condition
	}{
		{"Thundery outbreaks possible", weather.ConditionStorm},
		{"Moderate snow", weather.ConditionSnow},
		{"Patchy light drizzle", weather.ConditionRain},
		{"Freezing fog", weather.ConditionFog},
		{"Overcast", weather.ConditionCloudy},
		{"Clear", weather.ConditionClear},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"current":{"temp_c":10,"humidity":50,"wind_kph":5,"condition":{"text":"` + tt.text + `"}}}`))
			}))
			defer srv.Close()

			client := weatherapi.NewClient(weatherapi.ClientConfig{APIKey: "k", BaseURL: srv.URL})
			obs, err := client.Current(context.Background(), 1, 2)
			require.NoError(t, err)
			assert.Equal(t, tt.want, obs.Condition)
		})
	}
}
