package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/guardnomad/guardnomad/internal/api/models"
	"github.com/guardnomad/guardnomad/internal/api/response"
	"github.com/guardnomad/guardnomad/internal/weather"
)

// WeatherHandler handles weather endpoints.
type WeatherHandler struct {
	weather *weather.Service
}

// NewWeatherHandler creates a new WeatherHandler.
func NewWeatherHandler(svc *weather.Service) *WeatherHandler {
	return &WeatherHandler{weather: svc}
}

// Current handles GET /v1/weather/current?lat=...&lon=...
func (h *WeatherHandler) Current(w http.ResponseWriter, r *http.Request) {
	lat, lon, errs := parseCoordinates(r)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid coordinates", errs)
		return
	}

	obs, err := h.weather.Current(r.Context(), lat, lon)
	if err != nil {
		if errors.Is(err, weather.ErrInvalidCoordinates) {
			response.BadRequest(w, r, "coordinates out of range", nil)
			return
		}
		response.InternalError(w, r, "weather lookup failed")
		return
	}

	response.JSON(w, r, http.StatusOK, obs)
}

// Forecast handles GET /v1/weather/forecast?lat=...&lon=...
func (h *WeatherHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	lat, lon, errs := parseCoordinates(r)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid coordinates", errs)
		return
	}

	forecast, err := h.weather.GetForecast(r.Context(), lat, lon)
	if err != nil {
		if errors.Is(err, weather.ErrInvalidCoordinates) {
			response.BadRequest(w, r, "coordinates out of range", nil)
			return
		}
		response.InternalError(w, r, "forecast lookup failed")
		return
	}

	response.JSON(w, r, http.StatusOK, forecast)
}

// parseCoordinates reads lat/lon query parameters.
func parseCoordinates(r *http.Request) (lat, lon float64, errs []models.FieldError) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		errs = append(errs, models.FieldError{Field: "lat", Message: "must be a number", Code: "invalid"})
	}
	lon, err = strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		errs = append(errs, models.FieldError{Field: "lon", Message: "must be a number", Code: "invalid"})
	}
	return lat, lon, errs
}
