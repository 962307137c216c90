// Package handler provides HTTP handlers for the GuardNomad API.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/guardnomad/guardnomad/internal/alert"
	"github.com/guardnomad/guardnomad/internal/api/models"
	"github.com/guardnomad/guardnomad/internal/api/response"
)

// AlertReader looks up previously persisted alerts.
type AlertReader interface {
	RecentAlerts(ctx context.Context, destination string, limit int) ([]alert.SafetyAlert, error)
}

// AlertsHandler handles alert aggregation endpoints.
type AlertsHandler struct {
	alerts *alert.Service
	reader AlertReader
}

// NewAlertsHandler creates a new AlertsHandler. The reader is optional; the
// recent-alerts endpoint returns 404 without one.
func NewAlertsHandler(alerts *alert.Service, reader AlertReader) *AlertsHandler {
	return &AlertsHandler{alerts: alerts, reader: reader}
}

// alertsResponse is the body of a successful generation request.
type alertsResponse struct {
	Destination string              `json:"destination"`
	GeneratedAt models.Timestamp    `json:"generatedAt"`
	Alerts      []alert.SafetyAlert `json:"alerts"`
}

// GenerateAlerts handles POST /v1/alerts/generate.
func (h *AlertsHandler) GenerateAlerts(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateAlertsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "request validation failed", errs)
		return
	}

	lctx := alert.LocationContext{
		Destination: req.Destination,
		Country:     req.Country,
		City:        req.City,
	}
	if req.Coordinates != nil {
		lctx.Coordinates = &alert.Coordinates{Lat: req.Coordinates.Lat, Lon: req.Coordinates.Lon}
	}
	if req.TravelStart != nil {
		start := req.TravelStart.Time()
		lctx.TravelStart = &start
	}
	if req.TravelEnd != nil {
		end := req.TravelEnd.Time()
		lctx.TravelEnd = &end
	}

	alerts := h.alerts.GenerateSafetyAlerts(r.Context(), lctx)

	response.JSON(w, r, http.StatusOK, alertsResponse{
		Destination: req.Destination,
		GeneratedAt: models.Timestamp(time.Now()),
		Alerts:      alerts,
	})
}

// RecentAlerts handles GET /v1/alerts/recent?destination=...
func (h *AlertsHandler) RecentAlerts(w http.ResponseWriter, r *http.Request) {
	destination := r.URL.Query().Get("destination")
	if destination == "" {
		response.BadRequest(w, r, "destination query parameter is required", nil)
		return
	}

	if h.reader == nil {
		response.NotFound(w, r, "alert history is not available")
		return
	}

	alerts, err := h.reader.RecentAlerts(r.Context(), destination, alert.MaxAlerts)
	if err != nil {
		response.InternalError(w, r, "looking up recent alerts failed")
		return
	}

	response.JSON(w, r, http.StatusOK, alertsResponse{
		Destination: destination,
		GeneratedAt: models.Timestamp(time.Now()),
		Alerts:      alerts,
	})
}

// adviceResponse is the body of a country advice lookup.
type adviceResponse struct {
	Country         string   `json:"country"`
	RiskLevel       string   `json:"riskLevel"`
	Advice          []string `json:"advice"`
	EmergencyNumber string   `json:"emergencyNumber"`
}

// CountryAdvice handles GET /v1/alerts/advice?country=...
func (h *AlertsHandler) CountryAdvice(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")

	advice := h.alerts.LocationSpecificAdvice(country)
	response.JSON(w, r, http.StatusOK, adviceResponse{
		Country:         country,
		RiskLevel:       advice.Risk,
		Advice:          advice.Tips,
		EmergencyNumber: advice.EmergencyNumber,
	})
}
