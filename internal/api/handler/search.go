package handler

import (
	"net/http"
	"strconv"

	"github.com/guardnomad/guardnomad/internal/api/response"
	"github.com/guardnomad/guardnomad/internal/search"
)

// SearchHandler handles unified search endpoints. Every endpoint returns
// 200 with data: the underlying service degrades to fallback payloads
// instead of failing.
type SearchHandler struct {
	search *search.Service
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(svc *search.Service) *SearchHandler {
	return &SearchHandler{search: svc}
}

// LocalNews handles GET /v1/search/news?location=...&category=...
func (h *SearchHandler) LocalNews(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	if location == "" {
		response.BadRequest(w, r, "location query parameter is required", nil)
		return
	}

	items := h.search.LocalNews(r.Context(), location, r.URL.Query().Get("category"))
	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"location": location,
		"news":     items,
	})
}

// ScamAlerts handles GET /v1/search/scams?location=...
func (h *SearchHandler) ScamAlerts(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")

	alerts := h.search.ScamAlerts(r.Context(), location)
	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"location": location,
		"scams":    alerts,
	})
}

// LocalEvents handles GET /v1/search/events?location=...&category=...
func (h *SearchHandler) LocalEvents(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	if location == "" {
		response.BadRequest(w, r, "location query parameter is required", nil)
		return
	}

	events := h.search.LocalEvents(r.Context(), location, r.URL.Query().Get("category"))
	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"location": location,
		"events":   events,
	})
}

// TravelSafetyAlerts handles GET /v1/search/advisories?location=...
func (h *SearchHandler) TravelSafetyAlerts(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	if location == "" {
		response.BadRequest(w, r, "location query parameter is required", nil)
		return
	}

	alerts := h.search.TravelSafetyAlerts(r.Context(), location)
	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"location":   location,
		"advisories": alerts,
	})
}

// LocationSafetyData handles GET /v1/search/safety?destination=...&country=...
func (h *SearchHandler) LocationSafetyData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	destination := q.Get("destination")
	if destination == "" {
		response.BadRequest(w, r, "destination query parameter is required", nil)
		return
	}

	lctx := search.LocationContext{
		Destination: destination,
		Country:     q.Get("country"),
		City:        q.Get("city"),
	}
	if lat, err := strconv.ParseFloat(q.Get("lat"), 64); err == nil {
		lctx.Lat = &lat
	}
	if lon, err := strconv.ParseFloat(q.Get("lon"), 64); err == nil {
		lctx.Lon = &lon
	}

	data := h.search.LocationSafetyData(r.Context(), lctx)
	response.JSON(w, r, http.StatusOK, data)
}
