package models

import "strings"

// GenerateAlertsRequest is the body for POST /v1/alerts/generate.
type GenerateAlertsRequest struct {
	Destination string     `json:"destination"`
	Country     string     `json:"country,omitempty"`
	City        string     `json:"city,omitempty"`
	Coordinates *Point     `json:"coordinates,omitempty"`
	TravelStart *Timestamp `json:"travelStart,omitempty"`
	TravelEnd   *Timestamp `json:"travelEnd,omitempty"`
}

// Validate checks field-level constraints. A request with no destination and
// no coordinates is still accepted; it yields the generic fallback alerts.
func (r GenerateAlertsRequest) Validate() []FieldError {
	var errs []FieldError
	if len(strings.TrimSpace(r.Destination)) > 200 {
		errs = append(errs, FieldError{Field: "destination", Message: "must be at most 200 characters", Code: "too_long"})
	}
	if r.Coordinates != nil {
		if r.Coordinates.Lat < -90 || r.Coordinates.Lat > 90 {
			errs = append(errs, FieldError{Field: "coordinates.lat", Message: "must be between -90 and 90", Code: "out_of_range"})
		}
		if r.Coordinates.Lon < -180 || r.Coordinates.Lon > 180 {
			errs = append(errs, FieldError{Field: "coordinates.lon", Message: "must be between -180 and 180", Code: "out_of_range"})
		}
	}
	if r.TravelStart != nil && r.TravelEnd != nil && r.TravelEnd.Time().Before(r.TravelStart.Time()) {
		errs = append(errs, FieldError{Field: "travelEnd", Message: "must not be before travelStart", Code: "invalid_range"})
	}
	return errs
}
