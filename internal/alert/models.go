// Package alert contains the unified travel-safety alert model and the
// orchestration service that aggregates alerts from search, advisory, and
// weather sources for a destination.
package alert

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MaxAlerts bounds the number of alerts returned for a destination.
const MaxAlerts = 8

// Severity is the ordered alert severity classification.
type Severity string

// Severity levels, ordered low < medium < high < critical.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities for prioritization and scoring.
var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the ordinal position of the severity (low=0 .. critical=3).
// Unknown values rank as low.
func (s Severity) Rank() int {
	return severityRank[s]
}

// ParseSeverity normalizes an arbitrary severity string.
// Unrecognized input defaults to low.
func ParseSeverity(raw string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(raw))) {
	case SeverityMedium:
		return SeverityMedium
	case SeverityHigh:
		return SeverityHigh
	case SeverityCritical:
		return SeverityCritical
	default:
		return SeverityLow
	}
}

// Category classifies what an alert is about.
type Category string

// Alert categories. Every alert carries exactly one of these.
const (
	CategorySafety         Category = "safety"
	CategoryWeather        Category = "weather"
	CategoryHealth         Category = "health"
	CategorySecurity       Category = "security"
	CategoryTransportation Category = "transportation"
	CategoryCultural       Category = "cultural"
)

// MapCategory normalizes an arbitrary source classification into one of the
// six alert categories. Unrecognized input defaults to safety.
func MapCategory(raw string) Category {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "weather", "storm", "flood", "climate":
		return CategoryWeather
	case "health", "disease", "medical", "outbreak":
		return CategoryHealth
	case "security", "crime", "scam", "fraud", "theft":
		return CategorySecurity
	case "transportation", "transport", "transit", "strike", "traffic":
		return CategoryTransportation
	case "cultural", "culture", "customs", "etiquette":
		return CategoryCultural
	default:
		return CategorySafety
	}
}

// SourceTier classifies the credibility of an alert source.
type SourceTier string

// Source credibility tiers.
const (
	TierOfficial  SourceTier = "official"
	TierNews      SourceTier = "news"
	TierCommunity SourceTier = "community"
)

// Source identifies where an alert came from.
type Source struct {
	Name string     `json:"name"`
	URL  string     `json:"url,omitempty"`
	Tier SourceTier `json:"tier"`
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// SafetyAlert is the normalized alert record served to clients.
type SafetyAlert struct {
	ID          string       `json:"id"`
	Category    Category     `json:"category"`
	Severity    Severity     `json:"severity"`
	Title       string       `json:"title"`
	Message     string       `json:"message"`
	Location    string       `json:"location"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Source      Source       `json:"source"`
	Timestamp   time.Time    `json:"timestamp"`
	Advice      []string     `json:"advice,omitempty"`
	ExpiresAt   *time.Time   `json:"expiresAt,omitempty"`
}

// LocationContext parameterizes an aggregation request. It is built per
// request and never persisted.
type LocationContext struct {
	Destination string       `json:"destination"`
	Country     string       `json:"country,omitempty"`
	City        string       `json:"city,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	TravelStart *time.Time   `json:"travelStart,omitempty"`
	TravelEnd   *time.Time   `json:"travelEnd,omitempty"`
}

// HasLocation reports whether the context names a destination or carries
// coordinates. Without either, only generic advice can be produced.
func (c LocationContext) HasLocation() bool {
	return strings.TrimSpace(c.Destination) != "" || c.Coordinates != nil
}

// CacheKey buckets the context for the alert cache. Coordinates are rounded
// to 4 decimals (~11m) so nearby requests share an entry.
func (c LocationContext) CacheKey() string {
	key := strings.ToLower(strings.TrimSpace(c.Destination)) + "|" +
		strings.ToLower(strings.TrimSpace(c.Country))
	if c.Coordinates != nil {
		key += fmt.Sprintf("|%.4f,%.4f", c.Coordinates.Lat, c.Coordinates.Lon)
	}
	return key
}

// TripTiming describes where a trip sits relative to now.
type TripTiming struct {
	Upcoming     bool
	DaysUntil    int
	DurationDays int
}

// Timing computes trip timing from the context's travel dates.
// Returns nil when no start date is set.
func (c LocationContext) Timing(now time.Time) *TripTiming {
	if c.TravelStart == nil {
		return nil
	}

	timing := &TripTiming{}
	until := c.TravelStart.Sub(now)
	if until > 0 {
		timing.Upcoming = true
		timing.DaysUntil = int(until.Hours() / 24)
	}
	if c.TravelEnd != nil && c.TravelEnd.After(*c.TravelStart) {
		timing.DurationDays = int(c.TravelEnd.Sub(*c.TravelStart).Hours()/24) + 1
	}
	return timing
}

// Prioritize orders alerts by severity descending, breaking ties by
// timestamp descending (newest first), and truncates to MaxAlerts.
// The sort is stable so equally ranked alerts keep their source order.
func Prioritize(alerts []SafetyAlert) []SafetyAlert {
	out := make([]SafetyAlert, len(alerts))
	copy(out, alerts)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity.Rank() != out[j].Severity.Rank() {
			return out[i].Severity.Rank() > out[j].Severity.Rank()
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	if len(out) > MaxAlerts {
		out = out[:MaxAlerts]
	}
	return out
}
