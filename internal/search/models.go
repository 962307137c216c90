// Package search provides the unified search service: typed queries for local
// news, scam alerts, local events, and travel-safety advisories, backed by a
// neural search provider and classified with keyword heuristics. Every public
// operation is cached, and degrades to a static fallback payload when the
// provider is unavailable.
package search

import (
	"context"
	"strings"
	"time"

	"github.com/guardnomad/guardnomad/internal/knowledge"
)

// Severity classifies how serious a finding is, ordered low < medium < high
// < critical.
type Severity string

// Severity levels.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the ordinal position of the severity (low=0 .. critical=3).
func (s Severity) Rank() int {
	return severityRank[s]
}

// RiskLevel is the derived per-location risk classification.
type RiskLevel string

// Risk levels.
const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// SourceTier classifies source credibility.
type SourceTier string

// Source credibility tiers, official sources ranking highest.
const (
	TierOfficial  SourceTier = "official"
	TierNews      SourceTier = "news"
	TierCommunity SourceTier = "community"
)

// NewsItem is a classified local news result.
type NewsItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	Tier        SourceTier `json:"tier"`
	Category    string     `json:"category"`
	Severity    Severity   `json:"severity"`
	Location    string     `json:"location"`
	PublishedAt time.Time  `json:"publishedAt"`
}

// ScamAlert describes a scam reported for a location.
type ScamAlert struct {
	ID            string     `json:"id"`
	ScamType      string     `json:"scamType"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Severity      Severity   `json:"severity"`
	Location      string     `json:"location"`
	TargetedAreas []string   `json:"targetedAreas,omitempty"`
	Advice        []string   `json:"advice,omitempty"`
	Source        string     `json:"source"`
	Tier          SourceTier `json:"tier"`
	URL           string     `json:"url,omitempty"`
	ReportedAt    time.Time  `json:"reportedAt"`
}

// LocalEvent is an event happening at a destination.
type LocalEvent struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Venue       string     `json:"venue,omitempty"`
	StartsAt    *time.Time `json:"startsAt,omitempty"`
	URL         string     `json:"url,omitempty"`
	Source      string     `json:"source"`
	Location    string     `json:"location"`
}

// TravelSafetyAlert is a travel advisory or active safety alert.
type TravelSafetyAlert struct {
	ID              string     `json:"id"`
	Type            string     `json:"type"`
	Severity        Severity   `json:"severity"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	Authority       SourceTier `json:"authority"`
	Source          string     `json:"source"`
	URL             string     `json:"url,omitempty"`
	IssuedAt        time.Time  `json:"issuedAt"`
	Recommendations []string   `json:"recommendations,omitempty"`
	AffectedAreas   []string   `json:"affectedAreas,omitempty"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
}

// LocationSafetyData is the per-location safety aggregate.
type LocationSafetyData struct {
	Location string `json:"location"`
	Country  string `json:"country,omitempty"`

	// SafetyScore is an integer in [20,100]; higher is safer.
	SafetyScore int `json:"safetyScore"`

	RiskLevel RiskLevel `json:"riskLevel"`

	// ActiveAlerts holds at most 5 alerts, most severe first.
	ActiveAlerts []TravelSafetyAlert `json:"activeAlerts"`

	// CommonScams holds at most 3 scams.
	CommonScams []ScamAlert `json:"commonScams"`

	// EmergencyNumbers holds at most 3 contacts.
	EmergencyNumbers []knowledge.EmergencyContact `json:"emergencyNumbers"`

	FetchedAt time.Time `json:"fetchedAt"`
}

// LocationContext parameterizes the composite safety query.
type LocationContext struct {
	Destination string
	Country     string
	City        string
	Lat         *float64
	Lon         *float64
}

// Query is a single neural search request.
type Query struct {
	// Text is the search query.
	Text string

	// NumResults bounds the result count.
	NumResults int

	// IncludeDomains restricts results to the given domains.
	IncludeDomains []string

	// PublishedAfter biases results toward recent publications.
	PublishedAfter time.Time
}

// Result is a raw neural search hit before classification.
type Result struct {
	Title       string
	URL         string
	Text        string
	PublishedAt time.Time
	Score       float64
}

// Provider is the neural search backend.
type Provider interface {
	// Search executes a query and returns raw results.
	Search(ctx context.Context, q Query) ([]Result, error)

	// Name returns the provider name for logging.
	Name() string
}

// hostOf extracts the registrable host from a URL for source attribution.
func hostOf(rawURL string) string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(rawURL, "https://"), "http://")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[:i]
	}
	return strings.TrimPrefix(trimmed, "www.")
}
