package search

import (
	"time"

	"github.com/guardnomad/guardnomad/internal/knowledge"
)

// Static fallback payloads. Returned whenever the search provider is
// unavailable or a call fails, so every public operation keeps its
// non-empty-result guarantee.

func fallbackNews(location string, now time.Time) []NewsItem {
	return []NewsItem{
		{
			ID:          "fallback-news-advisories",
			Title:       "Check official travel advisories",
			Summary:     "Live local news is temporarily unavailable. Consult your government's travel advisory service for current information about " + location + ".",
			Source:      "GuardNomad",
			Tier:        TierCommunity,
			Category:    "safety",
			Severity:    SeverityLow,
			Location:    location,
			PublishedAt: now,
		},
		{
			ID:          "fallback-news-local",
			Title:       "Monitor local media on arrival",
			Summary:     "Local English-language outlets and hotel staff are reliable sources for area-specific safety conditions.",
			Source:      "GuardNomad",
			Tier:        TierCommunity,
			Category:    "safety",
			Severity:    SeverityLow,
			Location:    location,
			PublishedAt: now,
		},
	}
}

func fallbackScams(location string, now time.Time) []ScamAlert {
	return []ScamAlert{
		{
			ID:          "fallback-scam-taxi",
			ScamType:    "taxi",
			Title:       "Taxi overcharging",
			Description: "Unmetered or rigged-meter taxis are the most common tourist scam worldwide. Use official taxi stands or ride-hailing apps.",
			Severity:    SeverityMedium,
			Location:    location,
			Advice:      []string{"Agree on a fare before departing or insist on the meter", "Prefer ride-hailing apps with up-front pricing"},
			Source:      "GuardNomad",
			Tier:        TierCommunity,
			ReportedAt:  now,
		},
		{
			ID:          "fallback-scam-distraction",
			ScamType:    "distraction",
			Title:       "Distraction theft",
			Description: "Teams using petitions, spills, or street performances to distract victims while an accomplice picks pockets.",
			Severity:    SeverityMedium,
			Location:    location,
			Advice:      []string{"Keep valuables in front pockets or a money belt", "Be alert when strangers initiate unusual contact"},
			Source:      "GuardNomad",
			Tier:        TierCommunity,
			ReportedAt:  now,
		},
	}
}

func fallbackEvents(location string, now time.Time) []LocalEvent {
	return []LocalEvent{
		{
			ID:          "fallback-event-listings",
			Title:       "Local event listings unavailable",
			Description: "Live event data could not be fetched. Check official tourism sites for " + location + " once you arrive.",
			Category:    "general",
			Source:      "GuardNomad",
			Location:    location,
		},
	}
}

func fallbackAdvisories(location string, now time.Time) []TravelSafetyAlert {
	return []TravelSafetyAlert{
		{
			ID:          "fallback-advisory-general",
			Type:        "advisory",
			Severity:    SeverityLow,
			Title:       "Exercise normal precautions",
			Description: "Live advisory data is temporarily unavailable for " + location + ". Follow standard travel safety practices and check official advisories before departure.",
			Location:    location,
			Authority:   TierCommunity,
			Source:      "GuardNomad",
			IssuedAt:    now,
			Recommendations: []string{
				"Keep copies of travel documents",
				"Share your itinerary with someone at home",
			},
		},
	}
}

func fallbackSafetyData(lctx LocationContext, now time.Time) *LocationSafetyData {
	return &LocationSafetyData{
		Location:         lctx.Destination,
		Country:          lctx.Country,
		SafetyScore:      70,
		RiskLevel:        RiskMedium,
		ActiveAlerts:     fallbackAdvisories(lctx.Destination, now),
		CommonScams:      fallbackScams(lctx.Destination, now)[:1],
		EmergencyNumbers: knowledge.EmergencyNumbers(lctx.Country),
		FetchedAt:        now,
	}
}
