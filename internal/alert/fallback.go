package alert

import (
	"fmt"
	"time"
)

// FallbackAlerts is the generic two-alert set returned when no destination
// is known or aggregation fails entirely. The aggregation path is designed
// to never fail outright, so this is the floor, not an error surface.
func FallbackAlerts(now time.Time) []SafetyAlert {
	return []SafetyAlert{
		{
			ID:       fmt.Sprintf("fallback-general-%d", now.Unix()),
			Category: CategorySafety,
			Severity: SeverityLow,
			Title:    "General Travel Safety",
			Message:  "Stay aware of your surroundings, keep valuables secure, and know the local emergency numbers for your destination.",
			Source:   Source{Name: "GuardNomad", Tier: TierCommunity},
			Advice: []string{
				"Keep digital and physical copies of important documents",
				"Share your itinerary with someone you trust",
				"Save local emergency numbers before you arrive",
			},
			Timestamp: now,
		},
		{
			ID:       fmt.Sprintf("fallback-health-%d", now.Unix()),
			Category: CategoryHealth,
			Severity: SeverityLow,
			Title:    "Health & Hygiene Reminder",
			Message:  "Check recommended vaccinations for your destination and carry a basic first-aid kit. Drink bottled water where tap water is not potable.",
			Source:   Source{Name: "GuardNomad", Tier: TierCommunity},
			Advice: []string{
				"Verify your travel insurance covers medical care abroad",
				"Pack prescription medication in original containers",
			},
			Timestamp: now,
		},
	}
}
