// Package knowledge holds the hand-authored country knowledge base: baseline
// risk levels, travel advice, and emergency numbers. It is the last data
// source consulted when no live signal is available, and the default source
// for emergency contact numbers.
package knowledge

import "strings"

// Advice is the static guidance for a country.
type Advice struct {
	// Risk is the baseline risk level: low, medium, or high.
	Risk string

	// Tips are destination-specific safety tips, most important first.
	// The last entry always names the primary emergency number.
	Tips []string

	// EmergencyNumber is the country's primary emergency number.
	EmergencyNumber string
}

// EmergencyContact is a single emergency service number.
type EmergencyContact struct {
	Service string `json:"service"`
	Number  string `json:"number"`
}

// countryAdvice is keyed by lowercase country name.
var countryAdvice = map[string]Advice{
	"france": {
		Risk: "medium",
		Tips: []string{
			"Watch for pickpockets on the metro and around major attractions",
			"Keep a photocopy of your passport separate from the original",
			"Avoid unlicensed taxis at airports and stations",
			"Emergency number: 112",
		},
		EmergencyNumber: "112",
	},
	"germany": {
		Risk: "low",
		Tips: []string{
			"Validate public transport tickets before boarding",
			"Carry some cash, card acceptance is not universal",
			"Emergency number: 112",
		},
		EmergencyNumber: "112",
	},
	"spain": {
		Risk: "medium",
		Tips: []string{
			"Bag snatching is common in Barcelona and Madrid tourist areas",
			"Be wary of distraction scams near major sights",
			"Emergency number: 112",
		},
		EmergencyNumber: "112",
	},
	"italy": {
		Risk: "medium",
		Tips: []string{
			"Agree on taxi fares in advance or insist on the meter",
			"Watch belongings on crowded trains and buses",
			"Emergency number: 112",
		},
		EmergencyNumber: "112",
	},
	"united kingdom": {
		Risk: "low",
		Tips: []string{
			"Mind phone snatching by moped riders in central London",
			"Emergency number: 999",
		},
		EmergencyNumber: "999",
	},
	"united states": {
		Risk: "medium",
		Tips: []string{
			"Safety varies widely by neighborhood, research your area",
			"Medical care is expensive, carry travel insurance",
			"Emergency number: 911",
		},
		EmergencyNumber: "911",
	},
	"japan": {
		Risk: "low",
		Tips: []string{
			"Carry cash, many smaller businesses do not take cards",
			"Follow local earthquake guidance in your accommodation",
			"Emergency number: 110",
		},
		EmergencyNumber: "110",
	},
	"thailand": {
		Risk: "medium",
		Tips: []string{
			"Use metered taxis or ride-hailing apps, avoid tuk-tuk overcharging",
			"Only drink bottled or filtered water",
			"Rent scooters only with proper licensing and a helmet",
			"Emergency number: 191",
		},
		EmergencyNumber: "191",
	},
	"mexico": {
		Risk: "high",
		Tips: []string{
			"Stick to well-traveled tourist areas, especially after dark",
			"Use authorized taxi stands or ride-hailing apps",
			"Drink bottled water only",
			"Emergency number: 911",
		},
		EmergencyNumber: "911",
	},
	"australia": {
		Risk: "low",
		Tips: []string{
			"Swim only at patrolled beaches between the flags",
			"Use strong sun protection year round",
			"Emergency number: 000",
		},
		EmergencyNumber: "000",
	},
}

// genericAdvice is returned for countries outside the knowledge base.
var genericAdvice = Advice{
	Risk: "medium",
	Tips: []string{
		"Research local conditions before you travel",
		"Keep copies of important documents",
		"Register with your embassy for longer stays",
		"Emergency number: 112",
	},
	EmergencyNumber: "112",
}

// ForCountry returns the static advice for a country and whether the country
// is in the knowledge base. Unknown countries get generic guidance.
func ForCountry(country string) (Advice, bool) {
	advice, ok := countryAdvice[strings.ToLower(strings.TrimSpace(country))]
	if !ok {
		return genericAdvice, false
	}
	return advice, true
}

// emergencyContacts is keyed by lowercase country name.
var emergencyContacts = map[string][]EmergencyContact{
	"france":         {{Service: "All emergencies", Number: "112"}, {Service: "Police", Number: "17"}, {Service: "Ambulance", Number: "15"}},
	"germany":        {{Service: "All emergencies", Number: "112"}, {Service: "Police", Number: "110"}},
	"spain":          {{Service: "All emergencies", Number: "112"}, {Service: "Police", Number: "091"}},
	"italy":          {{Service: "All emergencies", Number: "112"}, {Service: "Carabinieri", Number: "112"}, {Service: "Ambulance", Number: "118"}},
	"united kingdom": {{Service: "All emergencies", Number: "999"}, {Service: "Non-emergency police", Number: "101"}},
	"united states":  {{Service: "All emergencies", Number: "911"}},
	"japan":          {{Service: "Police", Number: "110"}, {Service: "Fire and ambulance", Number: "119"}},
	"thailand":       {{Service: "Police", Number: "191"}, {Service: "Tourist police", Number: "1155"}, {Service: "Ambulance", Number: "1669"}},
	"mexico":         {{Service: "All emergencies", Number: "911"}},
	"australia":      {{Service: "All emergencies", Number: "000"}},
}

// defaultContacts covers countries outside the table. 112 works across the
// EU and on GSM networks worldwide.
var defaultContacts = []EmergencyContact{
	{Service: "All emergencies", Number: "112"},
}

// EmergencyNumbers returns up to three emergency contacts for a country,
// falling back to the GSM default when the country is unknown.
func EmergencyNumbers(country string) []EmergencyContact {
	contacts, ok := emergencyContacts[strings.ToLower(strings.TrimSpace(country))]
	if !ok {
		contacts = defaultContacts
	}
	if len(contacts) > 3 {
		contacts = contacts[:3]
	}
	out := make([]EmergencyContact, len(contacts))
	copy(out, contacts)
	return out
}
