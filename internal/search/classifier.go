package search

import (
	"regexp"
	"strings"
	"time"
)

// Classification is the heuristic assessment of a text snippet. The
// classifier is keyword-based and best-effort: it has no correctness
// contract beyond always producing a valid severity and category.
type Classification struct {
	Severity Severity
	Category string
}

// Classifier assigns severity and category to free text. The default is the
// keyword classifier below; alternate implementations (e.g. a model call)
// can be substituted without touching the orchestration.
type Classifier interface {
	Classify(text string) Classification
}

// KeywordClassifier classifies text by keyword matching.
type KeywordClassifier struct{}

// severityKeywords are checked most severe first; the first band with a hit
// wins.
var severityKeywords = []struct {
	severity Severity
	words    []string
}{
	{SeverityCritical, []string{
		"do not travel", "evacuate", "evacuation", "state of emergency",
		"terror attack", "armed conflict", "war zone", "curfew",
	}},
	{SeverityHigh, []string{
		"reconsider travel", "violent crime", "kidnapping", "armed robbery",
		"riot", "civil unrest", "outbreak", "hurricane", "earthquake",
		"flooding", "wildfire",
	}},
	{SeverityMedium, []string{
		"exercise increased caution", "pickpocket", "theft", "scam",
		"protest", "demonstration", "strike", "heatwave", "storm warning",
	}},
}

// categoryKeywords map text to a coarse category; first hit wins.
var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"weather", []string{"storm", "hurricane", "flood", "heatwave", "snow", "typhoon", "weather"}},
	{"health", []string{"outbreak", "disease", "virus", "hospital", "vaccination", "health"}},
	{"security", []string{"scam", "fraud", "theft", "pickpocket", "robbery", "crime", "terror"}},
	{"transportation", []string{"strike", "rail", "airport", "flight", "road closure", "transit", "traffic"}},
	{"cultural", []string{"festival", "holiday", "customs", "etiquette", "ramadan"}},
}

// Classify assigns a severity and category to the text. Text with no
// recognized keywords is low-severity general safety.
func (KeywordClassifier) Classify(text string) Classification {
	lower := strings.ToLower(text)

	c := Classification{Severity: SeverityLow, Category: "safety"}

	for _, band := range severityKeywords {
		if containsAny(lower, band.words) {
			c.Severity = band.severity
			break
		}
	}

	for _, ck := range categoryKeywords {
		if containsAny(lower, ck.words) {
			c.Category = ck.category
			break
		}
	}

	return c
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// classifyTier derives source credibility from the result URL: curated
// government domains are official, everything else with a known news TLD
// pattern is news, the rest community.
func classifyTier(rawURL string) SourceTier {
	host := hostOf(rawURL)
	if officialDomains[host] {
		return TierOfficial
	}
	if strings.Contains(host, ".gov") || strings.HasSuffix(host, ".gouv.fr") {
		return TierOfficial
	}
	for _, ds := range regionDomains {
		for _, d := range ds.News {
			if host == d {
				return TierNews
			}
		}
	}
	return TierCommunity
}

// Extraction helpers. These are best-effort text mining; absent matches
// produce empty results, never errors.

var (
	recommendationRe = regexp.MustCompile(`(?i)(?:^|\.\s+)((?:avoid|do not|don't|stay away from|keep|use only|be wary of|register with)[^.]{10,120})`)
	affectedAreaRe   = regexp.MustCompile(`(?:in|near|around|across) (?:the )?([A-Z][a-zà-ü]+(?: [A-Z][a-zà-ü]+){0,2})`)
	venueRe          = regexp.MustCompile(`(?:at|@) (?:the )?([A-Z][\w'à-ü]+(?: [A-Z][\w'à-ü]+){0,4} (?:Arena|Stadium|Hall|Park|Square|Center|Centre|Theatre|Theater|Museum))`)
	eventDateRe      = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December) (\d{1,2})(?:,? (\d{4}))?`)
	scamTypeRe       = regexp.MustCompile(`(?i)\b(taxi|atm|ticket|rental|romance|phishing|overcharg\w*|distraction|fake police|petition|gold ring|friendship bracelet)\b`)
)

// extractRecommendations pulls imperative advice sentences out of the text.
func extractRecommendations(text string, limit int) []string {
	matches := recommendationRe.FindAllStringSubmatch(text, limit)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		rec := strings.TrimSpace(m[1])
		if rec != "" {
			out = append(out, rec)
		}
	}
	return out
}

// extractAffectedAreas pulls capitalized place names that follow a locative
// preposition.
func extractAffectedAreas(text string, limit int) []string {
	matches := affectedAreaRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool)
	out := make([]string, 0, limit)
	for _, m := range matches {
		area := strings.TrimSpace(m[1])
		if area == "" || seen[area] {
			continue
		}
		seen[area] = true
		out = append(out, area)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// extractVenue pulls an event venue name if one is mentioned.
func extractVenue(text string) string {
	if m := venueRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractEventDate parses a "Month day[, year]" mention into a date.
// A missing year is taken as the current year.
func extractEventDate(text string, now time.Time) *time.Time {
	m := eventDateRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	raw := m[1] + " " + m[2]
	year := m[3]
	if year == "" {
		year = now.Format("2006")
	}

	parsed, err := time.Parse("January 2 2006", raw+" "+year)
	if err != nil {
		return nil
	}
	return &parsed
}

// extractScamType names the scam if a known pattern is mentioned.
func extractScamType(text string) string {
	if m := scamTypeRe.FindStringSubmatch(text); m != nil {
		return strings.ToLower(strings.TrimSpace(m[1]))
	}
	return "general"
}
