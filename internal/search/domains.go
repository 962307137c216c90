package search

import "strings"

// regionDomains maps a region code to the curated domains queried for that
// region. Queries for a German destination should hit German government and
// news domains, not US ones.
var regionDomains = map[string]domainSet{
	"global": {
		Government: []string{"travel.state.gov", "gov.uk", "smartraveller.gov.au", "who.int"},
		News:       []string{"reuters.com", "bbc.com", "apnews.com"},
	},
	"fr": {
		Government: []string{"diplomatie.gouv.fr", "service-public.fr"},
		News:       []string{"lemonde.fr", "france24.com", "connexionfrance.com"},
	},
	"de": {
		Government: []string{"auswaertiges-amt.de", "bund.de"},
		News:       []string{"dw.com", "spiegel.de", "thelocal.de"},
	},
	"es": {
		Government: []string{"exteriores.gob.es"},
		News:       []string{"elpais.com", "thelocal.es"},
	},
	"it": {
		Government: []string{"viaggiaresicuri.it", "esteri.it"},
		News:       []string{"ansa.it", "thelocal.it"},
	},
	"uk": {
		Government: []string{"gov.uk", "met.police.uk"},
		News:       []string{"bbc.com", "theguardian.com"},
	},
	"us": {
		Government: []string{"travel.state.gov", "cdc.gov", "ready.gov"},
		News:       []string{"apnews.com", "nbcnews.com"},
	},
	"jp": {
		Government: []string{"jnto.go.jp", "mofa.go.jp"},
		News:       []string{"japantimes.co.jp", "nhk.or.jp"},
	},
	"th": {
		Government: []string{"tourismthailand.org", "mfa.go.th"},
		News:       []string{"bangkokpost.com", "nationthailand.com"},
	},
	"mx": {
		Government: []string{"gob.mx"},
		News:       []string{"mexiconewsdaily.com", "eluniversal.com.mx"},
	},
	"au": {
		Government: []string{"smartraveller.gov.au", "australia.gov.au"},
		News:       []string{"abc.net.au", "smh.com.au"},
	},
}

type domainSet struct {
	Government []string
	News       []string
}

// regionKeywords maps location substrings to region codes. Matching is done
// on the lowercased destination string, country names first.
var regionKeywords = []struct {
	keyword string
	region  string
}{
	{"france", "fr"}, {"paris", "fr"},
	{"germany", "de"}, {"berlin", "de"}, {"munich", "de"},
	{"spain", "es"}, {"madrid", "es"}, {"barcelona", "es"},
	{"italy", "it"}, {"rome", "it"}, {"milan", "it"},
	{"united kingdom", "uk"}, {"england", "uk"}, {"london", "uk"}, {"scotland", "uk"},
	{"united states", "us"}, {"usa", "us"}, {"new york", "us"},
	{"japan", "jp"}, {"tokyo", "jp"},
	{"thailand", "th"}, {"bangkok", "th"},
	{"mexico", "mx"},
	{"australia", "au"}, {"sydney", "au"}, {"melbourne", "au"},
}

// regionFor resolves a destination string to a region code, defaulting to
// the global domain set.
func regionFor(location string) string {
	loc := strings.ToLower(location)
	for _, rk := range regionKeywords {
		if strings.Contains(loc, rk.keyword) {
			return rk.region
		}
	}
	return "global"
}

// newsDomains returns the news domains for a destination, regional outlets
// first, padded with the global set.
func newsDomains(location string) []string {
	region := regionFor(location)
	if region == "global" {
		return regionDomains["global"].News
	}
	return append(append([]string{}, regionDomains[region].News...), regionDomains["global"].News...)
}

// governmentDomains returns the government/advisory domains for a destination.
func governmentDomains(location string) []string {
	region := regionFor(location)
	if region == "global" {
		return regionDomains["global"].Government
	}
	return append(append([]string{}, regionDomains[region].Government...), regionDomains["global"].Government...)
}

// officialDomains is the set used to mark a source as official.
var officialDomains = func() map[string]bool {
	set := make(map[string]bool)
	for _, ds := range regionDomains {
		for _, d := range ds.Government {
			set[d] = true
		}
	}
	return set
}()
