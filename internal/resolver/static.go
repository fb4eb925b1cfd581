package resolver

import "strings"

// staticEntry is one compiled-in destination, keyed by its normalized
// canonical name. aliases are additional normalized strings that resolve to
// the same entry (spec.md §4.5 Tier 1).
type staticEntry struct {
	regionID   int
	regionName string
	aliases    []string
}

// staticMap is the compiled-in table of ~50 common destinations (spec.md
// §4.5 "major US and international cities, with aliases like NYC, LA").
// Region ids are the spec's authoritative values where given explicitly
// (§8 S1/S2); others are assigned in a disjoint, stable range.
var staticMap = []staticEntry{
	{2621, "New York", []string{"new york", "new york city", "nyc"}},
	{1555, "Los Angeles", []string{"los angeles", "la"}},
	{2007, "Las Vegas", []string{"las vegas", "vegas"}},
	{3001, "Chicago", nil},
	{3002, "San Francisco", []string{"san francisco", "sf"}},
	{3003, "Miami", nil},
	{3004, "Boston", nil},
	{3005, "Seattle", nil},
	{3006, "Washington", []string{"washington", "washington dc", "dc"}},
	{3007, "Orlando", nil},
	{3008, "San Diego", nil},
	{3009, "Houston", nil},
	{3010, "Dallas", nil},
	{3011, "Atlanta", nil},
	{3012, "Denver", nil},
	{3013, "Phoenix", nil},
	{3014, "Philadelphia", []string{"philadelphia", "philly"}},
	{3015, "New Orleans", nil},
	{3016, "Austin", nil},
	{3017, "Nashville", nil},
	{3018, "Portland", nil},
	{3019, "Honolulu", nil},
	{3020, "San Antonio", nil},
	{4001, "London", nil},
	{4002, "Paris", nil},
	{4003, "Rome", nil},
	{4004, "Barcelona", nil},
	{4005, "Madrid", nil},
	{4006, "Berlin", nil},
	{4007, "Amsterdam", nil},
	{4008, "Lisbon", nil},
	{4009, "Vienna", nil},
	{4010, "Prague", nil},
	{4011, "Dublin", nil},
	{4012, "Athens", nil},
	{4013, "Istanbul", nil},
	{4014, "Venice", nil},
	{4015, "Florence", nil},
	{4016, "Milan", nil},
	{5001, "Tokyo", nil},
	{5002, "Singapore", nil},
	{5003, "Bangkok", nil},
	{5004, "Hong Kong", []string{"hong kong", "hk"}},
	{5005, "Dubai", nil},
	{5006, "Seoul", nil},
	{5007, "Bali", nil},
	{5008, "Sydney", nil},
	{5009, "Melbourne", nil},
	{5010, "Toronto", nil},
	{5011, "Vancouver", nil},
	{5012, "Mexico City", nil},
	{5013, "Cancun", nil},
	{5014, "Rio de Janeiro", []string{"rio de janeiro", "rio"}},
	{5015, "Buenos Aires", nil},
}

// lookupStatic implements the Tier-1 matching rule: exact normalized match
// wins first; otherwise a whole-word containment match in either direction
// (so the alias "la" matches "la downtown" but not "atlantis").
func lookupStatic(normalized string) (staticEntry, bool) {
	for _, e := range staticMap {
		if normalizeName(e.regionName) == normalized {
			return e, true
		}
		for _, a := range e.aliases {
			if a == normalized {
				return e, true
			}
		}
	}
	for _, e := range staticMap {
		canon := normalizeName(e.regionName)
		if containsEither(canon, normalized) {
			return e, true
		}
		for _, a := range e.aliases {
			if containsEither(a, normalized) {
				return e, true
			}
		}
	}
	return staticEntry{}, false
}

func containsEither(a, b string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	// Inputs are normalized (single spaces, no punctuation), so padding with
	// spaces restricts matches to whole words.
	pa, pb := " "+a+" ", " "+b+" "
	return strings.Contains(pa, pb) || strings.Contains(pb, pa)
}
