package correlate

import (
	"regexp"
	"strings"
)

// aliases maps every known variant of a team name to its canonical short
// form. Applied after structural cleanup so "FC Internazionale" and
// "Inter Milan" both land on "inter".
var aliases = map[string]string{
	"internazionale":      "inter",
	"inter milan":         "inter",
	"manchester united":   "man united",
	"manchester city":     "man city",
	"bayern munich":       "bayern",
	"paris saint germain": "psg",
	"paris sg":            "psg",
	"athletic bilbao":     "athletic club",
	"real sociedad":       "sociedad",
	"juventus":            "juve",
	"napoli":              "ssc napoli",
	"sporting":            "sporting cp",
	"porto":               "fc porto",
	"benfica":             "sl benfica",
	"sevilla":             "fc sevilla",
	"betis":               "real betis",
	"tottenham hotspur":   "tottenham",
	"spurs":               "tottenham",
	"rheindorf altach":    "altach",
	"scr altach":          "altach",

	// national sides
	"korea dpr":                            "north korea",
	"dpr korea":                            "north korea",
	"democratic peoples republic of korea": "north korea",
	"korea republic":                       "south korea",
	"republic of korea":                    "south korea",
	"cote divoire":                         "ivory coast",
	"czechia":                              "czech republic",
	"usa":                                  "united states",
	"united states of america":             "united states",
	"islamic republic of iran":             "iran",
	"russian federation":                   "russia",

	// north american abbreviations and nicknames
	"chi cubs":                 "chicago cubs",
	"chi white sox":            "chicago white sox",
	"reds":                     "cincinnati reds",
	"nats":                     "washington nationals",
	"mariners":                 "seattle mariners",
	"braves":                   "atlanta braves",
	"tiger-cats":               "tiger cats",
	"hamilton tiger cats":      "tiger cats",
	"hamilton tiger-cats":      "tiger cats",
	"winnipeg blue bombers":    "blue bombers",
	"saskatchewan roughriders": "roughriders",
	"calgary stampeders":       "stampeders",
	"edmonton eskimos":         "eskimos",
	"edmonton elks":            "eskimos",
	"ottawa redblacks":         "redblacks",
	"toronto argonauts":        "argonauts",
	"montreal alouettes":       "alouettes",
	"bc lions":                 "lions",
	"british columbia lions":   "lions",
}

// leagueSuffixes are league or country qualifiers some feeds append to team
// names, e.g. "Arsenal Premier League".
var leagueSuffixes = []string{
	"mlb", "nba", "nfl", "nhl", "ncaaf", "ncaab", "wnba",
	"poland", "bulgaria", "uruguay", "colombia", "peru", "argentina",
	"sweden", "romania", "finland", "england", "japan", "austria",
	"liga 1", "serie a", "bundesliga", "la liga", "ligue 1",
	"premier league", "epl", "mls", "tipico bundesliga",
}

// clubPrefixes are club-form prefixes stripped from the front of a name.
// Stripped twice so "FC SC X" collapses fully.
var clubPrefixes = []string{
	"if ", "fc ", "sc ", "bk ", "sk ", "ac ", "as ", "fk ",
	"cd ", "ca ", "afc ", "cfr ", "kc ", "scr ",
}

var (
	leadingDigitsRe = regexp.MustCompile(`^\d+\s*`)
	parentheticalRe = regexp.MustCompile(`\s*\([^)]*\)`)
	punctuationRe   = regexp.MustCompile(`[^\w\s.\-+]`)
)

// cityAbbrev pairs normalize the long and short forms of shared-city names.
var cityAbbrev = [][2]string{
	{"new york", "ny"},
	{"los angeles", "la"},
	{"st. louis", "st louis"},
	{"saint ", "st "},
}

// NormalizeTeamName canonicalizes a raw team name for matching: lower-case,
// structural noise removed (leading numbers, parentheticals, league suffixes,
// club prefixes), city abbreviations unified, then the alias table applied.
func NormalizeTeamName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return ""
	}
	name = strings.ReplaceAll(name, "\u00a0", " ")
	name = leadingDigitsRe.ReplaceAllString(name, "")
	name = parentheticalRe.ReplaceAllString(name, "")
	name = punctuationRe.ReplaceAllString(name, "")
	name = strings.Join(strings.Fields(name), " ")

	if alias, ok := aliases[name]; ok {
		return alias
	}

	for _, suffix := range leagueSuffixes {
		if name == suffix {
			continue
		}
		if trimmed, ok := strings.CutSuffix(name, " "+suffix); ok {
			name = trimmed
			break
		}
	}

	for range 2 {
		for _, prefix := range clubPrefixes {
			if trimmed, ok := strings.CutPrefix(name, prefix); ok {
				name = strings.TrimSpace(trimmed)
			}
		}
	}

	for _, pair := range cityAbbrev {
		name = strings.ReplaceAll(name, pair[0], pair[1])
	}

	name = strings.Join(strings.Fields(name), " ")
	if alias, ok := aliases[name]; ok {
		return alias
	}
	return name
}
