package correlate

import "strings"

// propIndicators appear inside "team names" when an alert is really a prop,
// future or derivative market rather than a full-game matchup.
var propIndicators = []string{
	"(corners)", "(bookings)", "(hits+runs+errors)",
	"to lift the trophy", "lift the trophy", "mvp", "futures", "outright",
	"coach of the year", "player of the year", "series correct score",
	"when will series finish", "most points in series", "most assists in series",
	"most rebounds in series", "most threes made in series", "margin of victory",
	"exact outcome", "to win the tournament", "to win group", "series price",
}

// periodIndicators mark partial-game lines that never correlate with
// full-game reference odds.
var periodIndicators = []string{
	"1h", "1st half", "first half", "1st 5 innings", "first five innings",
	"1st period", "2nd period", "3rd period",
	"hits+runs+errors", "h+r+e", "hre", "corners", "series",
}

// IsPropMarket reports whether an alert's team names describe a prop,
// derivative or partial-game market instead of a full-game matchup. These
// cannot be correlated against a reference event and are rejected at ingest.
func IsPropMarket(home, away string) bool {
	if home == "" || away == "" {
		return false
	}
	h := strings.ToLower(home)
	a := strings.ToLower(away)
	for _, ind := range propIndicators {
		if strings.Contains(h, ind) || strings.Contains(a, ind) {
			return true
		}
	}
	for _, ind := range periodIndicators {
		if strings.Contains(h, ind) || strings.Contains(a, ind) {
			return true
		}
	}
	if strings.Contains(a, "the") && strings.Contains(a, "field") {
		return true
	}
	if h == "yes" && a == "no" {
		return true
	}
	return false
}
