package domain

import "time"

// MarketType classifies a bettable line.
type MarketType string

const (
	MarketMoneyline MarketType = "moneyline"
	MarketSpread    MarketType = "spread"
	MarketTotal     MarketType = "total"
	MarketTeamTotal MarketType = "team_total"
)

// Selection identifies the side of a market a quote is for.
type Selection string

const (
	SelectionHome  Selection = "home"
	SelectionAway  Selection = "away"
	SelectionDraw  Selection = "draw"
	SelectionOver  Selection = "over"
	SelectionUnder Selection = "under"
)

// Quote is a single side's price from one source. A Decimal of 0 means the
// source has no price for this side.
type Quote struct {
	Source  string  `json:"source"`
	Decimal float64 `json:"decimal"`
}

// Valid reports whether the quote carries a usable decimal price. Decimal
// odds at or below 1.0001 imply a negative or zero payout and are treated
// as absent.
func (q Quote) Valid() bool {
	return q.Decimal > 1.0001
}

// Market is one side of one bettable line for an event: a (type, selection,
// line) triple with per-source quotes and, once computed, the fair (no-vig)
// price and the tradable side's expected value against it.
//
// FairDecimal, FairAmerican and EV are always derived by the odds package;
// callers never set them directly.
type Market struct {
	Type      MarketType `json:"type"`
	Selection Selection  `json:"selection"`
	// Line is the handicap or total points; nil for moneylines.
	Line *float64 `json:"line,omitempty"`
	// Team disambiguates team totals (home or away); empty otherwise.
	Team Selection `json:"team,omitempty"`
	// Quotes maps a source id to that source's current price.
	Quotes map[string]Quote `json:"quotes"`

	FairDecimal  float64 `json:"fair_decimal,omitempty"`
	FairAmerican int     `json:"fair_american,omitempty"`
	EV           float64 `json:"ev"`
}

// MarketKey identifies a market within an event for diffing and merging.
type MarketKey struct {
	Type      MarketType
	Selection Selection
	Team      Selection
	Line      float64
	HasLine   bool
}

// Key returns the market's identity key.
func (m Market) Key() MarketKey {
	k := MarketKey{Type: m.Type, Selection: m.Selection, Team: m.Team}
	if m.Line != nil {
		k.Line = *m.Line
		k.HasLine = true
	}
	return k
}

// Quote returns the market's quote from the given source, if valid.
func (m Market) Quote(source string) (Quote, bool) {
	q, ok := m.Quotes[source]
	if !ok || !q.Valid() {
		return Quote{}, false
	}
	return q, true
}

// CloneMarkets deep-copies a market slice, including the quote maps.
func CloneMarkets(markets []Market) []Market {
	if markets == nil {
		return nil
	}
	out := make([]Market, len(markets))
	for i, m := range markets {
		out[i] = m
		if m.Line != nil {
			line := *m.Line
			out[i].Line = &line
		}
		if m.Quotes != nil {
			out[i].Quotes = make(map[string]Quote, len(m.Quotes))
			for src, q := range m.Quotes {
				out[i].Quotes[src] = q
			}
		}
	}
	return out
}

// EventSnapshot is one real-world match as seen from one source at one point
// in time.
type EventSnapshot struct {
	EventID    string    `json:"event_id"`
	Home       string    `json:"home"`
	Away       string    `json:"away"`
	Sport      string    `json:"sport"`
	League     string    `json:"league,omitempty"`
	Markets    []Market  `json:"markets"`
	CapturedAt time.Time `json:"captured_at"`
}

// Clone returns a deep copy of the snapshot.
func (s EventSnapshot) Clone() EventSnapshot {
	out := s
	out.Markets = CloneMarkets(s.Markets)
	return out
}
