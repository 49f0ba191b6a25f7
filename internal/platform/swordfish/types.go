package swordfish

import (
	"time"

	"github.com/kylemaddern/oddscreen/internal/domain"
	"github.com/kylemaddern/oddscreen/internal/odds"
)

// fullGamePeriod is the period key for full-game lines. Partial-game periods
// (halves, quarters, innings) are ignored: the cache prices full games only.
const fullGamePeriod = "num_0"

// APIResponse is the feed's envelope.
type APIResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
	Data    APIEvent `json:"data"`
}

// APIEvent is one event with per-period odds, American prices throughout.
type APIEvent struct {
	EventID string               `json:"event_id"`
	Home    string               `json:"home"`
	Away    string               `json:"away"`
	Sport   string               `json:"sport,omitempty"`
	League  string               `json:"league,omitempty"`
	Periods map[string]APIPeriod `json:"periods"`
}

// APIPeriod carries the market groups for one game period. Keys of Spreads
// and Totals are the line as a string, e.g. "-1.5" or "215.5".
type APIPeriod struct {
	MoneyLine  *APIMoneyLine           `json:"money_line,omitempty"`
	Spreads    map[string]APISpread    `json:"spreads,omitempty"`
	Totals     map[string]APITotal     `json:"totals,omitempty"`
	TeamTotals map[string]APITeamTotal `json:"team_total,omitempty"`
}

// APIMoneyLine uses pointers so an absent side (no draw in US sports) is
// distinguishable from a zero price.
type APIMoneyLine struct {
	Home *float64 `json:"home"`
	Draw *float64 `json:"draw"`
	Away *float64 `json:"away"`
}

type APISpread struct {
	Hdp  float64  `json:"hdp"`
	Home *float64 `json:"home"`
	Away *float64 `json:"away"`
}

type APITotal struct {
	Points float64  `json:"points"`
	Over   *float64 `json:"over"`
	Under  *float64 `json:"under"`
}

// APITeamTotal is keyed by "home"/"away" in the periods payload.
type APITeamTotal struct {
	Points float64  `json:"points"`
	Over   *float64 `json:"over"`
	Under  *float64 `json:"under"`
}

// toSnapshot converts the full-game period into a domain snapshot, stamping
// every quote with the given source id. American prices convert to decimal
// on the way in; a nil or zero price becomes no quote at all.
func (e APIEvent) toSnapshot(source string, capturedAt time.Time) domain.EventSnapshot {
	snap := domain.EventSnapshot{
		EventID:    e.EventID,
		Home:       e.Home,
		Away:       e.Away,
		Sport:      e.Sport,
		League:     e.League,
		CapturedAt: capturedAt,
	}

	period, ok := e.Periods[fullGamePeriod]
	if !ok {
		return snap
	}

	add := func(mt domain.MarketType, sel domain.Selection, line *float64, team domain.Selection, american *float64) {
		if american == nil {
			return
		}
		decimal := odds.AmericanToDecimal(*american)
		if decimal <= odds.MinValidDecimal {
			return
		}
		snap.Markets = append(snap.Markets, domain.Market{
			Type:      mt,
			Selection: sel,
			Line:      line,
			Team:      team,
			Quotes: map[string]domain.Quote{
				source: {Source: source, Decimal: decimal},
			},
		})
	}

	if ml := period.MoneyLine; ml != nil {
		add(domain.MarketMoneyline, domain.SelectionHome, nil, "", ml.Home)
		add(domain.MarketMoneyline, domain.SelectionAway, nil, "", ml.Away)
		add(domain.MarketMoneyline, domain.SelectionDraw, nil, "", ml.Draw)
	}
	for _, sp := range period.Spreads {
		homeLine := sp.Hdp
		awayLine := -sp.Hdp
		add(domain.MarketSpread, domain.SelectionHome, &homeLine, "", sp.Home)
		add(domain.MarketSpread, domain.SelectionAway, &awayLine, "", sp.Away)
	}
	for _, tot := range period.Totals {
		line := tot.Points
		add(domain.MarketTotal, domain.SelectionOver, &line, "", tot.Over)
		add(domain.MarketTotal, domain.SelectionUnder, &line, "", tot.Under)
	}
	for side, tt := range period.TeamTotals {
		var team domain.Selection
		switch side {
		case "home":
			team = domain.SelectionHome
		case "away":
			team = domain.SelectionAway
		default:
			continue
		}
		line := tt.Points
		add(domain.MarketTeamTotal, domain.SelectionOver, &line, team, tt.Over)
		add(domain.MarketTeamTotal, domain.SelectionUnder, &line, team, tt.Under)
	}
	return snap
}
