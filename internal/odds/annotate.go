package odds

import (
	"math"

	"github.com/kylemaddern/oddscreen/internal/domain"
)

// MaxRealisticEV bounds believable edges. An EV further from zero than this
// is a stale or mis-keyed quote, not an opportunity, and is zeroed out.
const MaxRealisticEV = 0.30

// outcomeGroup identifies the set of markets that together form one complete
// book: all selections of the same type, line and team.
type outcomeGroup struct {
	Type    domain.MarketType
	Team    domain.Selection
	Line    float64
	HasLine bool
}

func groupOf(m domain.Market) outcomeGroup {
	g := outcomeGroup{Type: m.Type, Team: m.Team}
	if m.Line != nil {
		g.Line = *m.Line
		// The two sides of a spread carry mirrored handicaps (home -1.5,
		// away +1.5); key the book on the unsigned line so they de-vig
		// together.
		if m.Type == domain.MarketSpread {
			g.Line = math.Abs(*m.Line)
		}
		g.HasLine = true
	}
	return g
}

// Annotate fills FairDecimal and FairAmerican on every market of the
// snapshot from the reference source's quotes. Markets are grouped into
// complete books first so the de-vig sees every sibling outcome; a group
// with fewer than two priced outcomes gets no fair price.
func Annotate(snap *domain.EventSnapshot, referenceSource string) {
	groups := make(map[outcomeGroup][]int)
	for i, m := range snap.Markets {
		groups[groupOf(m)] = append(groups[groupOf(m)], i)
	}

	for _, members := range groups {
		decimals := make([]float64, len(members))
		for j, i := range members {
			if q, ok := snap.Markets[i].Quote(referenceSource); ok {
				decimals[j] = q.Decimal
			}
		}
		fair := RemoveVig(decimals)
		for j, i := range members {
			m := &snap.Markets[i]
			m.FairDecimal = fair[j]
			m.FairAmerican = 0
			if am, ok := DecimalToAmerican(fair[j]); ok {
				m.FairAmerican = am
			}
		}
	}
}

// ComputeEV fills EV on every market from the tradable source's quote
// against the fair price set by Annotate, zeroing anything beyond
// MaxRealisticEV. It returns how many markets carry positive EV.
func ComputeEV(snap *domain.EventSnapshot, tradableSource string) int {
	positive := 0
	for i := range snap.Markets {
		m := &snap.Markets[i]
		m.EV = 0
		q, ok := m.Quote(tradableSource)
		if !ok || m.FairDecimal <= MinValidDecimal {
			continue
		}
		ev := EV(q.Decimal, m.FairDecimal)
		if ev > MaxRealisticEV || ev < -MaxRealisticEV {
			continue
		}
		m.EV = ev
		if ev > 0 {
			positive++
		}
	}
	return positive
}
