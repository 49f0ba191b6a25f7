package correlate

import (
	"testing"

	"github.com/kylemaddern/oddscreen/internal/domain"
)

func evt(id, home, away string) domain.EventSnapshot {
	return domain.EventSnapshot{EventID: id, Home: home, Away: away}
}

func TestMatchEventsPairsAcrossSources(t *testing.T) {
	left := []domain.EventSnapshot{
		evt("l1", "Inter Milan", "Juventus"),
		evt("l2", "Boston Celtics", "Los Angeles Lakers"),
		evt("l3", "Arsenal", "Chelsea"),
	}
	right := []domain.EventSnapshot{
		evt("r1", "Celtics Boston", "LA Lakers"),
		evt("r2", "FC Internazionale", "Juve"),
	}

	got := MatchEvents(left, right, 0)
	if len(got) != 2 {
		t.Fatalf("matched %d pairs, want 2", len(got))
	}

	byLeft := make(map[string]domain.MatchResult)
	for _, m := range got {
		byLeft[m.Left.EventID] = m
	}
	if m, ok := byLeft["l1"]; !ok || m.Right.EventID != "r2" {
		t.Errorf("l1 matched %+v, want r2", byLeft["l1"].Right.EventID)
	}
	if m, ok := byLeft["l2"]; !ok || m.Right.EventID != "r1" {
		t.Errorf("l2 matched %+v, want r1", byLeft["l2"].Right.EventID)
	}
	if _, ok := byLeft["l3"]; ok {
		t.Error("l3 has no counterpart and must stay unmatched")
	}
}

func TestMatchEventsSwappedOrientation(t *testing.T) {
	left := []domain.EventSnapshot{evt("l1", "Arsenal", "Chelsea")}
	right := []domain.EventSnapshot{evt("r1", "Chelsea", "Arsenal")}

	got := MatchEvents(left, right, 0)
	if len(got) != 1 {
		t.Fatalf("matched %d pairs, want 1", len(got))
	}
	if !got[0].Swapped {
		t.Error("crossed team order must set Swapped")
	}
	if got[0].Score < DefaultThreshold {
		t.Errorf("score = %v, want >= %v", got[0].Score, DefaultThreshold)
	}
}

func TestMatchEventsRightUsedOnce(t *testing.T) {
	// Two left events both resemble the single right event; only the first
	// may claim it.
	left := []domain.EventSnapshot{
		evt("l1", "Real Madrid", "Barcelona"),
		evt("l2", "Real Madrid CF", "FC Barcelona"),
	}
	right := []domain.EventSnapshot{evt("r1", "Real Madrid", "Barcelona")}

	got := MatchEvents(left, right, 0)
	if len(got) != 1 {
		t.Fatalf("matched %d pairs, want 1", len(got))
	}
	if got[0].Left.EventID != "l1" {
		t.Errorf("right event claimed by %s, want l1 (first fit)", got[0].Left.EventID)
	}
}

func TestMatchEventsThreshold(t *testing.T) {
	left := []domain.EventSnapshot{evt("l1", "Arsenal", "Chelsea")}
	right := []domain.EventSnapshot{evt("r1", "Everton", "Fulham")}

	if got := MatchEvents(left, right, 0); len(got) != 0 {
		t.Errorf("unrelated events matched: %+v", got)
	}
}

func TestOrient(t *testing.T) {
	straightScore, swapped := Orient(
		evt("a", "Arsenal", "Chelsea"),
		evt("b", "Arsenal FC", "Chelsea FC"),
	)
	if swapped {
		t.Error("straight pairing reported as swapped")
	}
	if straightScore < DefaultThreshold {
		t.Errorf("straight score = %v, want >= %v", straightScore, DefaultThreshold)
	}

	swappedScore, swapped := Orient(
		evt("a", "Arsenal", "Chelsea"),
		evt("b", "Chelsea", "Arsenal"),
	)
	if !swapped {
		t.Error("crossed pairing not reported as swapped")
	}
	if swappedScore != 1.0 {
		t.Errorf("swapped score = %v, want 1.0", swappedScore)
	}
}
