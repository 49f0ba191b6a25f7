package domain

// MatchResult pairs one left-source event with one right-source event.
type MatchResult struct {
	Left  EventSnapshot `json:"left"`
	Right EventSnapshot `json:"right"`
	// Score is the similarity of the pairing in [0,1].
	Score float64 `json:"score"`
	// Swapped is true when the best pairing has the teams crossed, i.e.
	// left's home matched right's away and vice versa.
	Swapped bool `json:"swapped"`
}
