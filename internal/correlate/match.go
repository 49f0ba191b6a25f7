package correlate

import (
	"math"

	"github.com/kylemaddern/oddscreen/internal/domain"
)

// DefaultThreshold is the minimum pairing score for two events from
// different sources to be considered the same real-world match.
const DefaultThreshold = 0.78

// Orient scores a candidate pairing of two events in both orientations:
// straight (home-home, away-away) and swapped (home-away, away-home). It
// returns the better score and whether the swapped orientation won, so a
// feed that lists teams in the opposite order still correlates.
func Orient(left, right domain.EventSnapshot) (float64, bool) {
	straight := (Similarity(left.Home, right.Home) + Similarity(left.Away, right.Away)) / 2
	swapped := (Similarity(left.Home, right.Away) + Similarity(left.Away, right.Home)) / 2
	if swapped > straight {
		return swapped, true
	}
	return straight, false
}

// MatchEvents pairs events from two sources by fuzzy team-name similarity.
// Matching is greedy first-fit: each left event takes the best unused right
// event at or above the threshold, and a claimed right event is never
// reconsidered for a later left event. Pass threshold <= 0 to use
// DefaultThreshold.
func MatchEvents(left, right []domain.EventSnapshot, threshold float64) []domain.MatchResult {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	var results []domain.MatchResult
	usedRight := make(map[int]bool, len(right))

	for _, l := range left {
		bestIdx := -1
		bestScore := 0.0
		bestSwapped := false
		for i, r := range right {
			if usedRight[i] {
				continue
			}
			score, swapped := Orient(l, r)
			if score >= threshold && score > bestScore {
				bestIdx = i
				bestScore = score
				bestSwapped = swapped
			}
		}
		if bestIdx < 0 {
			continue
		}
		usedRight[bestIdx] = true
		results = append(results, domain.MatchResult{
			Left:    l,
			Right:   right[bestIdx],
			Score:   math.Round(bestScore*1000) / 1000,
			Swapped: bestSwapped,
		})
	}
	return results
}
