package correlate

import (
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// lev is shared across calls; the metric carries only cost constants.
var lev = metrics.NewLevenshtein()

// Similarity scores two raw team names in [0, 1]. Both names are normalized
// first, then the best of the order-sensitive, token-sorted and token-set
// comparisons wins, so "Lakers LA" still matches "LA Lakers" and a shared
// core name survives extra qualifier tokens on one side.
func Similarity(a, b string) float64 {
	na, nb := NormalizeTeamName(a), NormalizeTeamName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	score := strutil.Similarity(na, nb, lev)
	if s := strutil.Similarity(sortTokens(na), sortTokens(nb), lev); s > score {
		score = s
	}
	if s := tokenSetSimilarity(na, nb); s > score {
		score = s
	}
	return score
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// tokenSetSimilarity compares the shared tokens of both names against each
// full name, which scores highly when one side is a subset of the other.
func tokenSetSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	var shared, onlyA, onlyB []string
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			shared = append(shared, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if _, ok := setA[tok]; !ok {
			onlyB = append(onlyB, tok)
		}
	}
	if len(shared) == 0 {
		return 0
	}
	sort.Strings(shared)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(shared, " ")
	fullA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	fullB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := strutil.Similarity(base, fullA, lev)
	if s := strutil.Similarity(base, fullB, lev); s > best {
		best = s
	}
	if s := strutil.Similarity(fullA, fullB, lev); s > best {
		best = s
	}
	return best
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}
