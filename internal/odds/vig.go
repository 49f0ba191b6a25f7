package odds

import "math"

const (
	devigTolerance = 1e-4
	devigMaxIter   = 100
)

// RemoveVig strips the bookmaker margin from a full set of decimal prices
// for one market using the power method: it finds the exponent k such that
// the powered implied probabilities sum to one, then converts back to
// decimal prices rounded to three places.
//
// The returned slice is positionally aligned with the input. Invalid inputs
// (at or below MinValidDecimal) come back as 0. If fewer than two prices are
// valid there is nothing to normalize and every position is 0. If the
// implied probabilities already sum to at most one the valid prices are
// returned unchanged.
func RemoveVig(decimals []float64) []float64 {
	out := make([]float64, len(decimals))

	var probs []float64
	var idx []int
	for i, d := range decimals {
		if d > MinValidDecimal {
			probs = append(probs, 1/d)
			idx = append(idx, i)
		}
	}
	if len(probs) < 2 {
		return out
	}

	var sum float64
	for _, p := range probs {
		sum += p
	}
	if sum <= 1.0001 {
		for j, i := range idx {
			out[i] = decimals[idx[j]]
		}
		return out
	}

	k := solvePowerExponent(probs)

	// Normalize the powered probabilities before inverting so the fair
	// probabilities sum to exactly one even when the Newton iteration
	// stopped short of full convergence.
	powered := make([]float64, len(probs))
	var powSum float64
	for j, p := range probs {
		powered[j] = math.Pow(p, k)
		powSum += powered[j]
	}
	if powSum <= 0 {
		return out
	}
	for j, i := range idx {
		fair := powered[j] / powSum
		if fair <= 0 {
			continue
		}
		out[i] = math.Round(1/fair*1000) / 1000
	}
	return out
}

// solvePowerExponent finds k with sum(p_i^k) = 1 by Newton iteration.
func solvePowerExponent(probs []float64) float64 {
	k := 1.0
	for i := 0; i < devigMaxIter; i++ {
		var f, df float64
		for _, p := range probs {
			pk := math.Pow(p, k)
			f += pk
			df += pk * math.Log(p)
		}
		f -= 1
		if math.Abs(f) < devigTolerance {
			break
		}
		if math.Abs(df) < 1e-9 {
			break
		}
		k -= f / df
	}
	return k
}
