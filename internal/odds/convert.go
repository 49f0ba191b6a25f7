package odds

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// MinValidDecimal is the smallest decimal price treated as a real quote.
// Anything at or below it pays nothing and is handled as absent.
const MinValidDecimal = 1.0001

var americanRe = regexp.MustCompile(`^[+-]?\d+$`)

// ParseAmerican parses an American odds string such as "+150" or "-110".
// Zero and anything non-numeric are rejected.
func ParseAmerican(s string) (float64, error) {
	if !americanRe.MatchString(s) {
		return 0, fmt.Errorf("odds: malformed american price %q", s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("odds: parse american %q: %w", s, err)
	}
	if v == 0 {
		return 0, fmt.Errorf("odds: american price cannot be zero")
	}
	return v, nil
}

// AmericanToDecimal converts American odds to decimal odds. Zero input has
// no decimal equivalent and yields 0.
func AmericanToDecimal(american float64) float64 {
	switch {
	case american > 0:
		return american/100 + 1
	case american < 0:
		return 100/-american + 1
	default:
		return 0
	}
}

// DecimalToAmerican converts decimal odds to the nearest American price.
// Decimals at or below MinValidDecimal are not convertible and report false.
// Ties round half away from zero, matching math.Round.
func DecimalToAmerican(decimal float64) (int, bool) {
	if decimal <= MinValidDecimal || math.IsNaN(decimal) || math.IsInf(decimal, 0) {
		return 0, false
	}
	if decimal >= 2.0 {
		return int(math.Round((decimal - 1) * 100)), true
	}
	return int(math.Round(-100 / (decimal - 1))), true
}

// EV returns the expected value of taking the tradable price against the
// fair (no-vig) price: tradable/fair - 1. Non-positive or invalid inputs
// yield 0.
func EV(tradable, fair float64) float64 {
	if tradable <= MinValidDecimal || fair <= MinValidDecimal {
		return 0
	}
	return tradable/fair - 1
}
