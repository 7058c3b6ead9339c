// Package odds holds the odds conversion and payout arithmetic.
// Everything here is a pure function; money amounts are int64 cents.
package odds

import "math"

// ExtremeFavorite is the American-odds sentinel returned for decimal odds
// at or below 1.0, which have no finite American representation.
const ExtremeFavorite = -100000

// AmericanToDecimal converts American odds to decimal odds.
// Decimal odds are the total-return multiplier: stake * decimal = total return.
func AmericanToDecimal(american int) float64 {
	if american >= 0 {
		return float64(american)/100.0 + 1.0
	}
	return 100.0/math.Abs(float64(american)) + 1.0
}

// DecimalToAmerican converts decimal odds back to American odds.
// Decimal odds <= 1.0 map to the ExtremeFavorite sentinel.
func DecimalToAmerican(decimal float64) int {
	switch {
	case decimal >= 2.0:
		return int(math.Round((decimal - 1.0) * 100.0))
	case decimal > 1.0:
		return int(math.Round(-100.0 / (decimal - 1.0)))
	default:
		return ExtremeFavorite
	}
}

// Payout computes a single-wager payout in cents, rounded to cent
// precision (two decimal places in whole units).
func Payout(stakeCents int64, decimal float64) int64 {
	return int64(math.Round(float64(stakeCents) * decimal))
}

// CombinedOdds multiplies leg decimal odds into parlay odds.
func CombinedOdds(legOdds []float64) float64 {
	combined := 1.0
	for _, o := range legOdds {
		combined *= o
	}
	return combined
}

// ParlayPayout computes a parlay payout in cents. Parlay payouts round to
// the nearest whole unit, not to cents. The asymmetry with Payout is
// deliberate and must be preserved.
func ParlayPayout(stakeCents int64, combined float64) int64 {
	units := math.Round(float64(stakeCents) * combined / 100.0)
	return int64(units) * 100
}
