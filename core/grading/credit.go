package grading

import "math"

// Accumulate adds deltaMinutes to totalHours; the result is never negative.
func Accumulate(totalHours float64, deltaMinutes int) float64 {
	return math.Max(totalHours+float64(deltaMinutes)/60, 0)
}

// CreditsForHours returns the credit step (1, 0.5, 0.25 or 0) earned by `hours`.
// A non-positive hoursPerCredit earns nothing.
func CreditsForHours(hours, hoursPerCredit float64) float64 {
	switch {
	case hoursPerCredit <= 0:
		return 0
	case hours >= hoursPerCredit:
		return 1
	case hours >= hoursPerCredit/2:
		return 0.5
	case hours >= hoursPerCredit/4:
		return 0.25
	default:
		return 0
	}
}

// Round2 rounds half away from zero to two decimals.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Clamp bounds a percentage to [0, 100]. NaN counts as 0.
func Clamp(pct float64) float64 {
	if math.IsNaN(pct) {
		return 0
	}
	return math.Min(math.Max(pct, 0), 100)
}
