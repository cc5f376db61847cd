package features

import "math"

// PercentDistance computes the signed percentage distance of price from a
// reference level, rounded to 2 decimals. Positive means price is above the
// level. Returns nil when the level is missing or exactly zero.
func PercentDistance(price float64, level *float64) *float64 {
	if level == nil || *level == 0 {
		return nil
	}
	d := Round2((price - *level) / *level * 100)
	return &d
}

// Round2 rounds to 2 decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
