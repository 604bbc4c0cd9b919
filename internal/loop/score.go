package loop

import "math"

// normalizeScore coerces a raw scorer value into the [0,10] quality scale.
// Non-numeric (NaN/Inf) and out-of-range values are replaced with the neutral
// default rather than failing the cycle.
func normalizeScore(raw, neutral float64) float64 {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return neutral
	}
	if raw < 0 || raw > 10 {
		return neutral
	}
	return raw
}
