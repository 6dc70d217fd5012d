package systems

import (
	"math"
	"math/rand"
)

// clamp clamps v between minVal and maxVal.
func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// normalizeAngle wraps an angle to (-Pi, Pi].
func normalizeAngle(angle float64) float64 {
	const twoPi = 2 * math.Pi
	angle = math.Mod(angle+math.Pi, twoPi)
	if angle <= 0 {
		angle += twoPi
	}
	return angle - math.Pi
}

// uniform draws from [r[0], r[1]), or returns r[0] for an empty range.
func uniform(rng *rand.Rand, r [2]float64) float64 {
	return r[0] + rng.Float64()*(r[1]-r[0])
}
