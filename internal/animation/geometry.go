package animation

import "math"

// Radius is the normalised circle radius used by circular charts. It is chosen
// so that the circumference is close to 100 and a percentage maps directly to
// arc-length units.
const Radius = 15.9155

// Circumference of the circular chart path.
const Circumference = 2 * math.Pi * Radius

// FinalOffset returns the undrawn arc length for percent in [0,100].
func FinalOffset(percent int) float64 {
	p := ClampPercent(percent)
	return Circumference * (1 - float64(p)/100)
}

// ClampPercent bounds v to [0,100].
func ClampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampOffset(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > Circumference {
		return Circumference
	}
	return v
}
