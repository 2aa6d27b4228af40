// Package animation drives eased, frame-based interpolations for dashboard widgets.
package animation

// EaseOutCubic maps linear progress t in [0,1] to 1-(1-t)^3.
// Values outside the domain are clamped.
func EaseOutCubic(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	u := 1 - t
	return 1 - u*u*u
}
