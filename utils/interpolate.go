// SPDX-License-Identifier: EPL-2.0

package utils

// CubicInterpolate performs Catmull-Rom interpolation.
// x is the fractional position between y1 and y2 (0 <= x <= 1)
// y0, y1, y2, y3 are four consecutive samples
func CubicInterpolate(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	return ((a0*x+a1)*x+a2)*x + a3
}

// LinearInterpolate blends y1 and y2 at fractional position x.
// x == 0 returns y1 exactly, so unity-rate playback is bit exact.
func LinearInterpolate(y1, y2, x float32) float32 {
	if x == 0 {
		return y1
	}
	return y1 + (y2-y1)*x
}
