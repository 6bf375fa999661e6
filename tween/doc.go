// SPDX-License-Identifier: EPL-2.0

// Package tween provides smoothly transitioning scalar parameters.
//
// A Parameter holds a value and, optionally, a running transition toward a
// target. The mixer advances every parameter once per output frame:
//
//	vol := tween.NewParameter(1)
//	vol.Set(0, tween.Over(500*time.Millisecond, tween.CubicInOut))
//	for range frames {
//	    gain := vol.Advance(1.0 / 48000)
//	    ...
//	}
//
// Curves are plain data. Easing values index a table of functions, so new
// curves never change the Parameter type.
//
// Setting a new target while a transition runs restarts the interpolation
// from the value currently in effect, which avoids audible jumps.
package tween
