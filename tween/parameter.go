// SPDX-License-Identifier: EPL-2.0

package tween

import (
	"math"
	"time"
)

// completion tolerance for accumulated per-frame time steps
const epsilon = 1e-9

// Tween describes how a Parameter moves to a new target.
type Tween struct {
	// Duration of the transition. Zero jumps to the target on the next step.
	Duration time.Duration
	// Delay before the transition starts. The value holds until it elapses.
	Delay time.Duration
	// Easing curve applied over Duration.
	Easing Easing
}

// Instant is a Tween that resolves on the next step.
func Instant() Tween { return Tween{} }

// Over is a Tween of duration d with curve e.
func Over(d time.Duration, e Easing) Tween { return Tween{Duration: d, Easing: e} }

// Parameter is a scalar that transitions toward a target over time.
// It is not safe for concurrent use; a Parameter belongs to exactly one
// voice and is only touched by the render goroutine.
type Parameter struct {
	current float32
	start   float32
	target  float32

	// seconds
	elapsed float64
	total   float64
	delay   float64

	easing Easing
	active bool
}

// NewParameter returns a dormant Parameter holding v.
func NewParameter(v float32) Parameter {
	return Parameter{current: v, start: v, target: v}
}

// Set starts a transition to target from the current, already interpolated,
// value. A transition in progress is replaced without snapping back.
func (p *Parameter) Set(target float32, tw Tween) {
	p.start = p.current
	p.target = target
	p.elapsed = 0
	p.total = math.Max(tw.Duration.Seconds(), 0)
	p.delay = math.Max(tw.Delay.Seconds(), 0)
	p.easing = tw.Easing
	p.active = true
}

// Reset jumps to v immediately and leaves the parameter dormant.
func (p *Parameter) Reset(v float32) {
	*p = NewParameter(v)
}

// Advance consumes one render step of dt seconds and returns the value for
// that instant.
func (p *Parameter) Advance(dt float64) float32 {
	if !p.active {
		return p.current
	}

	if p.delay > 0 {
		p.delay -= dt
		if p.delay > epsilon {
			return p.current
		}
		dt = math.Max(-p.delay, 0)
		p.delay = 0
		p.start = p.current
	}

	p.elapsed += dt
	if p.elapsed >= p.total-epsilon {
		p.elapsed = p.total
		p.current = p.target
		p.active = false
		return p.current
	}

	progress := float32(p.easing.Apply(p.elapsed / p.total))
	p.current = p.start + (p.target-p.start)*progress
	return p.current
}

// AdvanceFrames advances by n frames at sampleRate.
func (p *Parameter) AdvanceFrames(n int, sampleRate int) float32 {
	if sampleRate <= 0 {
		return p.current
	}
	return p.Advance(float64(n) / float64(sampleRate))
}

// Value is the most recently evaluated value.
func (p *Parameter) Value() float32 { return p.current }

// Target is the value the current transition ends on.
func (p *Parameter) Target() float32 { return p.target }

// Active reports whether a transition (or its delay) is still running.
func (p *Parameter) Active() bool { return p.active }

// Elapsed returns the time spent in the current transition and its total
// duration.
func (p *Parameter) Elapsed() (elapsed, total time.Duration) {
	return secondsToDuration(p.elapsed), secondsToDuration(p.total)
}

// SemitonesToRate converts a pitch offset in semitones to a playback rate
// factor.
func SemitonesToRate(semitones float64) float64 {
	return math.Exp2(semitones / 12)
}

// RateToSemitones converts a playback rate factor to a pitch offset.
func RateToSemitones(rate float64) float64 {
	return 12 * math.Log2(math.Abs(rate))
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
