// SPDX-License-Identifier: EPL-2.0

package tween

import (
	"fmt"
	"math"
	"strings"
)

// Easing selects the curve that maps normalized time [0,1] onto normalized
// progress. The zero value is Linear.
type Easing uint8

const (
	Linear Easing = iota
	QuadIn
	QuadOut
	QuadInOut
	CubicIn
	CubicOut
	CubicInOut
	QuartIn
	QuartOut
	QuartInOut
	QuintIn
	QuintOut
	QuintInOut
	SineIn
	SineOut
	SineInOut
	ExpoIn
	ExpoOut
	ExpoInOut
	CircIn
	CircOut
	CircInOut
	BackIn
	BackOut
	BackInOut
	ElasticIn
	ElasticOut
	ElasticInOut
	BounceIn
	BounceOut
	BounceInOut

	numEasings
)

type curve struct {
	name string
	fn   func(t float64) float64
}

// curves is indexed by Easing. Adding a curve only adds a row here.
var curves = [numEasings]curve{
	Linear:       {"linear", func(t float64) float64 { return t }},
	QuadIn:       {"quad-in", func(t float64) float64 { return t * t }},
	QuadOut:      {"quad-out", func(t float64) float64 { return 1 - (1-t)*(1-t) }},
	QuadInOut:    {"quad-in-out", quadInOut},
	CubicIn:      {"cubic-in", func(t float64) float64 { return t * t * t }},
	CubicOut:     {"cubic-out", func(t float64) float64 { return 1 - math.Pow(1-t, 3) }},
	CubicInOut:   {"cubic-in-out", cubicInOut},
	QuartIn:      {"quart-in", func(t float64) float64 { return t * t * t * t }},
	QuartOut:     {"quart-out", func(t float64) float64 { return 1 - math.Pow(1-t, 4) }},
	QuartInOut:   {"quart-in-out", quartInOut},
	QuintIn:      {"quint-in", func(t float64) float64 { return t * t * t * t * t }},
	QuintOut:     {"quint-out", func(t float64) float64 { return 1 - math.Pow(1-t, 5) }},
	QuintInOut:   {"quint-in-out", quintInOut},
	SineIn:       {"sine-in", func(t float64) float64 { return 1 - math.Cos(t*math.Pi/2) }},
	SineOut:      {"sine-out", func(t float64) float64 { return math.Sin(t * math.Pi / 2) }},
	SineInOut:    {"sine-in-out", func(t float64) float64 { return -(math.Cos(math.Pi*t) - 1) / 2 }},
	ExpoIn:       {"expo-in", expoIn},
	ExpoOut:      {"expo-out", expoOut},
	ExpoInOut:    {"expo-in-out", expoInOut},
	CircIn:       {"circ-in", func(t float64) float64 { return 1 - math.Sqrt(1-t*t) }},
	CircOut:      {"circ-out", func(t float64) float64 { return math.Sqrt(1 - (t-1)*(t-1)) }},
	CircInOut:    {"circ-in-out", circInOut},
	BackIn:       {"back-in", backIn},
	BackOut:      {"back-out", backOut},
	BackInOut:    {"back-in-out", backInOut},
	ElasticIn:    {"elastic-in", elasticIn},
	ElasticOut:   {"elastic-out", elasticOut},
	ElasticInOut: {"elastic-in-out", elasticInOut},
	BounceIn:     {"bounce-in", func(t float64) float64 { return 1 - bounceOut(1-t) }},
	BounceOut:    {"bounce-out", bounceOut},
	BounceInOut:  {"bounce-in-out", bounceInOut},
}

// Apply evaluates the curve at t, clamping t to [0,1]. Unknown kinds fall
// back to Linear.
func (e Easing) Apply(t float64) float64 {
	if t <= 0 {
		t = 0
	} else if t >= 1 {
		t = 1
	}
	if e >= numEasings {
		return t
	}
	return curves[e].fn(t)
}

func (e Easing) String() string {
	if e >= numEasings {
		return fmt.Sprintf("easing(%d)", uint8(e))
	}
	return curves[e].name
}

// ParseEasing resolves a curve by name ("linear", "cubic-in-out", ...).
// Matching ignores case, and underscores are accepted in place of dashes.
func ParseEasing(name string) (Easing, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	if key == "" {
		return Linear, nil
	}
	for i, c := range curves {
		if c.name == key {
			return Easing(i), nil
		}
	}
	return Linear, fmt.Errorf("%w: %q", ErrUnknownEasing, name)
}

// MarshalText implements encoding.TextMarshaler.
func (e Easing) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Easing) UnmarshalText(text []byte) error {
	v, err := ParseEasing(string(text))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

const (
	backC1 = 1.70158
	backC2 = backC1 * 1.525
	backC3 = backC1 + 1

	elasticC4 = (2 * math.Pi) / 3
	elasticC5 = (2 * math.Pi) / 4.5
)

func quadInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

func cubicInOut(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

func quartInOut(t float64) float64 {
	if t < 0.5 {
		return 8 * t * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 4)/2
}

func quintInOut(t float64) float64 {
	if t < 0.5 {
		return 16 * t * t * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 5)/2
}

func expoIn(t float64) float64 {
	if t == 0 {
		return 0
	}
	return math.Pow(2, 10*t-10)
}

func expoOut(t float64) float64 {
	if t == 1 {
		return 1
	}
	return 1 - math.Pow(2, -10*t)
}

func expoInOut(t float64) float64 {
	switch {
	case t == 0:
		return 0
	case t == 1:
		return 1
	case t < 0.5:
		return math.Pow(2, 20*t-10) / 2
	default:
		return (2 - math.Pow(2, -20*t+10)) / 2
	}
}

func circInOut(t float64) float64 {
	if t < 0.5 {
		return (1 - math.Sqrt(1-math.Pow(2*t, 2))) / 2
	}
	return (math.Sqrt(1-math.Pow(-2*t+2, 2)) + 1) / 2
}

func backIn(t float64) float64 {
	return backC3*t*t*t - backC1*t*t
}

func backOut(t float64) float64 {
	return 1 + backC3*math.Pow(t-1, 3) + backC1*math.Pow(t-1, 2)
}

func backInOut(t float64) float64 {
	if t < 0.5 {
		return (math.Pow(2*t, 2) * ((backC2+1)*2*t - backC2)) / 2
	}
	return (math.Pow(2*t-2, 2)*((backC2+1)*(t*2-2)+backC2) + 2) / 2
}

func elasticIn(t float64) float64 {
	if t == 0 || t == 1 {
		return t
	}
	return -math.Pow(2, 10*t-10) * math.Sin((t*10-10.75)*elasticC4)
}

func elasticOut(t float64) float64 {
	if t == 0 || t == 1 {
		return t
	}
	return math.Pow(2, -10*t)*math.Sin((t*10-0.75)*elasticC4) + 1
}

func elasticInOut(t float64) float64 {
	switch {
	case t == 0 || t == 1:
		return t
	case t < 0.5:
		return -(math.Pow(2, 20*t-10) * math.Sin((20*t-11.125)*elasticC5)) / 2
	default:
		return (math.Pow(2, -20*t+10)*math.Sin((20*t-11.125)*elasticC5))/2 + 1
	}
}

func bounceOut(t float64) float64 {
	const (
		n1 = 7.5625
		d1 = 2.75
	)
	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	default:
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}

func bounceInOut(t float64) float64 {
	if t < 0.5 {
		return (1 - bounceOut(1-2*t)) / 2
	}
	return (1 + bounceOut(2*t-1)) / 2
}
