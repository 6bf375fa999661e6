// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	// MaxChannels bounds both the output layout and source layouts.
	MaxChannels = 8

	DefaultMaxVoices     = 64
	DefaultQueueCapacity = 1024
	DefaultEventCapacity = 256
)

// Interpolation selects how voices are resampled.
type Interpolation uint8

const (
	// Cubic is a 4-point Catmull-Rom spline.
	Cubic Interpolation = iota
	Linear
)

func (i Interpolation) String() string {
	switch i {
	case Cubic:
		return "cubic"
	case Linear:
		return "linear"
	default:
		return fmt.Sprintf("interpolation(%d)", uint8(i))
	}
}

// ParseInterpolation parses "cubic" or "linear". The empty string is cubic.
func ParseInterpolation(s string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cubic":
		return Cubic, nil
	case "linear":
		return Linear, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownInterpolation, s)
}

func (i Interpolation) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Interpolation) UnmarshalText(text []byte) error {
	v, err := ParseInterpolation(string(text))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// Config describes a Mixer. Zero capacities take their defaults.
type Config struct {
	SampleRate    int
	Channels      int
	MaxVoices     int
	QueueCapacity int
	EventCapacity int
	Interpolation Interpolation
	Logger        *zap.Logger
}

func (c Config) withDefaults() Config {
	if c.MaxVoices == 0 {
		c.MaxVoices = DefaultMaxVoices
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.EventCapacity == 0 {
		c.EventCapacity = DefaultEventCapacity
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

func (c Config) validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	case c.Channels <= 0 || c.Channels > MaxChannels:
		return fmt.Errorf("%w: %d channels", ErrInvalidConfig, c.Channels)
	case c.MaxVoices < 0 || c.MaxVoices > 1<<16:
		return fmt.Errorf("%w: %d voices", ErrInvalidConfig, c.MaxVoices)
	case c.QueueCapacity < 0:
		return fmt.Errorf("%w: queue capacity %d", ErrInvalidConfig, c.QueueCapacity)
	case c.EventCapacity < 0:
		return fmt.Errorf("%w: event capacity %d", ErrInvalidConfig, c.EventCapacity)
	case c.Interpolation > Linear:
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.Interpolation)
	}
	return nil
}
