// SPDX-License-Identifier: EPL-2.0

// Package device defines the boundary between the mixer and an audio output.
//
// An Adapter owns the real-time callback thread. It asks the mixer for
// interleaved float32 frames by calling the Callback it was opened with,
// and reports device loss and format changes through the handlers
// registered with OnDisconnect and OnReconfigure. Handlers run outside the
// audio callback and may block briefly, but must not call back into the
// adapter synchronously.
//
// Two adapters ship with the module: Null, driven by a ticker or pumped by
// hand, for headless use and tests, and the miniaudio adapter in the
// device/malgo package.
package device

import (
	"context"
	"fmt"
)

const (
	DefaultSampleRate   = 48000
	DefaultChannels     = 2
	DefaultBufferFrames = 512

	// MaxChannels matches the widest layout the mixer can render.
	MaxChannels = 8
)

// Format is the layout the device actually runs at.
type Format struct {
	SampleRate int
	Channels   int
}

func (f Format) String() string {
	return fmt.Sprintf("%d Hz, %d channels", f.SampleRate, f.Channels)
}

// Config is what the caller asks for. Zero fields let the adapter choose.
type Config struct {
	SampleRate   int
	Channels     int
	BufferFrames int
	// DeviceName selects an output by name; empty means the system default.
	DeviceName string
}

// Validate rejects negative or oversized values.
func (c Config) Validate() error {
	switch {
	case c.SampleRate < 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	case c.Channels < 0 || c.Channels > MaxChannels:
		return fmt.Errorf("%w: %d channels", ErrInvalidConfig, c.Channels)
	case c.BufferFrames < 0:
		return fmt.Errorf("%w: buffer of %d frames", ErrInvalidConfig, c.BufferFrames)
	}
	return nil
}

// WithDefaults fills zero fields with the package defaults.
func (c Config) WithDefaults() Config {
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.Channels == 0 {
		c.Channels = DefaultChannels
	}
	if c.BufferFrames == 0 {
		c.BufferFrames = DefaultBufferFrames
	}
	return c
}

// Callback fills out with interleaved frames in the current Format. It runs
// on the audio thread and must not block.
type Callback func(out []float32)

// Adapter is an audio output.
type Adapter interface {
	// Open starts the device and begins invoking cb. It fails with
	// ErrAlreadyOpen when the adapter is running.
	Open(ctx context.Context, cfg Config, cb Callback) error
	// Format is the negotiated layout. It is only meaningful while open.
	Format() Format
	// OnDisconnect registers the handler called when the device goes away.
	// The adapter stops invoking the callback before calling it.
	OnDisconnect(func(error))
	// OnReconfigure registers the handler called when the running device
	// switches to another format.
	OnReconfigure(func(Format))
	// Close stops the device. Closing a closed adapter is a no-op.
	Close() error
}
