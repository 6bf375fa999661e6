// SPDX-License-Identifier: EPL-2.0

package source

import (
	"fmt"
	"time"
)

// Buffer is an in-memory source. Clones share the sample data.
type Buffer struct {
	rate     int
	channels int
	frames   uint64
	data     []float32
}

// NewBuffer wraps interleaved samples. The buffer takes ownership of
// samples; the caller must not modify them afterwards. A trailing partial
// frame is ignored.
func NewBuffer(sampleRate, channels int, samples []float32) (*Buffer, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: %d Hz, %d channels", ErrInvalidLayout, sampleRate, channels)
	}

	frames := len(samples) / channels
	return &Buffer{
		rate:     sampleRate,
		channels: channels,
		frames:   uint64(frames),
		data:     samples[:frames*channels:frames*channels],
	}, nil
}

// FromFrames builds a buffer from one slice per frame. All frames must have
// the same, non-zero width.
func FromFrames(sampleRate int, frames [][]float32) (*Buffer, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: no frames to infer the channel count", ErrInvalidLayout)
	}

	channels := len(frames[0])
	samples := make([]float32, 0, len(frames)*channels)
	for i, f := range frames {
		if len(f) != channels {
			return nil, fmt.Errorf("%w: frame %d has %d channels, want %d", ErrInvalidLayout, i, len(f), channels)
		}
		samples = append(samples, f...)
	}

	return NewBuffer(sampleRate, channels, samples)
}

func (b *Buffer) SampleRate() int { return b.rate }
func (b *Buffer) Channels() int   { return b.channels }

// Frames returns the number of frames.
func (b *Buffer) Frames() uint64 { return b.frames }

// Len always knows the length of a buffer.
func (b *Buffer) Len() (uint64, bool) { return b.frames, true }

// Duration of the buffer at its native rate.
func (b *Buffer) Duration() time.Duration {
	return framesToDuration(b.frames, b.rate)
}

// Clone returns a buffer sharing the same samples.
func (b *Buffer) Clone() *Buffer {
	c := *b
	return &c
}

func (b *Buffer) ReadFrame(pos uint64, dst []float32) bool {
	if pos >= b.frames {
		return false
	}
	i := int(pos) * b.channels
	copy(dst, b.data[i:i+b.channels])
	return true
}

// AppendSamples appends the interleaved samples to dst.
func (b *Buffer) AppendSamples(dst []float32) []float32 {
	return append(dst, b.data...)
}

func (*Buffer) sealed() {}

func framesToDuration(frames uint64, rate int) time.Duration {
	return time.Duration(frames) * time.Second / time.Duration(rate)
}
