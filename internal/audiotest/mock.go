// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"errors"
	"io"
	"math"
	"sync/atomic"
)

// MockSource is a test helper that generates audio data for testing.
// It implements audio.Source, audio.Seeker and audio.Lengther without
// importing the audio package.
type MockSource struct {
	sampleRate   int
	channels     int
	totalSamples int // Total samples to generate (per channel)
	generated    int // Samples generated so far (per channel)
	waveform     func(sample int, channel int) float32

	// FailAfter makes ReadSamples return ErrMockRead once this many frames
	// were produced. Zero disables it.
	FailAfter int
	// HideLength makes Frames report an unknown length.
	HideLength bool

	closed atomic.Bool
}

// ErrMockRead is returned by a MockSource configured with FailAfter.
var ErrMockRead = errors.New("mock read failure")

// NewMockSource creates a new mock audio source.
// totalSamples is the total number of samples per channel to generate.
// waveform is a function that generates sample values given sample index and channel.
func NewMockSource(sampleRate, channels, totalSamples int, waveform func(sample int, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate:   sampleRate,
		channels:     channels,
		totalSamples: totalSamples,
		waveform:     waveform,
	}
}

// NewSilentSource creates a mock source that generates silence (all zeros).
func NewSilentSource(sampleRate, channels, totalSamples int) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(int, int) float32 {
		return 0.0
	})
}

// NewSineSource creates a mock source that generates a sine wave.
func NewSineSource(sampleRate, channels, totalSamples int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(sample int, _ int) float32 {
		t := float64(sample) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

// NewConstantSource creates a mock source with constant value.
func NewConstantSource(sampleRate, channels, totalSamples int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(int, int) float32 {
		return value
	})
}

// NewRampSource creates a mock source whose sample value encodes its frame
// index: frame i on channel c is (i + c*step) * step. It makes positions
// easy to assert.
func NewRampSource(sampleRate, channels, totalSamples int, step float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(sample int, channel int) float32 {
		return float32(sample)*step + float32(channel)*step*step
	})
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }

func (m *MockSource) Close() error {
	m.closed.Store(true)
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool { return m.closed.Load() }

// SeekFrame repositions the generator.
func (m *MockSource) SeekFrame(frame int64) error {
	m.generated = int(max(0, min(frame, int64(m.totalSamples))))
	return nil
}

// Frames reports the total frame count unless HideLength is set.
func (m *MockSource) Frames() (int64, bool) {
	if m.HideLength {
		return 0, false
	}
	return int64(m.totalSamples), true
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.FailAfter > 0 && m.generated >= m.FailAfter {
		return 0, ErrMockRead
	}
	if m.generated >= m.totalSamples {
		return 0, io.EOF
	}

	// Calculate how many frames we can write
	framesToWrite := min(len(dst)/m.channels, m.totalSamples-m.generated)
	if m.FailAfter > 0 {
		framesToWrite = min(framesToWrite, m.FailAfter-m.generated)
	}

	for frame := 0; frame < framesToWrite; frame++ {
		sampleIndex := m.generated + frame
		for ch := 0; ch < m.channels; ch++ {
			dst[frame*m.channels+ch] = m.waveform(sampleIndex, ch)
		}
	}

	m.generated += framesToWrite
	samplesWritten := framesToWrite * m.channels

	if m.generated >= m.totalSamples {
		return samplesWritten, io.EOF
	}

	return samplesWritten, nil
}
