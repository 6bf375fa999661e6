// SPDX-License-Identifier: EPL-2.0

package source

import (
	"errors"
	"testing"
	"time"
)

func TestNewBuffer_RoundTrip(t *testing.T) {
	t.Parallel()

	samples := []float32{0.1, -0.1, 0.2, -0.2, 0.3, -0.3}
	b, err := NewBuffer(48000, 2, samples)
	if err != nil {
		t.Fatalf("NewBuffer() error = %v", err)
	}

	if n, ok := b.Len(); !ok || n != 3 {
		t.Fatalf("Len() = %d, %v; want 3, true", n, ok)
	}

	dst := make([]float32, 2)
	var got []float32
	for pos := uint64(0); b.ReadFrame(pos, dst); pos++ {
		got = append(got, dst...)
	}

	if len(got) != len(samples) {
		t.Fatalf("read %d samples, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], samples[i])
		}
	}
}

func TestNewBuffer_DropsPartialFrame(t *testing.T) {
	t.Parallel()

	b, err := NewBuffer(44100, 2, []float32{1, 2, 3})
	if err != nil {
		t.Fatalf("NewBuffer() error = %v", err)
	}
	if b.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", b.Frames())
	}
	if got := b.AppendSamples(nil); len(got) != 2 {
		t.Errorf("AppendSamples() = %v, want 2 samples", got)
	}
}

func TestNewBuffer_InvalidLayout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rate     int
		channels int
	}{
		{name: "zero rate", rate: 0, channels: 2},
		{name: "negative rate", rate: -1, channels: 2},
		{name: "zero channels", rate: 48000, channels: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewBuffer(tt.rate, tt.channels, nil)
			if !errors.Is(err, ErrInvalidLayout) {
				t.Errorf("NewBuffer() error = %v, want ErrInvalidLayout", err)
			}
		})
	}
}

func TestFromFrames(t *testing.T) {
	t.Parallel()

	b, err := FromFrames(8000, [][]float32{{0.5}, {0.25}, {-1}})
	if err != nil {
		t.Fatalf("FromFrames() error = %v", err)
	}
	if b.Channels() != 1 || b.Frames() != 3 || b.SampleRate() != 8000 {
		t.Errorf("layout = %d ch, %d frames, %d Hz", b.Channels(), b.Frames(), b.SampleRate())
	}

	dst := make([]float32, 1)
	if !b.ReadFrame(2, dst) || dst[0] != -1 {
		t.Errorf("ReadFrame(2) = %v", dst)
	}

	if _, err := FromFrames(8000, [][]float32{{1, 2}, {3}}); !errors.Is(err, ErrInvalidLayout) {
		t.Errorf("uneven frames error = %v, want ErrInvalidLayout", err)
	}
	if _, err := FromFrames(8000, nil); !errors.Is(err, ErrInvalidLayout) {
		t.Errorf("no frames error = %v, want ErrInvalidLayout", err)
	}
}

func TestBuffer_ZeroLength(t *testing.T) {
	t.Parallel()

	b, err := NewBuffer(48000, 2, nil)
	if err != nil {
		t.Fatalf("NewBuffer() error = %v", err)
	}
	if b.ReadFrame(0, make([]float32, 2)) {
		t.Error("ReadFrame(0) on an empty buffer reported a frame")
	}
	if b.Duration() != 0 {
		t.Errorf("Duration() = %v, want 0", b.Duration())
	}
}

func TestBuffer_CloneSharesData(t *testing.T) {
	t.Parallel()

	samples := make([]float32, 4800)
	b, err := NewBuffer(48000, 1, samples)
	if err != nil {
		t.Fatalf("NewBuffer() error = %v", err)
	}

	c := b.Clone()
	if c == b {
		t.Fatal("Clone() returned the same pointer")
	}
	if &c.data[0] != &b.data[0] {
		t.Error("Clone() copied the sample data")
	}
	if c.Duration() != 100*time.Millisecond {
		t.Errorf("Duration() = %v, want 100ms", c.Duration())
	}
}

func TestBuffer_ReadFrameZeroAllocs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping allocation test in short mode")
	}

	b, _ := NewBuffer(48000, 2, make([]float32, 2*1024))
	dst := make([]float32, 2)
	var pos uint64

	allocs := testing.AllocsPerRun(1000, func() {
		b.ReadFrame(pos%1024, dst)
		pos++
	})
	if allocs > 0 {
		t.Errorf("ReadFrame allocated %v times, want 0", allocs)
	}
}
