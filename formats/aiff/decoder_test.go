// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"errors"
	"io"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/ik5/audmix/audio"
)

// mockAiffReader simulates the aiff.Decoder for testing
type mockAiffReader struct {
	sampleRate   int
	channels     int
	samples      []int
	offset       int
	returnErrors bool
}

func (m *mockAiffReader) Format() *goaudio.Format {
	return &goaudio.Format{
		SampleRate:  m.sampleRate,
		NumChannels: m.channels,
	}
}

func (m *mockAiffReader) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	if m.returnErrors {
		return 0, io.ErrUnexpectedEOF
	}

	if m.offset >= len(m.samples) {
		return 0, io.EOF
	}

	n := copy(buf.Data, m.samples[m.offset:])
	m.offset += n

	if m.offset >= len(m.samples) {
		return n, io.EOF
	}

	return n, nil
}

func newMockSource(channels, bitDepth int, samples []int) *source {
	return &source{
		dec: &mockAiffReader{
			sampleRate: 44100,
			channels:   channels,
			samples:    samples,
		},
		sampleRate: 44100,
		channels:   channels,
		bitDepth:   bitDepth,
	}
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "text", data: []byte("This is not AIFF data")},
		{name: "empty", data: nil},
		{name: "wav", data: []byte("RIFF\x00\x00\x00\x00WAVEfmt ")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decoder{}.Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, audio.ErrUnsupported) {
				t.Errorf("Decode() error = %v, want ErrUnsupported", err)
			}
			if !errors.Is(err, ErrNotAiffFile) {
				t.Errorf("Decode() error = %v, want ErrNotAiffFile", err)
			}
		})
	}
}

func TestDecoder_TruncatedHeaderIsCorrupt(t *testing.T) {
	t.Parallel()

	_, err := Decoder{}.Decode(bytes.NewReader([]byte("FORM\x00\x00\x00\x04AIFF")))
	if !errors.Is(err, audio.ErrCorrupt) {
		t.Errorf("Decode() error = %v, want ErrCorrupt", err)
	}
}

func TestDecoder_Probe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   bool
	}{
		{header: "FORM\x00\x00\x10\x00AIFFCOMM", want: true},
		{header: "FORM\x00\x00\x10\x00AIFCFVER", want: true},
		{header: "FORM\x00\x00\x10\x008SVX", want: false},
		{header: "FORM", want: false},
	}

	for _, tt := range tests {
		if got := (Decoder{}).Probe([]byte(tt.header)); got != tt.want {
			t.Errorf("Probe(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	src := newMockSource(2, 16, []int{0, 16384, -16384, 32767})

	if src.SampleRate() != 44100 || src.Channels() != 2 {
		t.Fatalf("layout = %d Hz, %d ch", src.SampleRate(), src.Channels())
	}

	dst := make([]float32, 8)
	n, err := src.ReadSamples(dst)
	if err != nil || n != 4 {
		t.Fatalf("ReadSamples() = %d, %v; want 4, nil", n, err)
	}

	want := []float32{0, 0.5, -0.5, 32767.0 / 32768.0}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}

	if n, err := src.ReadSamples(dst); n != 0 || err != io.EOF {
		t.Errorf("ReadSamples() after end = %d, %v; want 0, io.EOF", n, err)
	}
}

func TestSource_ReadSamples_WholeFramesOnly(t *testing.T) {
	t.Parallel()

	src := newMockSource(2, 16, []int{1, 2, 3, 4, 5, 6})

	dst := make([]float32, 3)
	if n, _ := src.ReadSamples(dst); n != 2 {
		t.Errorf("ReadSamples(3) = %d, want 2", n)
	}
	if n, _ := src.ReadSamples(dst[:1]); n != 0 {
		t.Errorf("ReadSamples(1) = %d, want 0", n)
	}
}

func TestSource_ReadSamples_Error(t *testing.T) {
	t.Parallel()

	src := newMockSource(1, 16, nil)
	src.dec.(*mockAiffReader).returnErrors = true

	_, err := src.ReadSamples(make([]float32, 4))
	if !errors.Is(err, audio.ErrCorrupt) || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadSamples() error = %v, want corrupt unexpected EOF", err)
	}
}

func TestSource_BitDepthNormalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		bitDepth int
		input    int
		expected float32
	}{
		{"8-bit max", 8, 127, 127.0 / 128.0},
		{"8-bit min", 8, -128, -1.0},
		{"16-bit max", 16, 32767, 32767.0 / 32768.0},
		{"16-bit min", 16, -32768, -1.0},
		{"24-bit", 24, 8388607, 8388607.0 / 8388608.0},
		{"32-bit", 32, 2147483647, 2147483647.0 / 2147483648.0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := newMockSource(1, tt.bitDepth, []int{tt.input})

			dst := make([]float32, 1)
			n, _ := src.ReadSamples(dst)
			if n != 1 {
				t.Fatalf("ReadSamples() n = %d, want 1", n)
			}

			tolerance := float32(0.001)
			if dst[0] < tt.expected-tolerance || dst[0] > tt.expected+tolerance {
				t.Errorf("ReadSamples() dst[0] = %f, want ~%f", dst[0], tt.expected)
			}
		})
	}
}

func BenchmarkSource_ReadSamples(b *testing.B) {
	samples := make([]int, 44100*2)
	buf := make([]float32, 4096)

	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		src := newMockSource(2, 16, samples)
		for {
			if _, err := src.ReadSamples(buf); err != nil {
				break
			}
		}
	}
}
