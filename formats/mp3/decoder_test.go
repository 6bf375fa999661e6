// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ik5/audmix/audio"
)

// mockMP3Reader simulates the gomp3.Decoder for testing
type mockMP3Reader struct {
	sampleRate   int
	samples      []int16 // PCM samples (16-bit)
	offset       int
	seekable     bool
	returnErrors bool
}

func (m *mockMP3Reader) SampleRate() int {
	return m.sampleRate
}

func (m *mockMP3Reader) Length() int64 {
	if !m.seekable {
		return -1
	}
	return int64(len(m.samples) * 2)
}

func (m *mockMP3Reader) Seek(offset int64, whence int) (int64, error) {
	if !m.seekable {
		return 0, errors.New("mp3: source is not io.Seeker")
	}
	m.offset = int(min(offset/2, int64(len(m.samples))))
	return offset, nil
}

func (m *mockMP3Reader) Read(buf []byte) (int, error) {
	if m.returnErrors {
		return 0, io.ErrUnexpectedEOF
	}

	if m.offset >= len(m.samples) {
		return 0, io.EOF
	}

	samplesToRead := min(len(buf)/2, len(m.samples)-m.offset)
	for i := 0; i < samplesToRead; i++ {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(m.samples[m.offset+i]))
	}
	m.offset += samplesToRead

	return samplesToRead * 2, nil
}

func newMockSource(m *mockMP3Reader) *source {
	return &source{
		dec:        m,
		sampleRate: m.sampleRate,
		channels:   2,
		buf:        make([]byte, 8192),
	}
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "text", data: []byte("This is not MP3 data"), want: audio.ErrUnsupported},
		{name: "empty", data: nil, want: audio.ErrUnsupported},
		{name: "sync without frame", data: []byte{0xFF, 0xFB, 0x00}, want: audio.ErrCorrupt},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decoder{}.Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecoder_Probe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header []byte
		want   bool
	}{
		{name: "id3", header: []byte("ID3\x04\x00"), want: true},
		{name: "mpeg1 layer3", header: []byte{0xFF, 0xFB, 0x90, 0x64}, want: true},
		{name: "mpeg2 layer3", header: []byte{0xFF, 0xF3, 0x90, 0x64}, want: true},
		{name: "layer2", header: []byte{0xFF, 0xFD, 0x90, 0x64}, want: false},
		{name: "aac adts", header: []byte{0xFF, 0xF1, 0x50, 0x80}, want: false},
		{name: "riff", header: []byte("RIFF"), want: false},
		{name: "short", header: []byte{0xFF}, want: false},
	}

	for _, tt := range tests {
		if got := (Decoder{}).Probe(tt.header); got != tt.want {
			t.Errorf("Probe(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	// 8 samples, 4 stereo frames
	testSamples := []int16{0, 16384, 32767, -16384, -32768, 8192, -8192, 0}
	src := newMockSource(&mockMP3Reader{sampleRate: 8000, samples: testSamples})

	dst := make([]float32, 8)
	n, err := src.ReadSamples(dst)
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 8 {
		t.Fatalf("ReadSamples() n = %d, want 8", n)
	}

	expected := []float32{0.0, 0.5, 1.0, -0.5, -1.0, 0.25, -0.25, 0.0}
	for i := 0; i < n; i++ {
		if math.Abs(float64(dst[i]-expected[i])) > 0.001 {
			t.Errorf("dst[%d] = %v, want ≈%v", i, dst[i], expected[i])
		}
	}

	if n, err := src.ReadSamples(dst); n != 0 || err != io.EOF {
		t.Errorf("ReadSamples() after end = %d, %v; want 0, io.EOF", n, err)
	}
}

func TestSource_ReadSamples_WholeFramesOnly(t *testing.T) {
	t.Parallel()

	src := newMockSource(&mockMP3Reader{sampleRate: 8000, samples: make([]int16, 10)})

	if n, _ := src.ReadSamples(make([]float32, 5)); n != 4 {
		t.Errorf("ReadSamples(5) = %d, want 4", n)
	}
	if n, err := src.ReadSamples(make([]float32, 1)); n != 0 || err != nil {
		t.Errorf("ReadSamples(1) = %d, %v; want 0, nil", n, err)
	}
}

func TestSource_ReadSamples_Error(t *testing.T) {
	t.Parallel()

	src := newMockSource(&mockMP3Reader{sampleRate: 8000, returnErrors: true})

	_, err := src.ReadSamples(make([]float32, 8))
	if !errors.Is(err, audio.ErrCorrupt) {
		t.Errorf("ReadSamples() error = %v, want ErrCorrupt", err)
	}
}

func TestSource_SeekAndLength(t *testing.T) {
	t.Parallel()

	samples := []int16{0, 0, 1000, 1000, 2000, 2000}

	src := newMockSource(&mockMP3Reader{sampleRate: 8000, samples: samples, seekable: true})

	frames, ok := src.Frames()
	if !ok || frames != 3 {
		t.Errorf("Frames() = %d, %v; want 3, true", frames, ok)
	}

	if err := src.SeekFrame(2); err != nil {
		t.Fatalf("SeekFrame() error = %v", err)
	}
	dst := make([]float32, 2)
	src.ReadSamples(dst)
	if want := float32(2000) / 32768; dst[0] != want {
		t.Errorf("sample after seek = %v, want %v", dst[0], want)
	}

	unseekable := newMockSource(&mockMP3Reader{sampleRate: 8000, samples: samples})
	if _, ok := unseekable.Frames(); ok {
		t.Error("Frames() reported a length for an unseekable input")
	}
	if err := unseekable.SeekFrame(1); err == nil {
		t.Error("SeekFrame() on unseekable input error = nil")
	}
}

func BenchmarkSource_ReadSamples(b *testing.B) {
	samples := make([]int16, 44100*2)
	buf := make([]float32, 4096)

	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		src := newMockSource(&mockMP3Reader{sampleRate: 44100, samples: samples})
		for {
			if _, err := src.ReadSamples(buf); err != nil {
				break
			}
		}
	}
}
