// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func encodeToFile(t *testing.T, rate, channels, bits int, samples []float32) *os.File {
	t.Helper()

	f, err := os.Create(filepath.Join(t.TempDir(), "out.wav"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	t.Cleanup(func() { f.Close() })

	enc, err := NewEncoder(f, rate, channels, bits)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	if err := enc.Write(samples); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	return f
}

func TestEncoder_RoundTrip(t *testing.T) {
	t.Parallel()

	samples := []float32{0, 0.5, -0.5, 0.25, -1, 0.999}

	for _, bits := range []int{8, 16, 24, 32} {
		bits := bits
		t.Run(fmt.Sprintf("%d-bit", bits), func(t *testing.T) {
			t.Parallel()

			f := encodeToFile(t, 44100, 2, bits, samples)

			src, err := Decoder{}.Decode(f)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if src.SampleRate() != 44100 || src.Channels() != 2 {
				t.Fatalf("layout = %d Hz, %d ch", src.SampleRate(), src.Channels())
			}

			dst := make([]float32, len(samples))
			n, err := src.ReadSamples(dst)
			if err != nil || n != len(samples) {
				t.Fatalf("ReadSamples() = %d, %v", n, err)
			}

			tolerance := max(2.0/float64(int64(1)<<(bits-1)), 1e-6)
			for i := range samples {
				if math.Abs(float64(dst[i]-samples[i])) > tolerance {
					t.Errorf("sample %d = %v, want %v (±%v)", i, dst[i], samples[i], tolerance)
				}
			}
		})
	}
}

func TestEncoder_Clips(t *testing.T) {
	t.Parallel()

	f := encodeToFile(t, 8000, 1, 16, []float32{3, -3})

	src, err := Decoder{}.Decode(f)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	dst := make([]float32, 2)
	src.ReadSamples(dst)
	if dst[0] < 0.999 || dst[1] > -0.999 {
		t.Errorf("clipped samples = %v, want about [1 -1]", dst)
	}
}

func TestEncoder_Empty(t *testing.T) {
	t.Parallel()

	f := encodeToFile(t, 8000, 1, 16, nil)

	src, err := Decoder{}.Decode(f)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if n, err := src.ReadSamples(make([]float32, 8)); n != 0 || err != io.EOF {
		t.Errorf("ReadSamples() = %d, %v; want 0, io.EOF", n, err)
	}
}

func TestEncoder_InvalidLayout(t *testing.T) {
	t.Parallel()

	f, err := os.Create(filepath.Join(t.TempDir(), "bad.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := NewEncoder(f, 8000, 1, 12); !errors.Is(err, ErrUnsupportedBitDepth) {
		t.Errorf("NewEncoder(12 bit) error = %v", err)
	}
	if _, err := NewEncoder(f, 0, 1, 16); !errors.Is(err, ErrUnsupportedWavLayout) {
		t.Errorf("NewEncoder(0 Hz) error = %v", err)
	}

	enc, _ := NewEncoder(f, 8000, 1, 16)
	enc.Close()
	if err := enc.Write([]float32{0}); !errors.Is(err, ErrEncoderClosed) {
		t.Errorf("Write() after Close error = %v, want ErrEncoderClosed", err)
	}
}
