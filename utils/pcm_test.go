// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"math"
	"testing"
)

func TestFloat32ToInt_16Bit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input float32
		want  int
	}{
		{name: "zero", input: 0, want: 0},
		{name: "max positive", input: 1, want: math.MaxInt16},
		{name: "max negative", input: -1, want: -math.MaxInt16},
		{name: "half", input: 0.5, want: 16383},
		{name: "clamp over max", input: 1.5, want: math.MaxInt16},
		{name: "clamp under min", input: -100, want: -math.MaxInt16},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Float32ToInt(tt.input, 16); got != tt.want {
				t.Errorf("Float32ToInt(%v, 16) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFloat32ToInt_BitDepths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		depth int
		want  int
	}{
		{depth: 8, want: 127},
		{depth: 16, want: 32767},
		{depth: 24, want: 8388607},
		{depth: 32, want: 2147483647},
		{depth: 12, want: 32767},
	}

	for _, tt := range tests {
		if got := Float32ToInt(1, tt.depth); got != tt.want {
			t.Errorf("Float32ToInt(1, %d) = %d, want %d", tt.depth, got, tt.want)
		}
	}
}

func TestIntToFloat32_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, v := range []int{-32768, -16384, -1, 0, 1, 100, 16384, 32767} {
		f := IntToFloat32(v, 16)
		if f < -1 || f >= 1 {
			t.Fatalf("IntToFloat32(%d) = %v outside [-1, 1)", v, f)
		}
		back := int(math.Round(float64(f) * 32768))
		if back != v {
			t.Errorf("IntToFloat32(%d)*32768 = %d", v, back)
		}
	}
}

func TestFloat32ToInt_Monotonic(t *testing.T) {
	t.Parallel()

	prev := Float32ToInt(-1, 24)
	for f := -0.99; f <= 1.0; f += 0.01 {
		curr := Float32ToInt(float32(f), 24)
		if curr < prev {
			t.Fatalf("not monotonic at %v: %d < %d", f, curr, prev)
		}
		prev = curr
	}
}

func TestFloat32ToInt_ZeroAllocs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping allocation test in short mode")
	}

	buf := make([]float32, 1024)
	out := make([]int, 1024)
	allocs := testing.AllocsPerRun(100, func() {
		for i := range buf {
			out[i] = Float32ToInt(buf[i], 16)
		}
	})
	if allocs > 0 {
		t.Errorf("Float32ToInt allocated %v times, want 0", allocs)
	}
}
