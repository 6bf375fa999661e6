// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/ik5/audmix/utils"
)

// Encoder writes interleaved float32 samples as integer PCM WAV.
// The header is finalized by Close, so the writer must be seekable.
type Encoder struct {
	enc      *gowav.Encoder
	bitDepth int
	buf      *goaudio.IntBuffer
	started  bool
	closed   bool
}

// NewEncoder returns an Encoder for the given layout. bitDepth must be 8, 16,
// 24 or 32.
func NewEncoder(w io.WriteSeeker, sampleRate, channels, bitDepth int) (*Encoder, error) {
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: %d Hz, %d channels", ErrUnsupportedWavLayout, sampleRate, channels)
	}

	return &Encoder{
		enc:      gowav.NewEncoder(w, sampleRate, bitDepth, channels, formatPCM),
		bitDepth: bitDepth,
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// Write appends samples. Values outside [-1, 1] are clipped.
func (e *Encoder) Write(samples []float32) error {
	if e.closed {
		return ErrEncoderClosed
	}
	if len(samples) == 0 {
		return nil
	}

	if cap(e.buf.Data) < len(samples) {
		e.buf.Data = make([]int, len(samples))
	}
	e.buf.Data = e.buf.Data[:len(samples)]

	for i, x := range samples {
		v := utils.Float32ToInt(x, e.bitDepth)
		if e.bitDepth == 8 {
			v += 128
		}
		e.buf.Data[i] = v
	}

	e.started = true
	if err := e.enc.Write(e.buf); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// Close finalizes the headers. It does not close the underlying writer.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	if !e.started {
		// an empty file still needs its data chunk
		e.buf.Data = e.buf.Data[:0]
		if err := e.enc.Write(e.buf); err != nil {
			return fmt.Errorf("%w", err)
		}
	}

	if err := e.enc.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}
