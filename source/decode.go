// SPDX-License-Identifier: EPL-2.0

package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ik5/audmix/audio"
)

// decodeChunk is the number of samples DecodeAll reads per call.
const decodeChunk = 8192

// Decode picks a decoder for r and returns the decoded stream. Content
// detection wins; hint, usually a file extension, is only used when no
// registered decoder recognizes the header.
func Decode(r io.Reader, reg *audio.Registry, hint string) (audio.Source, error) {
	if reg == nil {
		return nil, ErrNoRegistry
	}
	hint = strings.TrimPrefix(hint, ".")

	header, rr, err := audio.Peek(r)
	if err != nil {
		return nil, audio.Corrupt("", err)
	}

	format, dec, ok := reg.Detect(header)
	if !ok && hint != "" {
		format = hint
		dec, ok = reg.Get(hint)
	}
	if !ok {
		return nil, audio.Unsupported(hint, errors.New("no decoder recognizes the input"))
	}

	src, err := dec.Decode(rr)
	if err != nil {
		var de *audio.DecodeError
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, audio.Corrupt(format, err)
	}
	return src, nil
}

// DecodeAll decodes r completely into a Buffer.
func DecodeAll(r io.Reader, reg *audio.Registry, hint string) (*Buffer, error) {
	hint = strings.TrimPrefix(hint, ".")
	src, err := Decode(r, reg, hint)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if src.SampleRate() <= 0 || src.Channels() <= 0 {
		return nil, audio.Corrupt(hint, fmt.Errorf("%w: %d Hz, %d channels",
			ErrInvalidLayout, src.SampleRate(), src.Channels()))
	}

	var samples []float32
	if l, ok := src.(audio.Lengther); ok {
		if n, ok := l.Frames(); ok && n > 0 {
			samples = make([]float32, 0, int(n)*src.Channels())
		}
	}

	empty := 0
	for {
		samples = slices.Grow(samples, decodeChunk)

		n, err := src.ReadSamples(samples[len(samples):cap(samples)])
		samples = samples[:len(samples)+n]
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var de *audio.DecodeError
			if errors.As(err, &de) {
				return nil, err
			}
			return nil, audio.Corrupt(hint, err)
		}
		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				return nil, audio.Corrupt(hint, io.ErrNoProgress)
			}
		}
	}

	return NewBuffer(src.SampleRate(), src.Channels(), samples)
}

// Probe opens r as a Stream. The stream reads r from its own goroutine, so r
// must not be used by the caller afterwards.
func Probe(r io.Reader, reg *audio.Registry, hint string, opts ...StreamOption) (*Stream, error) {
	src, err := Decode(r, reg, hint)
	if err != nil {
		return nil, err
	}

	s, err := NewStream(src, opts...)
	if err != nil {
		src.Close()
		return nil, audio.Corrupt(hint, err)
	}
	return s, nil
}

// Load decodes the file at path into a Buffer.
func Load(path string, reg *audio.Registry) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	b, err := DecodeAll(f, reg, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return b, nil
}

// Open streams the file at path. The file is closed with the stream.
func Open(path string, reg *audio.Registry, opts ...StreamOption) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	s, err := Probe(f, reg, filepath.Ext(path), append(opts, WithCloser(f))...)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return s, nil
}
