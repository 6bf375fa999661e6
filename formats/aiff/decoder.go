// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/utils"
)

const formatName = "aiff"

// aiffReader is an interface for aiff.Decoder to allow testing
type aiffReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// source wraps go-audio aiff.Decoder to implement audio.Source
type source struct {
	dec        aiffReader
	sampleRate int
	channels   int
	bitDepth   int
	intBuf     *goaudio.IntBuffer
	done       bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if s.done {
		return 0, io.EOF
	}

	// whole frames only
	want := len(dst) / s.channels * s.channels
	if want == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < want {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, want),
			Format: s.dec.Format(),
		}
	}
	s.intBuf.Data = s.intBuf.Data[:want]

	n, err := s.dec.PCMBuffer(s.intBuf)
	if err != nil && err != io.EOF {
		s.done = true
		return 0, audio.Corrupt(formatName, err)
	}
	if err == io.EOF || n < want {
		s.done = true
	}
	if n == 0 {
		return 0, io.EOF
	}

	for i := 0; i < n; i++ {
		dst[i] = utils.IntToFloat32(s.intBuf.Data[i], s.bitDepth)
	}

	return n, nil
}

// Decoder decodes uncompressed AIFF and AIFF-C files.
type Decoder struct{}

// Probe reports whether header starts an IFF FORM of type AIFF or AIFC.
func (Decoder) Probe(header []byte) bool {
	if len(header) < 12 || !bytes.Equal(header[:4], []byte("FORM")) {
		return false
	}
	kind := header[8:12]
	return bytes.Equal(kind, []byte("AIFF")) || bytes.Equal(kind, []byte("AIFC"))
}

func (d Decoder) Decode(r io.Reader) (audio.Source, error) {
	header, r, err := audio.Peek(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	if !d.Probe(header) {
		return nil, audio.Unsupported(formatName, ErrNotAiffFile)
	}

	// go-audio requires io.ReadSeeker
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading aiff data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, audio.Corrupt(formatName, ErrUnsupportedAiffLayout)
	}

	dec.ReadInfo()

	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, audio.Unsupported(formatName, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth))
	}

	format := dec.Format()
	if format == nil || format.NumChannels < 1 || format.SampleRate <= 0 {
		return nil, audio.Corrupt(formatName, ErrUnsupportedAiffLayout)
	}

	return &source{
		dec:        dec,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		bitDepth:   bitDepth,
	}, nil
}
