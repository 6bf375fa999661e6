// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/ik5/audmix/audio"
)

const (
	formatName = "mp3"

	// go-mp3 always produces 16-bit little-endian stereo
	channels      = 2
	bytesPerFrame = 4
)

// ErrNotMP3File indicates the input does not start with an ID3 tag or an
// MPEG layer III frame header.
var ErrNotMP3File = errors.New("not an MP3 file")

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
	Length() int64
	SampleRate() int
}

type source struct {
	dec        mp3Reader
	sampleRate int
	channels   int
	buf        []byte
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }

// Frames implements audio.Lengther. The length is only known when the
// input was seekable.
func (s *source) Frames() (int64, bool) {
	n := s.dec.Length()
	if n < 0 {
		return 0, false
	}
	return n / bytesPerFrame, true
}

// SeekFrame implements audio.Seeker. It needs a seekable input.
func (s *source) SeekFrame(frame int64) error {
	if _, err := s.dec.Seek(max(frame, 0)*bytesPerFrame, io.SeekStart); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	// whole frames only, 2 bytes per sample
	samples := len(dst) / s.channels * s.channels
	if samples == 0 {
		return 0, nil
	}

	bytesNeeded := samples * 2
	if cap(s.buf) < bytesNeeded {
		s.buf = make([]byte, bytesNeeded)
	}
	s.buf = s.buf[:bytesNeeded]

	n, err := s.dec.Read(s.buf)
	if err != nil && err != io.EOF {
		return 0, audio.Corrupt(formatName, err)
	}

	got := n / 2
	for i := 0; i < got; i++ {
		val := int16(binary.LittleEndian.Uint16(s.buf[2*i:]))
		dst[i] = float32(val) / 32768.0
	}

	if got == 0 && err == nil {
		// decoder made no progress; report it as the end rather than spin
		return 0, io.EOF
	}

	return got, err
}

// Decoder decodes MPEG-1/2 layer III streams. Output is always stereo.
type Decoder struct{}

// Probe reports whether header starts with an ID3v2 tag or an MPEG audio
// layer III frame sync.
func (Decoder) Probe(header []byte) bool {
	if bytes.HasPrefix(header, []byte("ID3")) {
		return true
	}
	if len(header) < 2 {
		return false
	}
	layer := (header[1] >> 1) & 0x3
	return header[0] == 0xFF && header[1]&0xE0 == 0xE0 && layer == 0x1
}

func (d Decoder) Decode(r io.Reader) (audio.Source, error) {
	header, r, err := audio.Peek(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	if !d.Probe(header) {
		return nil, audio.Unsupported(formatName, ErrNotMP3File)
	}

	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, audio.Corrupt(formatName, err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   channels,
		buf:        make([]byte, 8192),
	}, nil
}
