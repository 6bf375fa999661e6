// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audmix/audio"
	"github.com/jfreymuth/oggvorbis"
)

const formatName = "vorbis"

// ErrNotVorbisFile indicates the input is not an Ogg stream carrying Vorbis.
var ErrNotVorbisFile = errors.New("not an Ogg Vorbis file")

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	Length() int64
	SetPosition(pos int64) error
	Read([]float32) (int, error)
}

type source struct {
	dec        oggReader
	sampleRate int
	channels   int
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }

// Frames implements audio.Lengther. oggvorbis reports zero when the input
// was not seekable.
func (s *source) Frames() (int64, bool) {
	n := s.dec.Length()
	return n, n > 0
}

// SeekFrame implements audio.Seeker.
func (s *source) SeekFrame(frame int64) error {
	if err := s.dec.SetPosition(max(frame, 0)); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	// oggvorbis returns whole frames and counts values, not frames
	n, err := s.dec.Read(dst[:len(dst)/s.channels*s.channels])
	if err != nil && err != io.EOF {
		return n, audio.Corrupt(formatName, err)
	}
	return n, err
}

// Decoder decodes Ogg Vorbis streams.
type Decoder struct{}

// Probe reports whether header is the first page of an Ogg stream whose
// first packet is a Vorbis identification header.
func (Decoder) Probe(header []byte) bool {
	return bytes.HasPrefix(header, []byte("OggS")) &&
		bytes.Contains(header, []byte("\x01vorbis"))
}

func (d Decoder) Decode(r io.Reader) (audio.Source, error) {
	header, r, err := audio.Peek(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	if !d.Probe(header) {
		return nil, audio.Unsupported(formatName, ErrNotVorbisFile)
	}

	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, audio.Corrupt(formatName, err)
	}
	if dec.Channels() < 1 {
		return nil, audio.Corrupt(formatName, ErrNotVorbisFile)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
	}, nil
}
