// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/utils"
)

const (
	formatName = "wav"

	formatPCM        = 1
	formatExtensible = 0xFFFE
)

// pcmReader is the part of gowav.Decoder used by source, so tests can mock it.
type pcmReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type source struct {
	dec        pcmReader
	rs         io.Seeker
	sampleRate int
	channels   int
	bitDepth   int

	dataStart  int64
	blockAlign int64
	frames     int64
	remaining  int64 // samples left in the data chunk

	intBuf *goaudio.IntBuffer
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }

// Frames implements audio.Lengther.
func (s *source) Frames() (int64, bool) { return s.frames, true }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	// the data chunk reader is not bounded, so never ask for more than is left
	want := min(int64(len(dst)), s.remaining)
	if want <= 0 {
		return 0, io.EOF
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < int(want) {
		s.intBuf = &goaudio.IntBuffer{Data: make([]int, want)}
	}
	s.intBuf.Data = s.intBuf.Data[:want]

	n, err := s.dec.PCMBuffer(s.intBuf)
	if err != nil {
		return 0, audio.Corrupt(formatName, err)
	}
	if n == 0 {
		// data chunk shorter than its header claims
		s.remaining = 0
		return 0, io.EOF
	}

	for i := 0; i < n; i++ {
		v := s.intBuf.Data[i]
		if s.bitDepth == 8 {
			v -= 128 // 8-bit WAV is unsigned
		}
		dst[i] = utils.IntToFloat32(v, s.bitDepth)
	}
	s.remaining -= int64(n)

	return n, nil
}

// SeekFrame implements audio.Seeker.
func (s *source) SeekFrame(frame int64) error {
	if s.rs == nil {
		return ErrNotSeekable
	}
	frame = max(0, min(frame, s.frames))

	if _, err := s.rs.Seek(s.dataStart+frame*s.blockAlign, io.SeekStart); err != nil {
		return fmt.Errorf("%w", err)
	}
	s.remaining = (s.frames - frame) * int64(s.channels)
	return nil
}

// Decoder decodes integer PCM WAV (8, 16, 24 and 32 bit).
type Decoder struct{}

// Probe reports whether header starts a RIFF/WAVE container.
func (Decoder) Probe(header []byte) bool {
	return len(header) >= 12 &&
		bytes.Equal(header[:4], []byte("RIFF")) &&
		bytes.Equal(header[8:12], []byte("WAVE"))
}

func (d Decoder) Decode(r io.Reader) (audio.Source, error) {
	header, r, err := audio.Peek(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	if !d.Probe(header) {
		return nil, audio.Unsupported(formatName, ErrNotWavFile)
	}

	// go-audio needs to seek over chunks
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := gowav.NewDecoder(rs)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, audio.Corrupt(formatName, err)
	}
	if dec.NumChans == 0 {
		return nil, audio.Corrupt(formatName, ErrUnsupportedWavLayout)
	}
	if dec.WavAudioFormat != formatPCM && dec.WavAudioFormat != formatExtensible {
		return nil, audio.Unsupported(formatName, fmt.Errorf("%w: format tag %#x", ErrNotPCM, dec.WavAudioFormat))
	}

	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, audio.Unsupported(formatName, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth))
	}

	if err := dec.FwdToPCM(); err != nil || dec.PCMChunk == nil {
		return nil, audio.Corrupt(formatName, ErrUnsupportedWavChunks)
	}

	dataStart, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	channels := int(dec.NumChans)
	blockAlign := int64(channels * bitDepth / 8)
	frames := int64(dec.PCMSize) / blockAlign

	return &source{
		dec:        dec,
		rs:         rs,
		sampleRate: int(dec.SampleRate),
		channels:   channels,
		bitDepth:   bitDepth,
		dataStart:  dataStart,
		blockAlign: blockAlign,
		frames:     frames,
		remaining:  frames * int64(channels),
	}, nil
}
