// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Source is a decoded PCM stream as produced by a Decoder.
type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). When n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)

	// Close releases any resources.
	Close() error
}

// Seeker is implemented by sources that can reposition to a frame index.
type Seeker interface {
	SeekFrame(frame int64) error
}

// Lengther is implemented by sources that know their length up front.
type Lengther interface {
	// Frames returns the total frame count, or false when unknown.
	Frames() (int64, bool)
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Prober is implemented by decoders that can recognize their format from
// the first bytes of a stream.
type Prober interface {
	Probe(header []byte) bool
}

// ProbeSize is the number of header bytes handed to Prober.Probe.
const ProbeSize = 64

// Registry for decoders by format key (e.g., "wav", "mp3", "ogg").
type Registry struct {
	codecs map[string]Decoder
	order  []string

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
		mtx:    &sync.Mutex{},
	}
}

// Register adds d under format. Keys are case-insensitive and a leading
// dot is ignored, so file extensions can be used directly.
func (r *Registry) Register(format string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	key := formatKey(format)
	if _, ok := r.codecs[key]; !ok {
		r.order = append(r.order, key)
	}
	r.codecs[key] = d
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.codecs[formatKey(format)]
	return d, ok
}

// Detect returns the first registered decoder, in registration order, whose
// Probe accepts header.
func (r *Registry) Detect(header []byte) (string, Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for _, key := range r.order {
		p, ok := r.codecs[key].(Prober)
		if ok && p.Probe(header) {
			return key, r.codecs[key], true
		}
	}
	return "", nil, false
}

// Formats lists the registered format keys in registration order.
func (r *Registry) Formats() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	return append([]string(nil), r.order...)
}

func formatKey(format string) string {
	return strings.ToLower(strings.TrimPrefix(format, "."))
}

// Peek reads up to ProbeSize bytes from the start of r. The returned reader
// yields the whole stream, header included. Seekable readers are rewound and
// returned as is so decoders can keep seeking them.
func Peek(r io.Reader) ([]byte, io.Reader, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		start, err := rs.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, nil, fmt.Errorf("%w", err)
		}

		header := make([]byte, ProbeSize)
		n, err := io.ReadFull(rs, header)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w", err)
		}
		if _, err := rs.Seek(start, io.SeekStart); err != nil {
			return nil, nil, fmt.Errorf("%w", err)
		}
		return header[:n], rs, nil
	}

	br := bufio.NewReaderSize(r, ProbeSize)
	header, err := br.Peek(ProbeSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w", err)
	}
	return header, br, nil
}
