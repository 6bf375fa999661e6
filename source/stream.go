// SPDX-License-Identifier: EPL-2.0

package source

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ik5/audmix/audio"
)

const (
	// DefaultBufferFrames is the prefetch ring size of a stream.
	DefaultBufferFrames = 1 << 15
	// DefaultChunkFrames is how many frames the prefetcher decodes at once.
	DefaultChunkFrames = 1 << 10

	// frames behind the read cursor that stay readable for interpolation
	historyFrames = 4

	seekSeqShift   = 48
	seekTargetMask = 1<<seekSeqShift - 1

	// consecutive empty reads before a decoder is considered stuck
	maxEmptyReads = 100
)

// StreamOption configures a Stream.
type StreamOption func(*streamOptions)

type streamOptions struct {
	bufferFrames int
	chunkFrames  int
	logger       *zap.Logger
	closer       io.Closer
}

// WithBufferFrames sets the prefetch ring size, rounded up to a power of two.
func WithBufferFrames(n int) StreamOption {
	return func(o *streamOptions) { o.bufferFrames = n }
}

// WithChunkFrames sets the decode granularity.
func WithChunkFrames(n int) StreamOption {
	return func(o *streamOptions) { o.chunkFrames = n }
}

// WithLogger sets the logger used by the prefetch goroutine.
func WithLogger(l *zap.Logger) StreamOption {
	return func(o *streamOptions) { o.logger = l }
}

// WithCloser registers c to be closed together with the decoder, typically
// the file the stream reads from.
func WithCloser(c io.Closer) StreamOption {
	return func(o *streamOptions) { o.closer = c }
}

// Stream is a decoder-backed source. A prefetch goroutine (the producer)
// fills a ring of frames ahead of the read cursor; ReadFrame and Seek (the
// consumer side) must only be called from a single goroutine, normally the
// render goroutine of the mixer that plays the stream.
type Stream struct {
	src    audio.Source
	seeker audio.Seeker
	closer io.Closer
	log    *zap.Logger

	rate     int
	channels int

	ring     []float32
	capacity uint64
	mask     uint64
	chunk    uint64

	length    uint64
	hasLength bool

	// written by the producer
	start atomic.Uint64
	end   atomic.Uint64
	done  atomic.Bool
	ack   atomic.Uint64
	err   atomic.Pointer[error]

	// written by the consumer
	cursor  atomic.Uint64
	seekReq atomic.Uint64

	// consumer local
	cur     uint64
	seq     uint64
	pending bool

	acquired atomic.Bool
	closed   atomic.Bool
	wake     chan struct{}
	quit     chan struct{}
	exited   chan struct{}
}

// NewStream starts prefetching src. The stream owns src and closes it when
// the stream is closed.
func NewStream(src audio.Source, opts ...StreamOption) (*Stream, error) {
	o := streamOptions{
		bufferFrames: DefaultBufferFrames,
		chunkFrames:  DefaultChunkFrames,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	if src.SampleRate() <= 0 || src.Channels() <= 0 {
		return nil, fmt.Errorf("%w: %d Hz, %d channels", ErrInvalidLayout, src.SampleRate(), src.Channels())
	}

	chunk := uint64(max(o.chunkFrames, 1))
	capacity := uint64(1)
	for capacity < uint64(o.bufferFrames) || capacity < 2*chunk+historyFrames {
		capacity <<= 1
	}

	s := &Stream{
		src:      src,
		closer:   o.closer,
		log:      o.logger,
		rate:     src.SampleRate(),
		channels: src.Channels(),
		ring:     make([]float32, capacity*uint64(src.Channels())),
		capacity: capacity,
		mask:     capacity - 1,
		chunk:    chunk,
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		exited:   make(chan struct{}),
	}

	if sk, ok := src.(audio.Seeker); ok {
		s.seeker = sk
	}
	if l, ok := src.(audio.Lengther); ok {
		if n, ok := l.Frames(); ok && n >= 0 {
			s.length, s.hasLength = uint64(n), true
		}
	}

	go s.run()

	return s, nil
}

func (s *Stream) SampleRate() int { return s.rate }
func (s *Stream) Channels() int   { return s.channels }

// Seekable reports whether the stream can move before its retained window.
func (s *Stream) Seekable() bool { return s.seeker != nil }

// Len is known when the decoder reports it or once decoding has ended.
func (s *Stream) Len() (uint64, bool) {
	if s.done.Load() {
		return s.end.Load(), true
	}
	if s.hasLength {
		return s.length, true
	}
	return 0, false
}

// ReadFrame never blocks. Frames that are not decoded yet, or that already
// left the ring, read as silence.
func (s *Stream) ReadFrame(pos uint64, dst []float32) bool {
	if s.pending {
		if s.ack.Load() != s.seq {
			clear(dst)
			return true
		}
		s.pending = false
	}
	s.advance(pos)

	// end is loaded before start: the producer publishes start first.
	done := s.done.Load()
	end := s.end.Load()
	if pos >= end {
		clear(dst)
		return !done
	}

	lo := s.start.Load()
	if end > s.capacity-s.chunk {
		lo = max(lo, end-(s.capacity-s.chunk))
	}
	if pos < lo {
		clear(dst)
		return true
	}

	i := (pos & s.mask) * uint64(s.channels)
	copy(dst, s.ring[i:i+uint64(s.channels)])
	return true
}

// Seek moves the read cursor to frame. Moving forward discards frames;
// moving backwards restarts decoding and is only possible on a seekable
// stream. It reports whether the seek was accepted.
func (s *Stream) Seek(frame uint64) bool {
	frame = min(frame, seekTargetMask)

	if !s.pending && frame >= s.cur {
		s.advance(frame)
		return true
	}
	if s.seeker == nil {
		return false
	}

	s.seq = (s.seq + 1) & (1<<(64-seekSeqShift) - 1)
	s.cur = frame
	s.cursor.Store(frame)
	s.seekReq.Store(s.seq<<seekSeqShift | frame)
	s.pending = true
	s.signal()
	return true
}

// Acquire marks the stream as backing a voice.
func (s *Stream) Acquire() error {
	if s.closed.Load() {
		return ErrStreamClosed
	}
	if !s.acquired.CompareAndSwap(false, true) {
		return ErrSourceInUse
	}
	return nil
}

// Release undoes Acquire when playback could not start.
func (s *Stream) Release() {
	s.acquired.Store(false)
}

// Close stops the prefetch goroutine, which then closes the decoder. It
// does not wait; use Done for that.
func (s *Stream) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		close(s.quit)
	}
	return nil
}

// Done is closed once the prefetch goroutine released the decoder.
func (s *Stream) Done() <-chan struct{} { return s.exited }

// Err returns the decode error that ended the stream early, if any.
func (s *Stream) Err() error {
	if p := s.err.Load(); p != nil {
		return *p
	}
	return nil
}

// Buffered returns how many frames are decoded ahead of the read cursor.
func (s *Stream) Buffered() uint64 {
	end, cur := s.end.Load(), s.cursor.Load()
	if end <= cur {
		return 0
	}
	return end - cur
}

// Duration of the stream when its length is known.
func (s *Stream) Duration() (time.Duration, bool) {
	n, ok := s.Len()
	if !ok {
		return 0, false
	}
	return framesToDuration(n, s.rate), true
}

func (*Stream) sealed() {}

func (s *Stream) advance(pos uint64) {
	if pos <= s.cur {
		return
	}
	crossed := pos/s.chunk != s.cur/s.chunk
	s.cur = pos
	s.cursor.Store(pos)
	if crossed {
		s.signal()
	}
}

func (s *Stream) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Stream) wait() bool {
	select {
	case <-s.wake:
		return true
	case <-s.quit:
		return false
	}
}

func (s *Stream) run() {
	defer close(s.exited)
	defer s.release()

	ch := s.channels
	scratch := make([]float32, int(s.chunk)*ch)
	fill := 0
	var handled uint64

	for {
		select {
		case <-s.quit:
			return
		default:
		}

		if req := s.seekReq.Load(); req>>seekSeqShift != handled {
			handled = req >> seekSeqShift
			fill = 0
			s.reset(req & seekTargetMask)
			s.ack.Store(handled)
			continue
		}

		if s.done.Load() {
			if !s.wait() {
				return
			}
			continue
		}

		end, cursor := s.end.Load(), s.cursor.Load()

		if s.seeker != nil && cursor > end+s.capacity {
			s.reset(cursor)
			continue
		}
		if end+s.chunk+historyFrames > cursor+s.capacity {
			if !s.wait() {
				return
			}
			continue
		}

		var readErr error
		empty := 0
		for fill < len(scratch) {
			n, err := s.src.ReadSamples(scratch[fill:])
			fill += n
			if err != nil {
				readErr = err
				break
			}
			if n == 0 {
				empty++
				if empty >= maxEmptyReads {
					readErr = io.ErrNoProgress
					break
				}
			}
		}

		frames := fill / ch
		for i := 0; i < frames; i++ {
			slot := ((end + uint64(i)) & s.mask) * uint64(ch)
			copy(s.ring[slot:slot+uint64(ch)], scratch[i*ch:(i+1)*ch])
		}
		fill = copy(scratch, scratch[frames*ch:fill])
		s.end.Store(end + uint64(frames))

		if readErr != nil {
			s.finish(readErr)
		}
	}
}

// reset restarts decoding at frame. Only the producer calls it.
func (s *Stream) reset(frame uint64) {
	if err := s.seeker.SeekFrame(int64(frame)); err != nil {
		s.log.Warn("stream seek failed", zap.Uint64("frame", frame), zap.Error(err))
		s.start.Store(frame)
		s.end.Store(frame)
		s.finish(err)
		return
	}

	s.start.Store(frame)
	s.end.Store(frame)
	s.done.Store(false)
	s.log.Debug("stream repositioned", zap.Uint64("frame", frame))
}

func (s *Stream) finish(err error) {
	if !errors.Is(err, io.EOF) {
		s.err.Store(&err)
		s.log.Warn("stream decode failed",
			zap.Uint64("frame", s.end.Load()),
			zap.Error(err))
	} else {
		s.log.Debug("stream reached end", zap.Uint64("frames", s.end.Load()))
	}
	s.done.Store(true)
}

func (s *Stream) release() {
	if err := s.src.Close(); err != nil {
		s.log.Warn("closing stream decoder", zap.Error(err))
	}
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			s.log.Warn("closing stream input", zap.Error(err))
		}
	}
}
