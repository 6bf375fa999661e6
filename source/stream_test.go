// SPDX-License-Identifier: EPL-2.0

package source

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/internal/audiotest"
)

const rampStep = 1.0 / 4096

func rampValue(frame, channel int) float32 {
	return float32(frame)*rampStep + float32(channel)*rampStep*rampStep
}

// plainSource hides the optional Seeker and Lengther interfaces.
type plainSource struct {
	audio.Source
}

// gatedSource blocks every read until gate is closed.
type gatedSource struct {
	audio.Source
	gate chan struct{}
}

func (g *gatedSource) ReadSamples(dst []float32) (int, error) {
	<-g.gate
	return g.Source.ReadSamples(dst)
}

func newTestStream(t *testing.T, src audio.Source) *Stream {
	t.Helper()

	s, err := NewStream(src,
		WithBufferFrames(256),
		WithChunkFrames(32),
		WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
		<-s.Done()
	})
	return s
}

// readAt polls ReadFrame on the calling goroutine until pos is decoded.
func readAt(t *testing.T, s *Stream, pos uint64, dst []float32) bool {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.ReadFrame(pos, dst)
		if !s.pending && (s.done.Load() || (s.end.Load() > pos && pos >= s.start.Load())) {
			return s.ReadFrame(pos, dst)
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("frame %d was not decoded in time", pos)
	return false
}

func TestStream_ReadsInOrder(t *testing.T) {
	t.Parallel()

	const total = 2000
	s := newTestStream(t, audiotest.NewRampSource(48000, 2, total, rampStep))

	dst := make([]float32, 2)
	for pos := 0; pos < total; pos++ {
		require.True(t, readAt(t, s, uint64(pos), dst), "frame %d", pos)
		require.Equal(t, rampValue(pos, 0), dst[0], "frame %d left", pos)
		require.Equal(t, rampValue(pos, 1), dst[1], "frame %d right", pos)
	}

	assert.False(t, readAt(t, s, total, dst), "read past the end")
	n, ok := s.Len()
	assert.True(t, ok)
	assert.EqualValues(t, total, n)
	assert.NoError(t, s.Err())
}

func TestStream_UnknownLengthPublishedAtEOF(t *testing.T) {
	t.Parallel()

	src := audiotest.NewRampSource(44100, 1, 100, rampStep)
	src.HideLength = true
	s := newTestStream(t, src)

	require.Eventually(t, s.done.Load, time.Second, time.Millisecond)

	n, ok := s.Len()
	require.True(t, ok)
	assert.EqualValues(t, 100, n)
	assert.False(t, s.ReadFrame(100, make([]float32, 1)))
}

func TestStream_UnderrunIsSilence(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	src := &gatedSource{
		Source: audiotest.NewConstantSource(48000, 2, 1000, 0.5),
		gate:   gate,
	}
	s := newTestStream(t, src)
	t.Cleanup(func() { close(gate) })

	dst := []float32{1, 1}
	for _, pos := range []uint64{0, 1, 500} {
		require.True(t, s.ReadFrame(pos, dst), "underrun must not end the stream")
		assert.Equal(t, []float32{0, 0}, dst)
	}
	assert.Zero(t, s.Buffered())
}

func TestStream_DecodeErrorEndsStream(t *testing.T) {
	t.Parallel()

	src := audiotest.NewRampSource(48000, 1, 1000, rampStep)
	src.FailAfter = 100
	s := newTestStream(t, src)

	dst := make([]float32, 1)
	require.True(t, readAt(t, s, 99, dst))
	assert.Equal(t, rampValue(99, 0), dst[0])
	assert.False(t, readAt(t, s, 100, dst))

	assert.ErrorIs(t, s.Err(), audiotest.ErrMockRead)
	n, ok := s.Len()
	assert.True(t, ok)
	assert.EqualValues(t, 100, n)
}

func TestStream_SeekForward(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  func() audio.Source
	}{
		{name: "seekable", src: func() audio.Source {
			return audiotest.NewRampSource(48000, 1, 20000, rampStep)
		}},
		{name: "not seekable", src: func() audio.Source {
			return plainSource{audiotest.NewRampSource(48000, 1, 20000, rampStep)}
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestStream(t, tt.src())
			dst := make([]float32, 1)

			require.True(t, readAt(t, s, 10, dst))
			require.True(t, s.Seek(15000))
			require.True(t, readAt(t, s, 15000, dst))
			assert.Equal(t, rampValue(15000, 0), dst[0])
			require.True(t, readAt(t, s, 15001, dst))
			assert.Equal(t, rampValue(15001, 0), dst[0])
		})
	}
}

func TestStream_SeekBackward(t *testing.T) {
	t.Parallel()

	s := newTestStream(t, audiotest.NewRampSource(48000, 2, 5000, rampStep))
	dst := make([]float32, 2)

	for pos := uint64(0); pos < 1200; pos++ {
		readAt(t, s, pos, dst)
	}

	require.True(t, s.Seekable())
	require.True(t, s.Seek(10))

	require.True(t, readAt(t, s, 10, dst))
	assert.Equal(t, []float32{rampValue(10, 0), rampValue(10, 1)}, dst)
	require.True(t, readAt(t, s, 11, dst))
	assert.Equal(t, []float32{rampValue(11, 0), rampValue(11, 1)}, dst)
}

func TestStream_SeekBackwardIgnoredWhenNotSeekable(t *testing.T) {
	t.Parallel()

	s := newTestStream(t, plainSource{audiotest.NewRampSource(48000, 1, 5000, rampStep)})
	dst := make([]float32, 1)

	for pos := uint64(0); pos < 600; pos++ {
		readAt(t, s, pos, dst)
	}

	assert.False(t, s.Seekable())
	assert.False(t, s.Seek(0), "backward seek accepted")
	assert.True(t, s.Seek(700), "forward seek rejected")

	require.True(t, readAt(t, s, 700, dst))
	assert.Equal(t, rampValue(700, 0), dst[0])
}

func TestStream_SeekAfterEOFRestarts(t *testing.T) {
	t.Parallel()

	s := newTestStream(t, audiotest.NewRampSource(48000, 1, 50, rampStep))
	dst := make([]float32, 1)

	assert.False(t, readAt(t, s, 50, dst))

	require.True(t, s.Seek(5))
	require.True(t, readAt(t, s, 5, dst))
	assert.Equal(t, rampValue(5, 0), dst[0])
}

func TestStream_AcquireOnce(t *testing.T) {
	t.Parallel()

	s := newTestStream(t, audiotest.NewSilentSource(48000, 2, 10))

	require.NoError(t, s.Acquire())
	assert.ErrorIs(t, s.Acquire(), ErrSourceInUse)

	s.Close()
	assert.ErrorIs(t, s.Acquire(), ErrStreamClosed)
}

func TestStream_CloseReleasesDecoder(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSilentSource(48000, 2, 1<<20)
	closer := &closeRecorder{}
	s, err := NewStream(src, WithBufferFrames(256), WithChunkFrames(32), WithCloser(closer))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "second Close")

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("prefetch goroutine did not exit")
	}
	assert.True(t, src.Closed())
	assert.True(t, closer.closed)
}

func TestNewStream_InvalidLayout(t *testing.T) {
	t.Parallel()

	_, err := NewStream(audiotest.NewSilentSource(0, 2, 10))
	assert.True(t, errors.Is(err, ErrInvalidLayout))
}

func TestStream_ReadFrameZeroAllocs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping allocation test in short mode")
	}

	s := newTestStream(t, audiotest.NewSilentSource(48000, 2, 1<<30))
	dst := make([]float32, 2)
	var pos uint64

	allocs := testing.AllocsPerRun(1000, func() {
		s.ReadFrame(pos, dst)
		pos++
	})
	if allocs > 0 {
		t.Errorf("ReadFrame allocated %v times, want 0", allocs)
	}
}

type closeRecorder struct {
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}
