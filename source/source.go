// SPDX-License-Identifier: EPL-2.0

// Package source provides the two kinds of sound a mixer voice can play.
//
// A *Buffer holds decoded samples in memory. It is immutable, random access
// and cheap to clone, so one asset can back any number of voices at once.
//
// A *Stream decodes lazily. A background goroutine keeps a ring of frames
// filled ahead of the playback position, so reading a frame never touches
// the decoder, never blocks and never allocates. A stream backs one voice
// at a time and can only move backwards when its decoder can seek.
//
// The set of kinds is closed: Source cannot be implemented outside this
// package, which lets the mixer switch on the concrete type.
package source

// Source is a sequence of interleaved frames at a native sample rate.
type Source interface {
	// SampleRate in Hz.
	SampleRate() int
	// Channels per frame.
	Channels() int
	// ReadFrame copies frame pos into dst, which must hold Channels()
	// values. It returns false once pos is past the end of the source.
	ReadFrame(pos uint64, dst []float32) bool
	// Len returns the length in frames, when it is known.
	Len() (uint64, bool)

	sealed()
}

var (
	_ Source = (*Buffer)(nil)
	_ Source = (*Stream)(nil)
)
