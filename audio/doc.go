// SPDX-License-Identifier: EPL-2.0

// Package audio defines the decoder boundary of the mixer.
//
// A Decoder turns an encoded byte stream into a Source, a pull-based
// stream of interleaved float32 samples:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    Close() error
//	}
//
// Sources may also implement Seeker (reposition by frame) and Lengther
// (total frame count known up front). The streaming mixer source uses both
// when they are present.
//
// # Format Registry
//
// The registry maps format keys to decoders and can pick a decoder by
// sniffing the first ProbeSize bytes of a stream:
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	registry.Register("mp3", mp3.Decoder{})
//
//	format, dec, ok := registry.Detect(header)
//
// Decoders that implement Prober take part in detection, in registration
// order. The formats package builds a registry with every bundled decoder.
//
// # Errors
//
// Decoding failures are reported as *DecodeError. The kind separates input
// nobody recognizes from input that was recognized but is damaged:
//
//	_, err := dec.Decode(r)
//	switch {
//	case errors.Is(err, audio.ErrUnsupported):
//	    // try another decoder, or report the file type
//	case errors.Is(err, audio.ErrCorrupt):
//	    // the file is truncated or broken
//	}
//
// ReadSamples returns io.EOF once the stream is finished. Any other error
// mid-stream ends that stream; the mixer finishes the voice playing it.
//
// # Sample Format
//
// Samples are float32 in [-1.0, 1.0], interleaved by channel. 0.0 is
// silence.
package audio
