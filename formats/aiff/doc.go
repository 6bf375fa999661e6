// SPDX-License-Identifier: EPL-2.0

// Package aiff provides AIFF (Audio Interchange File Format) decoding.
//
// This package uses github.com/go-audio/aiff to decode AIFF files.
// AIFF is Apple's standard audio file format, commonly used on macOS.
//
// # Supported Formats
//
//   - AIFF and uncompressed AIFF-C
//   - PCM 8, 16, 24 and 32 bit
//   - Any channel count and sample rate
//
// # Decoding AIFF Files
//
//	file, _ := os.Open("audio.aif")
//	source, err := aiff.Decoder{}.Decode(file)
//	if err != nil {
//	    // *audio.DecodeError
//	}
//
//	buf := make([]float32, 4096)
//	n, err := source.ReadSamples(buf)
//
// AIFF stores samples big-endian; the decoder output is normalized float32
// regardless of byte order. Non-seekable readers are buffered in memory
// because go-audio needs to seek between chunks.
//
// The source is forward only. Mixer streams built on it cannot seek
// backwards past their retained history.
package aiff
