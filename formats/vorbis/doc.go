// SPDX-License-Identifier: EPL-2.0

// Package vorbis provides Ogg Vorbis audio file decoding.
//
// This package uses github.com/jfreymuth/oggvorbis to decode Ogg Vorbis files.
//
//	file, _ := os.Open("audio.ogg")
//	source, err := vorbis.Decoder{}.Decode(file)
//
// For stereo files, samples are interleaved:
//
//	[L0, R0, L1, R1, L2, R2, ...]
//
// Seekable inputs give a source that implements audio.Seeker and
// audio.Lengther. Other Ogg payloads (Opus, FLAC, Speex) are rejected as
// audio.ErrUnsupported.
package vorbis
