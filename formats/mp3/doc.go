// SPDX-License-Identifier: EPL-2.0

// Package mp3 provides MP3 audio file decoding.
//
// This package uses github.com/hajimehoshi/go-mp3 to decode MP3 files.
//
// # Output Format
//
//   - Sample format: float32 in range [-1.0, 1.0]
//   - Channels: always 2, mono files are duplicated by go-mp3
//   - Sample rate: that of the file
//
// # Seeking
//
// When the input implements io.Seeker (an *os.File, a *bytes.Reader) go-mp3
// indexes the frames at open time. The source then implements audio.Seeker
// and reports its length through audio.Lengther. Plain readers stream
// forward only and report an unknown length.
//
// # Errors
//
// Input that has neither an ID3v2 tag nor an MPEG layer III sync word is
// rejected as audio.ErrUnsupported without being read further. Input that
// looks like MP3 but fails to decode is audio.ErrCorrupt.
package mp3
