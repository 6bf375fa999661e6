// SPDX-License-Identifier: EPL-2.0

// Package wav provides WAV decoding and encoding on top of
// github.com/go-audio/wav.
//
// # Supported Formats
//
//   - Integer PCM at 8 (unsigned), 16, 24 and 32 bits
//   - WAVE_FORMAT_EXTENSIBLE files carrying integer PCM
//   - Any channel count and sample rate
//
// IEEE float and compressed WAV files are rejected as unsupported.
//
// # Decoding
//
//	f, _ := os.Open("audio.wav")
//	src, err := wav.Decoder{}.Decode(f)
//	if errors.Is(err, audio.ErrUnsupported) {
//	    // not a WAV file, or a variant we do not read
//	}
//
// The returned source implements audio.Seeker and audio.Lengther. Reads
// stop at the end of the data chunk even when other chunks follow it.
// Non-seekable readers are buffered in memory first.
//
// # Encoding
//
// Encoder writes interleaved float32 samples. The WAV header is patched on
// Close, so the destination must be an io.WriteSeeker such as *os.File:
//
//	f, _ := os.Create("mix.wav")
//	enc, err := wav.NewEncoder(f, 48000, 2, 16)
//	...
//	enc.Write(samples)
//	enc.Close()
//	f.Close()
package wav
