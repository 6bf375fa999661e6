// SPDX-License-Identifier: EPL-2.0

// Package formats wires every bundled decoder into an audio.Registry.
package formats

import (
	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/formats/aiff"
	"github.com/ik5/audmix/formats/mp3"
	"github.com/ik5/audmix/formats/vorbis"
	"github.com/ik5/audmix/formats/wav"
)

// NewRegistry returns a registry with the WAV, AIFF, MP3 and Ogg Vorbis
// decoders registered under their usual file extensions. Detection tries
// them in that order.
func NewRegistry() *audio.Registry {
	r := audio.NewRegistry()

	r.Register("wav", wav.Decoder{})
	r.Register("aiff", aiff.Decoder{})
	r.Register("mp3", mp3.Decoder{})
	r.Register("ogg", vorbis.Decoder{})

	r.Register("wave", wav.Decoder{})
	r.Register("aif", aiff.Decoder{})
	r.Register("aifc", aiff.Decoder{})
	r.Register("oga", vorbis.Decoder{})

	return r
}
