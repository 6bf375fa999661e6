// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"math"

	"github.com/ik5/audmix/source"
	"github.com/ik5/audmix/tween"
	"github.com/ik5/audmix/utils"
)

// voice is one playback instance. It is owned by the render goroutine.
type voice struct {
	active bool
	gen    uint32
	state  VoiceState

	src    source.Source
	stream *source.Stream
	// source frames per second and channels per frame
	srcRate  float64
	channels int

	volume tween.Parameter
	rate   tween.Parameter
	pan    tween.Parameter

	pos  uint64
	frac float64

	loop      bool
	loopStart uint64
	loopEnd   uint64

	// interpolation taps: frames pos-1 .. pos+2
	taps  [4][MaxChannels]float32
	frame [MaxChannels]float32
}

func (v *voice) start(gen uint32, p *playRequest) {
	*v = voice{
		active:    true,
		gen:       gen,
		state:     Playing,
		src:       p.src,
		srcRate:   float64(p.src.SampleRate()),
		channels:  p.src.Channels(),
		volume:    tween.NewParameter(p.volume),
		rate:      tween.NewParameter(p.rate),
		pan:       tween.NewParameter(p.pan),
		pos:       p.start,
		loop:      p.loop,
		loopStart: p.loopStart,
		loopEnd:   p.loopEnd,
	}
	if s, ok := p.src.(*source.Stream); ok {
		v.stream = s
		if p.start > 0 {
			s.Seek(p.start)
		}
	}
	if p.paused {
		v.state = Paused
	}
	if p.fade {
		v.volume.Reset(0)
		v.volume.Set(p.volume, p.fadeIn)
	}
	if n, ok := v.src.Len(); ok && v.pos >= n {
		v.state = Finished
	}
}

// seek moves to frame unless the voice already finished. Seeking past the
// end of the source finishes the voice.
func (v *voice) seek(frame uint64) {
	if v.state == Finished {
		return
	}
	if n, ok := v.src.Len(); ok && frame >= n {
		v.state = Finished
		return
	}
	if v.stream != nil && !v.stream.Seek(frame) {
		return
	}
	v.pos = frame
	v.frac = 0
}

// render adds the voice to out, an interleaved buffer of whole frames. It
// stops early, leaving silence, once the voice finishes.
func (v *voice) render(out []float32, channels int, outRate int, interp Interpolation) {
	if v.state == Paused && !v.volume.Active() && !v.rate.Active() && !v.pan.Active() {
		return
	}

	dt := 1 / float64(outRate)
	ratio := v.srcRate / float64(outRate)
	frame := v.frame[:v.channels]

	for i := 0; i+channels <= len(out); i += channels {
		vol := v.volume.Advance(dt)
		rate := float64(v.rate.Advance(dt))
		pan := v.pan.Advance(dt)

		// paused voices keep their fades running
		if v.state != Playing {
			continue
		}
		if v.stream != nil && rate < 0 {
			rate = 0
		}

		if !v.sample(frame, interp) {
			v.state = Finished
			return
		}
		mixFrame(out[i:i+channels], frame, vol, pan)

		if !v.step(rate * ratio) {
			v.state = Finished
			return
		}
	}
}

// sample reads the source at pos+frac into dst. Taps of a looping voice
// wrap inside the loop region.
func (v *voice) sample(dst []float32, interp Interpolation) bool {
	n := v.channels
	y1 := v.taps[1][:n]
	if !v.src.ReadFrame(v.pos, y1) {
		return false
	}
	if v.frac == 0 {
		copy(dst, y1)
		return true
	}

	x := float32(v.frac)
	y2 := v.taps[2][:n]
	if !v.readTap(1, y2) {
		copy(y2, y1)
	}

	if interp == Linear {
		for c := 0; c < n; c++ {
			dst[c] = utils.LinearInterpolate(y1[c], y2[c], x)
		}
		return true
	}

	y0 := v.taps[0][:n]
	if !v.readTap(-1, y0) {
		copy(y0, y1)
	}
	y3 := v.taps[3][:n]
	if !v.readTap(2, y3) {
		copy(y3, y2)
	}
	for c := 0; c < n; c++ {
		dst[c] = utils.CubicInterpolate(y0[c], y1[c], y2[c], y3[c], x)
	}
	return true
}

// readTap reads the frame off frames away from pos into dst.
func (v *voice) readTap(off int64, dst []float32) bool {
	f := v.wrap(int64(v.pos) + off)
	if f < 0 {
		return false
	}
	return v.src.ReadFrame(uint64(f), dst)
}

// wrap maps frame into the loop region the way playback moves through it:
// past the end returns to the start, and before the start returns to the
// end once the voice is inside the loop.
func (v *voice) wrap(frame int64) int64 {
	if !v.loop {
		return frame
	}
	start, end := int64(v.loopStart), int64(v.loopEnd)
	span := end - start
	switch {
	case frame >= end:
		return start + (frame-start)%span
	case frame < start && int64(v.pos) >= start:
		return end - 1 - (start-frame-1)%span
	}
	return frame
}

// step moves the read position by delta source frames. It returns false
// when playing backwards moved before the first frame.
func (v *voice) step(delta float64) bool {
	v.frac += delta
	if v.frac >= 0 && v.frac < 1 {
		return true
	}

	whole := math.Floor(v.frac)
	v.frac -= whole
	next := v.wrap(int64(v.pos) + int64(whole))
	if next < 0 {
		return false
	}
	v.pos = uint64(next)
	return true
}

// release drops the references held by a finished voice.
func (v *voice) release() {
	if v.stream != nil {
		v.stream.Close()
	}
	v.active = false
	v.src = nil
	v.stream = nil
}

// mixFrame adds frame to out, mapping channels and applying volume and,
// for stereo output, a linear balance that is unity at the center.
func mixFrame(out, frame []float32, vol, pan float32) {
	left, right := vol, vol
	if len(out) == 2 {
		p := max(-1, min(1, pan))
		left = vol * min(1, 1-p)
		right = vol * min(1, 1+p)
	}
	gain := func(c int) float32 {
		switch c {
		case 0:
			return left
		case 1:
			return right
		}
		return vol
	}

	switch {
	case len(frame) == len(out):
		for c := range out {
			out[c] += frame[c] * gain(c)
		}
	case len(frame) == 1:
		for c := range out {
			out[c] += frame[0] * gain(c)
		}
	case len(out) == 1:
		var sum float32
		for _, s := range frame {
			sum += s
		}
		out[0] += sum / float32(len(frame)) * vol
	default:
		for c := 0; c < min(len(out), len(frame)); c++ {
			out[c] += frame[c] * gain(c)
		}
	}
}
