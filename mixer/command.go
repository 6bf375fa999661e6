// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"time"

	"github.com/ik5/audmix/source"
	"github.com/ik5/audmix/tween"
)

// CommandKind tags a Command.
type CommandKind uint8

const (
	CommandPlay CommandKind = iota + 1
	CommandSetVolume
	CommandSetRate
	CommandSetPan
	CommandSeek
	CommandSeekTime
	CommandPause
	CommandResume
	CommandStop
)

var commandNames = [...]string{
	CommandPlay:      "play",
	CommandSetVolume: "set-volume",
	CommandSetRate:   "set-rate",
	CommandSetPan:    "set-pan",
	CommandSeek:      "seek",
	CommandSeekTime:  "seek-time",
	CommandPause:     "pause",
	CommandResume:    "resume",
	CommandStop:      "stop",
}

func (k CommandKind) String() string {
	if int(k) < len(commandNames) && commandNames[k] != "" {
		return commandNames[k]
	}
	return fmt.Sprintf("command(%d)", uint8(k))
}

// Command is a control message applied by the render goroutine at the start
// of the next render step. Only the fields relevant to Kind are used.
type Command struct {
	Kind CommandKind
	ID   VoiceID

	// Value is the target of SetVolume, SetRate and SetPan.
	Value float32
	Tween tween.Tween

	// Frame is the Seek target in source frames.
	Frame uint64
	// Offset is the SeekTime target.
	Offset time.Duration

	play playRequest
}

type playRequest struct {
	src    source.Source
	volume float32
	rate   float32
	pan    float32
	fadeIn tween.Tween
	fade   bool
	start  uint64
	paused bool
	loop   bool
	// loop region in source frames, end exclusive
	loopStart uint64
	loopEnd   uint64
}

// PlayOption configures a new voice.
type PlayOption func(*playRequest)

// WithVolume sets the initial volume. The default is 1.
func WithVolume(v float32) PlayOption {
	return func(p *playRequest) { p.volume = v }
}

// WithRate sets the initial playback rate factor. Negative rates play
// backwards. The default is 1.
func WithRate(r float32) PlayOption {
	return func(p *playRequest) { p.rate = r }
}

// WithPan sets the initial stereo balance in [-1, 1].
func WithPan(pan float32) PlayOption {
	return func(p *playRequest) { p.pan = pan }
}

// WithFadeIn starts the voice silent and raises it to its volume with tw.
func WithFadeIn(tw tween.Tween) PlayOption {
	return func(p *playRequest) {
		p.fadeIn = tw
		p.fade = true
	}
}

// StartAt starts playback at the given source frame.
func StartAt(frame uint64) PlayOption {
	return func(p *playRequest) { p.start = frame }
}

// StartPaused creates the voice in the Paused state.
func StartPaused() PlayOption {
	return func(p *playRequest) { p.paused = true }
}

// WithLoop repeats the source frames in [start, end). An end of zero loops
// to the end of the source. Only in-memory buffers can loop.
func WithLoop(start, end uint64) PlayOption {
	return func(p *playRequest) {
		p.loop = true
		p.loopStart = start
		p.loopEnd = end
	}
}
