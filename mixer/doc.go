// SPDX-License-Identifier: EPL-2.0

// Package mixer sums playing voices into an interleaved float32 buffer in
// real time.
//
// The mixer has two sides. Callers on any goroutine start voices with Play
// and steer them with SetVolume, SetRate, SetPan, Pause, Resume, Seek and
// Stop. Those calls only enqueue a Command on a bounded lock-free queue and
// return at once; a full queue is reported as ErrQueueFull rather than
// blocking.
//
// The render side is a single goroutine, normally an audio device callback,
// calling Render once per hardware buffer. Render first applies every queued
// command, so a batch takes effect on a frame boundary, then renders the
// voices in slot order and adds them up. It does not normalize or clip, takes
// no locks and allocates nothing.
//
//	m, _ := mixer.New(mixer.Config{SampleRate: 48000, Channels: 2})
//	id, _ := m.Play(buf, mixer.WithVolume(0.8))
//	m.SetVolume(id, 0, tween.Over(2*time.Second, tween.SineOut))
//
//	// device callback
//	m.Render(out)
//
// Voices are resampled from their source rate with a Catmull-Rom spline
// (or linearly), and their channels are mapped onto the output layout.
// A paused voice is silent but its parameters keep moving, so a fade issued
// during a pause has completed when the voice resumes.
//
// VoiceIDs carry a generation. Commands for a voice that already finished,
// or whose slot was reused, are dropped; State and Position report
// ErrInvalidHandle for ids that no longer name their slot.
package mixer
