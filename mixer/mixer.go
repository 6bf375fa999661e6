// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ik5/audmix/internal/ring"
	"github.com/ik5/audmix/source"
	"github.com/ik5/audmix/tween"
)

// how often Wait checks for remaining voices
const waitInterval = 5 * time.Millisecond

// slotStatus is what callers can observe of a voice slot.
type slotStatus struct {
	status atomic.Uint64
	pos    atomic.Uint64
	volume atomic.Uint32
}

// Mixer sums voices into an interleaved float32 buffer.
//
// Render must be called from one goroutine at a time, normally the device
// callback. Every other method is safe for concurrent use and only enqueues
// work for the next Render.
type Mixer struct {
	log    *zap.Logger
	interp Interpolation

	commands *ring.Queue[Command]
	free     *ring.Queue[uint32]
	events   *ring.Queue[Event]
	format   atomic.Uint64

	slots     []slotStatus
	maxVoices int
	closed    atomic.Bool
	dropped   atomic.Uint64

	// owned by the render goroutine
	voices   []voice
	rate     int
	channels int
}

// New returns a mixer rendering cfg.Channels channels at cfg.SampleRate.
func New(cfg Config) (*Mixer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	m := &Mixer{
		log:       cfg.Logger,
		interp:    cfg.Interpolation,
		commands:  ring.New[Command](cfg.QueueCapacity),
		free:      ring.New[uint32](cfg.MaxVoices),
		events:    ring.New[Event](cfg.EventCapacity),
		slots:     make([]slotStatus, cfg.MaxVoices),
		maxVoices: cfg.MaxVoices,
		voices:    make([]voice, cfg.MaxVoices),
		rate:      cfg.SampleRate,
		channels:  cfg.Channels,
	}
	for i := 0; i < cfg.MaxVoices; i++ {
		m.free.Push(uint32(i))
	}

	m.log.Debug("mixer created",
		zap.Int("sample_rate", cfg.SampleRate),
		zap.Int("channels", cfg.Channels),
		zap.Int("max_voices", cfg.MaxVoices),
		zap.Int("queue_capacity", m.commands.Cap()),
		zap.Stringer("interpolation", cfg.Interpolation))

	return m, nil
}

// Play starts src on a new voice. The voice is audible from the next render
// step; its VoiceID is valid immediately.
func (m *Mixer) Play(src source.Source, opts ...PlayOption) (VoiceID, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if src == nil {
		return 0, fmt.Errorf("%w: nil source", ErrInvalidSource)
	}
	if src.SampleRate() <= 0 || src.Channels() <= 0 || src.Channels() > MaxChannels {
		return 0, fmt.Errorf("%w: %d Hz, %d channels", ErrInvalidSource, src.SampleRate(), src.Channels())
	}

	req := playRequest{src: src, volume: 1, rate: 1}
	for _, opt := range opts {
		opt(&req)
	}
	if err := resolveLoop(&req); err != nil {
		return 0, err
	}

	return m.enqueue(req)
}

// enqueue reserves a slot for req and queues its Play command.
func (m *Mixer) enqueue(req playRequest) (VoiceID, error) {
	stream, _ := req.src.(*source.Stream)
	if stream != nil {
		if err := stream.Acquire(); err != nil {
			return 0, err
		}
	}

	slot, ok := m.free.Pop()
	if !ok {
		if stream != nil {
			stream.Release()
		}
		return 0, ErrVoicesFull
	}

	st := &m.slots[slot]
	gen := status(st.status.Load()).gen() + 1
	if gen == 0 {
		gen = 1
	}
	state := Playing
	if req.paused {
		state = Paused
	}
	st.pos.Store(req.start)
	st.volume.Store(math.Float32bits(req.volume))
	st.status.Store(uint64(makeStatus(gen, state)))

	id := newVoiceID(slot, gen)
	if !m.commands.Push(Command{Kind: CommandPlay, ID: id, play: req}) {
		st.status.Store(uint64(makeStatus(gen, Finished)))
		m.free.Push(slot)
		if stream != nil {
			stream.Release()
		}
		return 0, ErrQueueFull
	}

	// Close may have drained the queue between the check in Play and the
	// push; nothing renders the command after that.
	if m.closed.Load() {
		m.discardCommands()
		return 0, ErrClosed
	}

	return id, nil
}

func resolveLoop(req *playRequest) error {
	if !req.loop {
		return nil
	}
	buf, ok := req.src.(*source.Buffer)
	if !ok {
		return fmt.Errorf("%w: only in-memory buffers can loop", ErrInvalidLoop)
	}
	if req.loopEnd == 0 {
		req.loopEnd = buf.Frames()
	}
	if req.loopStart >= req.loopEnd || req.loopEnd > buf.Frames() {
		return fmt.Errorf("%w: [%d, %d) of %d frames", ErrInvalidLoop, req.loopStart, req.loopEnd, buf.Frames())
	}
	return nil
}

// Send enqueues a control command. Commands for stale or unknown voices are
// dropped when applied. Play commands must go through Play.
func (m *Mixer) Send(cmd Command) error {
	if cmd.Kind == CommandPlay || cmd.Kind == 0 || cmd.Kind > CommandStop {
		return fmt.Errorf("%w: %v", ErrInvalidCommand, cmd.Kind)
	}
	if m.closed.Load() {
		return ErrClosed
	}
	if !m.commands.Push(cmd) {
		return ErrQueueFull
	}
	return nil
}

// SetVolume moves the voice volume to target.
func (m *Mixer) SetVolume(id VoiceID, target float32, tw tween.Tween) error {
	return m.Send(Command{Kind: CommandSetVolume, ID: id, Value: target, Tween: tw})
}

// SetRate moves the playback rate factor to target.
func (m *Mixer) SetRate(id VoiceID, target float32, tw tween.Tween) error {
	return m.Send(Command{Kind: CommandSetRate, ID: id, Value: target, Tween: tw})
}

// SetPan moves the stereo balance to target, -1 being hard left.
func (m *Mixer) SetPan(id VoiceID, target float32, tw tween.Tween) error {
	return m.Send(Command{Kind: CommandSetPan, ID: id, Value: target, Tween: tw})
}

func (m *Mixer) Pause(id VoiceID) error {
	return m.Send(Command{Kind: CommandPause, ID: id})
}

func (m *Mixer) Resume(id VoiceID) error {
	return m.Send(Command{Kind: CommandResume, ID: id})
}

// Stop finishes the voice. Stopping a finished voice does nothing.
func (m *Mixer) Stop(id VoiceID) error {
	return m.Send(Command{Kind: CommandStop, ID: id})
}

// Seek moves the voice to a source frame.
func (m *Mixer) Seek(id VoiceID, frame uint64) error {
	return m.Send(Command{Kind: CommandSeek, ID: id, Frame: frame})
}

// SeekTime moves the voice to an offset from the start of its source.
func (m *Mixer) SeekTime(id VoiceID, offset time.Duration) error {
	return m.Send(Command{Kind: CommandSeekTime, ID: id, Offset: max(offset, 0)})
}

// State reports the last published state of a voice.
func (m *Mixer) State(id VoiceID) (VoiceState, error) {
	st, err := m.lookupStatus(id)
	if err != nil {
		return 0, err
	}
	return status(st.status.Load()).state(), nil
}

// Position reports the source frame the voice will read next, as of the
// last render step.
func (m *Mixer) Position(id VoiceID) (uint64, error) {
	st, err := m.lookupStatus(id)
	if err != nil {
		return 0, err
	}
	pos := st.pos.Load()
	if status(st.status.Load()).gen() != id.gen() {
		return 0, ErrInvalidHandle
	}
	return pos, nil
}

// Volume reports the voice volume as of the last render step.
func (m *Mixer) Volume(id VoiceID) (float32, error) {
	st, err := m.lookupStatus(id)
	if err != nil {
		return 0, err
	}
	vol := math.Float32frombits(st.volume.Load())
	if status(st.status.Load()).gen() != id.gen() {
		return 0, ErrInvalidHandle
	}
	return vol, nil
}

func (m *Mixer) lookupStatus(id VoiceID) (*slotStatus, error) {
	if id == 0 || int(id.slot()) >= len(m.slots) {
		return nil, ErrInvalidHandle
	}
	st := &m.slots[id.slot()]
	if status(st.status.Load()).gen() != id.gen() {
		return nil, ErrInvalidHandle
	}
	return st, nil
}

// Active returns the number of voices that are not reclaimed yet, including
// those waiting for their first render step.
func (m *Mixer) Active() int {
	return max(0, m.maxVoices-m.free.Len())
}

// Playing returns the number of voices whose last published state is
// Playing. Paused voices render silence and are not counted.
func (m *Mixer) Playing() int {
	n := 0
	for i := range m.slots {
		if status(m.slots[i].status.Load()).state() == Playing {
			n++
		}
	}
	return n
}

// Pending returns the number of queued commands not yet applied by Render.
func (m *Mixer) Pending() int { return m.commands.Len() }

// Wait blocks until no voice is active or ctx is done. It relies on Render
// being called.
func (m *Mixer) Wait(ctx context.Context) error {
	t := time.NewTicker(waitInterval)
	defer t.Stop()

	for m.Active() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}

// NextEvent pops the oldest pending event.
func (m *Mixer) NextEvent() (Event, bool) {
	return m.events.Pop()
}

// DroppedEvents counts events lost because nobody consumed them.
func (m *Mixer) DroppedEvents() uint64 { return m.dropped.Load() }

// Reconfigure changes the output layout from the next render step on.
// Voices keep their positions.
func (m *Mixer) Reconfigure(sampleRate, channels int) error {
	if sampleRate <= 0 || channels <= 0 || channels > MaxChannels {
		return fmt.Errorf("%w: %d Hz, %d channels", ErrInvalidConfig, sampleRate, channels)
	}
	m.format.Store(1<<63 | uint64(sampleRate)<<8 | uint64(channels))
	m.log.Info("output format change queued",
		zap.Int("sample_rate", sampleRate),
		zap.Int("channels", channels))
	return nil
}

// Close discards pending commands and finishes every voice. Render keeps
// producing silence afterwards. Close must not run concurrently with Render.
func (m *Mixer) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}

	discarded := m.discardCommands()
	stopped := 0
	for i := range m.voices {
		if m.voices[i].active {
			m.voices[i].state = Finished
			m.reclaim(uint32(i))
			stopped++
		}
	}

	m.log.Debug("mixer closed",
		zap.Int("discarded_commands", discarded),
		zap.Int("stopped_voices", stopped))
	return nil
}

// Render fills out with the next buffer of interleaved frames. It never
// blocks and never allocates. A trailing partial frame is left silent.
func (m *Mixer) Render(out []float32) {
	clear(out)
	if m.closed.Load() {
		m.discardCommands()
		return
	}

	m.applyFormat()
	m.drain()

	whole := out[:len(out)/m.channels*m.channels]
	for i := range m.voices {
		v := &m.voices[i]
		if !v.active {
			continue
		}

		v.render(whole, m.channels, m.rate, m.interp)

		st := &m.slots[i]
		st.pos.Store(v.pos)
		st.volume.Store(math.Float32bits(v.volume.Value()))
		if v.state == Finished {
			m.reclaim(uint32(i))
		}
	}
}

// Format returns the output layout in effect. Only meaningful from the
// render goroutine or while nothing renders.
func (m *Mixer) Format() (sampleRate, channels int) {
	return m.rate, m.channels
}

func (m *Mixer) applyFormat() {
	f := m.format.Swap(0)
	if f == 0 {
		return
	}
	m.rate = int(f &^ (1 << 63) >> 8)
	m.channels = int(f & 0xff)
	m.emit(Event{Kind: EventReconfigured, SampleRate: m.rate, Channels: m.channels})
}

// drain applies the queued commands, at most one queue's worth so a busy
// producer cannot stall the render step.
func (m *Mixer) drain() {
	for i := 0; i < m.commands.Cap(); i++ {
		cmd, ok := m.commands.Pop()
		if !ok {
			return
		}
		m.apply(&cmd)
	}
}

func (m *Mixer) apply(cmd *Command) {
	if cmd.Kind == CommandPlay {
		m.voices[cmd.ID.slot()].start(cmd.ID.gen(), &cmd.play)
		return
	}

	v := m.lookup(cmd.ID)
	if v == nil || v.state == Finished {
		return
	}

	switch cmd.Kind {
	case CommandSetVolume:
		v.volume.Set(cmd.Value, cmd.Tween)
	case CommandSetRate:
		v.rate.Set(cmd.Value, cmd.Tween)
	case CommandSetPan:
		v.pan.Set(cmd.Value, cmd.Tween)
	case CommandSeek:
		v.seek(cmd.Frame)
	case CommandSeekTime:
		v.seek(uint64(math.Round(cmd.Offset.Seconds() * v.srcRate)))
	case CommandPause:
		if v.state == Playing {
			v.state = Paused
		}
	case CommandResume:
		if v.state == Paused {
			v.state = Playing
		}
	case CommandStop:
		v.state = Finished
	}

	m.slots[cmd.ID.slot()].status.Store(uint64(makeStatus(v.gen, v.state)))
}

func (m *Mixer) lookup(id VoiceID) *voice {
	if int(id.slot()) >= len(m.voices) {
		return nil
	}
	v := &m.voices[id.slot()]
	if !v.active || v.gen != id.gen() {
		return nil
	}
	return v
}

// reclaim publishes the end of a voice and hands its slot back to Play.
func (m *Mixer) reclaim(slot uint32) {
	v := &m.voices[slot]
	id := newVoiceID(slot, v.gen)

	m.slots[slot].status.Store(uint64(makeStatus(v.gen, Finished)))
	v.release()
	m.free.Push(slot)
	m.emit(Event{Kind: EventVoiceFinished, ID: id})
}

func (m *Mixer) emit(e Event) {
	if !m.events.Push(e) {
		m.dropped.Add(1)
	}
}

func (m *Mixer) discardCommands() int {
	n := 0
	for {
		cmd, ok := m.commands.Pop()
		if !ok {
			return n
		}
		n++
		if cmd.Kind != CommandPlay {
			continue
		}
		if s, ok := cmd.play.src.(*source.Stream); ok {
			s.Close()
		}
		m.slots[cmd.ID.slot()].status.Store(uint64(makeStatus(cmd.ID.gen(), Finished)))
		m.free.Push(cmd.ID.slot())
	}
}
