// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ik5/audmix/assets"
	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/config"
	"github.com/ik5/audmix/device"
	"github.com/ik5/audmix/device/malgo"
	"github.com/ik5/audmix/formats"
	"github.com/ik5/audmix/mixer"
	"github.com/ik5/audmix/source"
	"github.com/ik5/audmix/tween"
)

// how often mixer events are moved to the Events channel
const eventInterval = 10 * time.Millisecond

type (
	VoiceID    = mixer.VoiceID
	VoiceState = mixer.VoiceState
	Event      = mixer.Event
)

// Option configures an Engine.
type Option func(*Engine)

// WithAdapter replaces the adapter chosen by the device backend setting.
func WithAdapter(a device.Adapter) Option {
	return func(e *Engine) { e.adapter = a }
}

// WithLogger sets the logger. The engine never logs from the render path.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithRegistry sets the decoders used by PlayFile and StreamFile.
func WithRegistry(r *audio.Registry) Option {
	return func(e *Engine) { e.reg = r }
}

// Engine ties a Mixer to an output device. Control methods are safe for
// concurrent use and return as soon as the command is queued.
type Engine struct {
	cfg     *config.Config
	log     *zap.Logger
	reg     *audio.Registry
	adapter device.Adapter
	mixer   *mixer.Mixer
	assets  *assets.Cache

	mu      sync.Mutex
	running bool
	closed  bool

	fmtMu  sync.Mutex
	format device.Format

	events  chan Event
	lost    chan error
	quit    chan struct{}
	stopped chan struct{}
}

// New builds an engine. A nil cfg means config.Default. The mixer starts
// at the configured format and follows the device once Init opens it.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.reg == nil {
		e.reg = formats.NewRegistry()
	}
	if e.adapter == nil {
		e.adapter = newAdapter(cfg.Device.Backend, e.log)
	}

	want := cfg.DeviceConfig().WithDefaults()
	e.format = device.Format{SampleRate: want.SampleRate, Channels: want.Channels}

	mcfg := cfg.MixerConfig(e.format)
	mcfg.Logger = e.log.Named("mixer")
	m, err := mixer.New(mcfg)
	if err != nil {
		return nil, err
	}
	e.mixer = m

	cache, err := assets.New(cfg.Assets.CacheSize, e.reg, e.log.Named("assets"))
	if err != nil {
		return nil, err
	}
	e.assets = cache

	e.events = make(chan Event, max(cfg.Mixer.EventCapacity, 1))
	e.lost = make(chan error, 1)
	e.quit = make(chan struct{})
	e.stopped = make(chan struct{})

	e.adapter.OnDisconnect(e.disconnected)
	e.adapter.OnReconfigure(e.reconfigured)

	go e.supervise()

	return e, nil
}

func newAdapter(backend string, log *zap.Logger) device.Adapter {
	if backend == config.BackendNull {
		return device.NewNull(device.WithLogger(log.Named("device")))
	}
	return malgo.New(malgo.WithLogger(log.Named("device")))
}

// Init opens the output device and starts rendering. A failure is a
// *DeviceError; Init may be called again to retry. Calling Init on a
// running engine does nothing.
func (e *Engine) Init(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.running {
		return nil
	}
	if err := e.open(ctx); err != nil {
		return err
	}

	e.log.Info("engine started", zap.Stringer("format", e.Format()))
	return nil
}

// open requires e.mu.
func (e *Engine) open(ctx context.Context) error {
	if err := e.adapter.Open(ctx, e.cfg.DeviceConfig(), e.mixer.Render); err != nil {
		return &DeviceError{Op: "open", Err: err}
	}
	e.running = true
	e.follow(e.adapter.Format())
	return nil
}

// follow makes the mixer render at f.
func (e *Engine) follow(f device.Format) {
	e.fmtMu.Lock()
	defer e.fmtMu.Unlock()

	if f == e.format {
		return
	}
	if err := e.mixer.Reconfigure(f.SampleRate, f.Channels); err != nil {
		e.log.Error("device format rejected by mixer", zap.Stringer("format", f), zap.Error(err))
		return
	}
	e.format = f
}

// Format is the output layout the mixer renders.
func (e *Engine) Format() device.Format {
	e.fmtMu.Lock()
	defer e.fmtMu.Unlock()
	return e.format
}

// Devices lists the outputs the adapter can open by name.
func (e *Engine) Devices() ([]string, error) {
	l, ok := e.adapter.(interface{ Devices() ([]string, error) })
	if !ok {
		return nil, ErrNoDeviceListing
	}
	return l.Devices()
}

func (e *Engine) Play(src source.Source, opts ...mixer.PlayOption) (VoiceID, error) {
	return e.mixer.Play(src, opts...)
}

// PlayFile decodes path, or reuses the cached decode, and plays it.
func (e *Engine) PlayFile(path string, opts ...mixer.PlayOption) (VoiceID, error) {
	b, err := e.assets.Load(path)
	if err != nil {
		return 0, err
	}
	return e.mixer.Play(b, opts...)
}

// StreamFile plays path while decoding it in the background.
func (e *Engine) StreamFile(path string, opts ...mixer.PlayOption) (VoiceID, error) {
	s, err := e.assets.Open(path, source.WithBufferFrames(e.cfg.Assets.StreamBufferFrames))
	if err != nil {
		return 0, err
	}
	id, err := e.mixer.Play(s, opts...)
	if err != nil {
		s.Close()
		return 0, err
	}
	return id, nil
}

func (e *Engine) SetVolume(id VoiceID, target float32, tw tween.Tween) error {
	return e.mixer.SetVolume(id, target, tw)
}

func (e *Engine) SetRate(id VoiceID, target float32, tw tween.Tween) error {
	return e.mixer.SetRate(id, target, tw)
}

func (e *Engine) SetPan(id VoiceID, target float32, tw tween.Tween) error {
	return e.mixer.SetPan(id, target, tw)
}

func (e *Engine) Pause(id VoiceID) error  { return e.mixer.Pause(id) }
func (e *Engine) Resume(id VoiceID) error { return e.mixer.Resume(id) }
func (e *Engine) Stop(id VoiceID) error   { return e.mixer.Stop(id) }

func (e *Engine) Seek(id VoiceID, frame uint64) error {
	return e.mixer.Seek(id, frame)
}

func (e *Engine) SeekTime(id VoiceID, offset time.Duration) error {
	return e.mixer.SeekTime(id, offset)
}

func (e *Engine) State(id VoiceID) (VoiceState, error) { return e.mixer.State(id) }
func (e *Engine) Position(id VoiceID) (uint64, error)  { return e.mixer.Position(id) }

// Wait blocks until every voice finished or ctx is done. Voices only
// advance while the device is running.
func (e *Engine) Wait(ctx context.Context) error {
	return e.mixer.Wait(ctx)
}

// Events delivers voice, format and device notifications. Events are
// dropped when the channel is full. It is closed by Close.
func (e *Engine) Events() <-chan Event { return e.events }

// Mixer exposes the underlying mixer.
func (e *Engine) Mixer() *mixer.Mixer { return e.mixer }

// Assets exposes the decoded file cache.
func (e *Engine) Assets() *assets.Cache { return e.assets }

// Close stops the device, finishes every voice and closes Events.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	close(e.quit)
	<-e.stopped

	e.mu.Lock()
	err := e.adapter.Close()
	e.running = false
	e.mu.Unlock()

	e.mixer.Close()
	e.forward()
	close(e.events)

	e.log.Info("engine closed")
	if err != nil {
		return &DeviceError{Op: "close", Err: err}
	}
	return nil
}

// disconnected runs on an adapter goroutine.
func (e *Engine) disconnected(err error) {
	select {
	case e.lost <- err:
	default:
	}
}

func (e *Engine) reconfigured(f device.Format) {
	e.log.Info("device format changed", zap.Stringer("format", f))
	e.follow(f)
}

func (e *Engine) supervise() {
	defer close(e.stopped)

	ticker := time.NewTicker(eventInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.quit:
			return
		case err := <-e.lost:
			e.recover(err)
		case <-ticker.C:
			e.forward()
		}
	}
}

// recover closes a lost device and, when restarts are enabled, reopens it.
// Voices keep their state while nothing renders.
func (e *Engine) recover(cause error) {
	e.log.Warn("output device lost", zap.Error(cause))

	e.mu.Lock()
	if err := e.adapter.Close(); err != nil {
		e.log.Warn("closing lost device", zap.Error(err))
	}
	e.running = false
	e.mu.Unlock()

	e.send(Event{Kind: mixer.EventDeviceLost, Err: cause})

	if !e.cfg.Device.Restart {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-e.quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	retry := time.NewTicker(e.cfg.Device.RestartInterval)
	defer retry.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-e.quit:
			return
		case <-retry.C:
		}

		err := e.reopen(ctx)
		if err == nil {
			e.log.Info("output device restored",
				zap.Int("attempts", attempt),
				zap.Stringer("format", e.Format()))
			e.send(Event{Kind: mixer.EventDeviceRestored})
			return
		}
		if errors.Is(err, ErrClosed) {
			return
		}
		e.log.Debug("device restart failed", zap.Int("attempt", attempt), zap.Error(err))
	}
}

func (e *Engine) reopen(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.closed:
		return ErrClosed
	case e.running:
		// Init won the race
		return nil
	}
	return e.open(ctx)
}

// forward moves pending mixer events to the Events channel.
func (e *Engine) forward() {
	for {
		ev, ok := e.mixer.NextEvent()
		if !ok {
			return
		}
		e.send(ev)
	}
}

func (e *Engine) send(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.log.Debug("event dropped", zap.Stringer("event", ev))
	}
}
