// SPDX-License-Identifier: EPL-2.0

// Package malgo plays mixer output through miniaudio.
//
// The adapter opens one f32 playback device per Open call. Devices are
// chosen by the name miniaudio reports for them; Devices lists those names.
// miniaudio converts to the negotiated format internally when a backend
// changes its own, so reconfiguration is only reported when a reopened
// device negotiates a different format than the previous one. A device
// that stops without Close being called is reported as a disconnect.
package malgo

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"

	ma "github.com/gen2brain/malgo"
	"go.uber.org/zap"

	"github.com/ik5/audmix/device"
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger for device lifecycle and miniaudio messages.
func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) { a.log = l }
}

// WithBackends restricts miniaudio to the given backends, in priority order.
func WithBackends(b ...ma.Backend) Option {
	return func(a *Adapter) { a.backends = b }
}

// Adapter is a device.Adapter backed by miniaudio.
type Adapter struct {
	log      *zap.Logger
	backends []ma.Backend

	mu     sync.Mutex
	ctx    *ma.AllocatedContext
	dev    *ma.Device
	format device.Format

	// set while Close stops the device so the stop callback is not
	// mistaken for a disconnect
	stopping atomic.Bool

	onDisconnect  func(error)
	onReconfigure func(device.Format)
}

var _ device.Adapter = (*Adapter)(nil)

func New(opts ...Option) *Adapter {
	a := &Adapter{}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	return a
}

// Devices returns the names of the playback devices miniaudio can see.
func (a *Adapter) Devices() ([]string, error) {
	c, err := a.initContext()
	if err != nil {
		return nil, err
	}
	defer freeContext(c)

	infos, err := c.Devices(ma.Playback)
	if err != nil {
		return nil, fmt.Errorf("list playback devices: %w", err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		info := info
		names = append(names, info.Name())
	}
	return names, nil
}

func (a *Adapter) Open(ctx context.Context, cfg device.Config, cb device.Callback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cb == nil {
		return fmt.Errorf("%w: nil callback", device.ErrInvalidConfig)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dev != nil {
		return device.ErrAlreadyOpen
	}

	c, err := a.initContext()
	if err != nil {
		return err
	}

	devCfg := ma.DefaultDeviceConfig(ma.Playback)
	devCfg.Playback.Format = ma.FormatF32
	devCfg.Playback.Channels = uint32(cfg.Channels)
	devCfg.SampleRate = uint32(cfg.SampleRate)
	devCfg.PeriodSizeInFrames = uint32(cfg.BufferFrames)

	if cfg.DeviceName != "" {
		id, err := findDevice(c, cfg.DeviceName)
		if err != nil {
			freeContext(c)
			return err
		}
		devCfg.Playback.DeviceID = id.Pointer()
	}

	callbacks := ma.DeviceCallbacks{
		Data: func(out, _ []byte, _ uint32) {
			cb(samples(out))
		},
		Stop: a.stopped,
	}

	dev, err := ma.InitDevice(c.Context, devCfg, callbacks)
	if err != nil {
		freeContext(c)
		return fmt.Errorf("%w: %w", device.ErrNoDevice, err)
	}

	a.stopping.Store(false)
	if err := dev.Start(); err != nil {
		a.stopping.Store(true)
		dev.Uninit()
		freeContext(c)
		return fmt.Errorf("start playback device: %w", err)
	}

	prev := a.format
	a.ctx, a.dev = c, dev
	a.format = device.Format{
		SampleRate: int(dev.SampleRate()),
		Channels:   int(dev.PlaybackChannels()),
	}
	if prev != (device.Format{}) && prev != a.format && a.onReconfigure != nil {
		a.onReconfigure(a.format)
	}

	a.log.Info("playback device opened",
		zap.String("device", cfg.DeviceName),
		zap.Stringer("format", a.format),
		zap.Int("period_frames", cfg.BufferFrames))
	return nil
}

func (a *Adapter) Format() device.Format {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.format
}

func (a *Adapter) OnDisconnect(h func(error)) {
	a.mu.Lock()
	a.onDisconnect = h
	a.mu.Unlock()
}

func (a *Adapter) OnReconfigure(h func(device.Format)) {
	a.mu.Lock()
	a.onReconfigure = h
	a.mu.Unlock()
}

func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dev == nil {
		return nil
	}

	a.stopping.Store(true)
	// Uninit stops the device and waits for the audio thread.
	a.dev.Uninit()
	freeContext(a.ctx)
	a.dev, a.ctx = nil, nil

	a.log.Debug("playback device closed")
	return nil
}

// stopped runs on the miniaudio thread.
func (a *Adapter) stopped() {
	if a.stopping.Load() {
		return
	}
	// the handler may call Close, which waits for this thread
	go func() {
		a.mu.Lock()
		h := a.onDisconnect
		a.mu.Unlock()

		a.log.Warn("playback device stopped unexpectedly")
		if h != nil {
			h(device.ErrDisconnected)
		}
	}()
}

func (a *Adapter) initContext() (*ma.AllocatedContext, error) {
	c, err := ma.InitContext(a.backends, ma.ContextConfig{}, func(message string) {
		a.log.Debug("miniaudio", zap.String("message", strings.TrimSpace(message)))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: init context: %w", device.ErrNoDevice, err)
	}
	return c, nil
}

func freeContext(c *ma.AllocatedContext) {
	_ = c.Uninit()
	c.Free()
}

func findDevice(c *ma.AllocatedContext, name string) (*ma.DeviceID, error) {
	infos, err := c.Devices(ma.Playback)
	if err != nil {
		return nil, fmt.Errorf("list playback devices: %w", err)
	}
	for i := range infos {
		if infos[i].Name() == name {
			return &infos[i].ID, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", device.ErrNoDevice, name)
}

// samples reinterprets an f32 device buffer in place.
func samples(b []byte) []float32 {
	if len(b) < 4 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}
