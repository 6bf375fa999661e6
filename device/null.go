// SPDX-License-Identifier: EPL-2.0

package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// NullOption configures a Null adapter.
type NullOption func(*Null)

// Manual disables the internal clock. Buffers are only rendered by Pump.
func Manual() NullOption {
	return func(n *Null) { n.manual = true }
}

// WithNativeFormat makes the simulated device ignore the requested layout
// and run at f instead.
func WithNativeFormat(f Format) NullOption {
	return func(n *Null) { n.native = &f }
}

// WithLogger sets the logger for device lifecycle messages.
func WithLogger(l *zap.Logger) NullOption {
	return func(n *Null) { n.log = l }
}

// Null is an output that discards what it renders. Unless Manual is set, a
// ticker invokes the callback once per buffer period, so playback advances
// in real time without sound hardware. Disconnect, Reconnect and
// Reconfigure simulate the events a hardware device produces.
type Null struct {
	log    *zap.Logger
	manual bool

	mu        sync.Mutex
	native    *Format
	open      bool
	available bool
	format    Format
	frames    int
	cb        Callback
	buf       []float32
	rendered  uint64
	quit      chan struct{}
	done      chan struct{}

	onDisconnect  func(error)
	onReconfigure func(Format)
}

var _ Adapter = (*Null)(nil)

// NewNull returns a closed Null adapter whose simulated device is present.
func NewNull(opts ...NullOption) *Null {
	n := &Null{available: true}
	for _, opt := range opts {
		opt(n)
	}
	if n.log == nil {
		n.log = zap.NewNop()
	}
	return n
}

func (n *Null) Open(ctx context.Context, cfg Config, cb Callback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cb == nil {
		return fmt.Errorf("%w: nil callback", ErrInvalidConfig)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.open {
		return ErrAlreadyOpen
	}
	if !n.available {
		return ErrNoDevice
	}

	cfg = cfg.WithDefaults()
	n.format = Format{SampleRate: cfg.SampleRate, Channels: cfg.Channels}
	if n.native != nil {
		n.format = *n.native
	}
	n.frames = cfg.BufferFrames
	n.buf = make([]float32, n.frames*n.format.Channels)
	n.cb = cb
	n.open = true

	if !n.manual {
		period := time.Duration(n.frames) * time.Second / time.Duration(n.format.SampleRate)
		n.quit = make(chan struct{})
		n.done = make(chan struct{})
		go n.run(period, n.quit, n.done)
	}

	n.log.Info("null device opened",
		zap.Int("sample_rate", n.format.SampleRate),
		zap.Int("channels", n.format.Channels),
		zap.Int("buffer_frames", n.frames),
		zap.Bool("manual", n.manual))
	return nil
}

func (n *Null) Format() Format {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.format
}

func (n *Null) OnDisconnect(h func(error)) {
	n.mu.Lock()
	n.onDisconnect = h
	n.mu.Unlock()
}

func (n *Null) OnReconfigure(h func(Format)) {
	n.mu.Lock()
	n.onReconfigure = h
	n.mu.Unlock()
}

// Pump renders one buffer and returns it. The slice is reused by the next
// call.
func (n *Null) Pump() ([]float32, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.open {
		return nil, ErrNotOpen
	}
	if !n.available {
		return nil, ErrDisconnected
	}
	n.cb(n.buf)
	n.rendered += uint64(n.frames)
	return n.buf, nil
}

// Rendered is the number of frames rendered since the adapter was created.
func (n *Null) Rendered() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rendered
}

// Disconnect simulates the device going away. The callback stops, the
// disconnect handler runs, and Open fails with ErrNoDevice until Reconnect.
func (n *Null) Disconnect(err error) {
	if err == nil {
		err = ErrDisconnected
	}

	n.mu.Lock()
	running := n.open && n.available
	n.available = false
	h := n.onDisconnect
	n.mu.Unlock()

	n.log.Warn("null device disconnected", zap.Error(err))
	if running && h != nil {
		h(err)
	}
}

// Reconnect makes the simulated device available again. A non-zero f
// becomes its native format.
func (n *Null) Reconnect(f Format) {
	n.mu.Lock()
	n.available = true
	if f != (Format{}) {
		n.native = &f
	}
	n.mu.Unlock()

	n.log.Info("null device reconnected", zap.Stringer("format", f))
}

// Reconfigure switches the running device to f. The reconfigure handler
// runs before the next buffer is rendered.
func (n *Null) Reconfigure(f Format) error {
	if f.SampleRate <= 0 || f.Channels <= 0 || f.Channels > MaxChannels {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, f)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.open {
		return ErrNotOpen
	}
	n.format = f
	n.buf = make([]float32, n.frames*f.Channels)
	if n.onReconfigure != nil {
		n.onReconfigure(f)
	}
	n.log.Info("null device reconfigured", zap.Stringer("format", f))
	return nil
}

func (n *Null) Close() error {
	n.mu.Lock()
	if !n.open {
		n.mu.Unlock()
		return nil
	}
	n.open = false
	quit, done := n.quit, n.done
	n.quit, n.done = nil, nil
	n.mu.Unlock()

	if quit != nil {
		close(quit)
		<-done
	}
	n.log.Debug("null device closed")
	return nil
}

func (n *Null) run(period time.Duration, quit, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			// errors mean the device is disconnected; keep ticking until closed
			_, _ = n.Pump()
		}
	}
}
