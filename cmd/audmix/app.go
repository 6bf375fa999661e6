// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ik5/audmix"
	"github.com/ik5/audmix/config"
	"github.com/ik5/audmix/internal/logging"
	"github.com/ik5/audmix/mixer"
	"github.com/ik5/audmix/tween"
)

// NewLoggerParams holds dependencies for newLogger.
type NewLoggerParams struct {
	fx.In
	Cfg *config.Config
	LC  fx.Lifecycle
}

func newLogger(params NewLoggerParams) (*zap.Logger, error) {
	logger, err := logging.NewZapLogger(params.Cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	params.LC.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// syncing a terminal fails on some platforms
			_ = logger.Sync()
			return nil
		},
	})
	return logger, nil
}

// NewEngineParams holds dependencies for newEngine.
type NewEngineParams struct {
	fx.In
	Cfg    *config.Config
	Opts   *options
	Logger *zap.Logger
	LC     fx.Lifecycle
}

func newEngine(params NewEngineParams) (*audmix.Engine, error) {
	cfg := *params.Cfg
	if params.Opts.device != "" {
		cfg.Device.Name = params.Opts.device
	}

	e, err := audmix.New(&cfg, audmix.WithLogger(params.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	params.LC.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return e.Close()
		},
	})
	return e, nil
}

// PlayerParams holds dependencies for registerPlayer.
type PlayerParams struct {
	fx.In
	LC         fx.Lifecycle
	Shutdowner fx.Shutdowner
	Engine     *audmix.Engine
	Opts       *options
	Logger     *zap.Logger
}

// registerPlayer starts playback once the app is up and shuts the app down
// when it is done.
func registerPlayer(params PlayerParams) {
	p := &player{
		engine: params.Engine,
		opts:   params.Opts,
		log:    params.Logger,
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	params.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go p.watch()
			go func() {
				defer close(done)

				code := 0
				if err := p.run(ctx); err != nil {
					p.log.Error("audmix failed", zap.Error(err))
					code = 1
				}
				if err := params.Shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
					p.log.Error("shutdown", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

type player struct {
	engine *audmix.Engine
	opts   *options
	log    *zap.Logger
}

func (p *player) run(ctx context.Context) error {
	if p.opts.list {
		names, err := p.engine.Devices()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	}

	if p.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.timeout)
		defer cancel()
	}

	if p.opts.output != "" {
		return p.mixdown(ctx)
	}

	if err := p.engine.Init(ctx); err != nil {
		return err
	}
	if err := p.start(); err != nil {
		return err
	}
	if err := p.engine.Wait(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (p *player) mixdown(ctx context.Context) error {
	if err := p.start(); err != nil {
		return err
	}

	f, err := os.Create(p.opts.output)
	if err != nil {
		return err
	}

	var limit uint64
	if p.opts.loops {
		// a looping mix never ends on its own
		limit = uint64(p.engine.Format().SampleRate) * 60
	}
	frames, err := p.engine.Record(ctx, f, p.opts.bitDepth, limit)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("mixdown to %s: %w", p.opts.output, err)
	}

	p.log.Info("mixdown complete",
		zap.String("path", p.opts.output),
		zap.Uint64("frames", frames))
	return nil
}

// start queues every file on its own voice.
func (p *player) start() error {
	for _, path := range p.opts.files {
		play := p.engine.PlayFile
		if p.opts.stream {
			play = p.engine.StreamFile
		}

		id, err := play(path, p.playOptions()...)
		if err != nil {
			return err
		}
		p.log.Info("playing", zap.String("path", path), zap.Stringer("voice", id))
	}
	return nil
}

func (p *player) playOptions() []mixer.PlayOption {
	opts := []mixer.PlayOption{
		mixer.WithVolume(float32(p.opts.volume)),
		mixer.WithRate(float32(tween.SemitonesToRate(p.opts.semitones))),
		mixer.WithPan(float32(p.opts.pan)),
	}
	if p.opts.fadeIn > 0 {
		opts = append(opts, mixer.WithFadeIn(tween.Over(p.opts.fadeIn, tween.SineOut)))
	}
	if p.opts.loops && !p.opts.stream {
		opts = append(opts, mixer.WithLoop(0, 0))
	}
	return opts
}

// watch logs engine events until the engine closes.
func (p *player) watch() {
	for ev := range p.engine.Events() {
		switch ev.Kind {
		case mixer.EventDeviceLost:
			p.log.Warn("output lost", zap.Error(ev.Err))
		case mixer.EventDeviceRestored, mixer.EventReconfigured:
			p.log.Info(ev.String())
		default:
			p.log.Debug(ev.String())
		}
	}
}
