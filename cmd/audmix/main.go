// SPDX-License-Identifier: EPL-2.0

// Command audmix plays audio files together through the default output, or
// mixes them down to a WAV file.
//
//	audmix [flags] file...
//
// Every file starts at once. Playback ends when the last one finishes.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/fx"

	"github.com/ik5/audmix/config"
	"github.com/ik5/audmix/internal/logging"
)

// options holds the command line.
type options struct {
	configPath string
	output     string
	bitDepth   int
	device     string
	list       bool
	stream     bool
	volume     float64
	semitones  float64
	pan        float64
	fadeIn     time.Duration
	loops      bool
	timeout    time.Duration
	files      []string
}

func parseFlags(args []string) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("audmix", flag.ContinueOnError)

	fs.StringVar(&o.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&o.output, "o", "", "write the mix to this WAV file instead of playing it")
	fs.IntVar(&o.bitDepth, "bits", 16, "bit depth of the -o file (8, 16, 24 or 32)")
	fs.StringVar(&o.device, "device", "", "output device name, overrides the configuration")
	fs.BoolVar(&o.list, "list", false, "list output devices and exit")
	fs.BoolVar(&o.stream, "stream", false, "decode files while playing instead of loading them first")
	fs.Float64Var(&o.volume, "volume", 1, "volume of every file")
	fs.Float64Var(&o.semitones, "semitones", 0, "transpose by this many semitones")
	fs.Float64Var(&o.pan, "pan", 0, "stereo balance from -1 (left) to 1 (right)")
	fs.DurationVar(&o.fadeIn, "fade-in", 0, "fade every file in over this long")
	fs.BoolVar(&o.loops, "loop", false, "loop files until interrupted (ignored with -stream)")
	fs.DurationVar(&o.timeout, "timeout", 0, "stop after this long; zero waits for the files to end")

	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: audmix [flags] file...")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.files = fs.Args()

	if !o.list && len(o.files) == 0 {
		fs.Usage()
		return nil, fmt.Errorf("no input files")
	}
	return o, nil
}

// configOption provides *config.Config from the file named on the command
// line, or the defaults when there is none.
func configOption(o *options) fx.Option {
	if o.configPath == "" {
		return fx.Supply(config.Default())
	}
	return fx.Options(
		fx.Supply(o.configPath),
		config.Module,
	)
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	app := fx.New(
		fx.Supply(opts),
		configOption(opts),
		fx.Provide(
			newLogger,
			newEngine,
		),
		fx.WithLogger(logging.NewFxLogger),
		fx.Invoke(registerPlayer),
	)

	// Run handles SIGINT and SIGTERM and exits with the code passed to
	// Shutdown.
	app.Run()
}
