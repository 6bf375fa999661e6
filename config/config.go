// SPDX-License-Identifier: EPL-2.0

// Package config loads engine settings from YAML.
//
// A file only needs the keys it changes; everything else keeps the values
// from Default:
//
//	log_level: debug
//	device:
//	  backend: malgo
//	  name: "Built-in Output"
//	  sample_rate: 48000
//	  buffer_frames: 256
//	mixer:
//	  max_voices: 32
//	  interpolation: linear
//	assets:
//	  cache_size: 64
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ik5/audmix/device"
	"github.com/ik5/audmix/mixer"
)

// Device backends.
const (
	BackendMalgo = "malgo"
	BackendNull  = "null"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// DeviceConfig selects and sizes the output.
type DeviceConfig struct {
	Backend      string `yaml:"backend"`
	Name         string `yaml:"name"`
	SampleRate   int    `yaml:"sample_rate"`
	Channels     int    `yaml:"channels"`
	BufferFrames int    `yaml:"buffer_frames"`
	// Restart reopens the device after it disconnects, retrying every
	// RestartInterval.
	Restart         bool          `yaml:"restart"`
	RestartInterval time.Duration `yaml:"restart_interval"`
}

// MixerConfig sizes the voice table and the queues.
type MixerConfig struct {
	MaxVoices     int                 `yaml:"max_voices"`
	QueueCapacity int                 `yaml:"queue_capacity"`
	EventCapacity int                 `yaml:"event_capacity"`
	Interpolation mixer.Interpolation `yaml:"interpolation"`
}

// AssetsConfig controls file loading.
type AssetsConfig struct {
	// CacheSize is how many decoded files are kept in memory.
	CacheSize int `yaml:"cache_size"`
	// StreamBufferFrames sizes the prefetch ring of streamed files.
	StreamBufferFrames int `yaml:"stream_buffer_frames"`
}

// Config stores the engine configuration.
type Config struct {
	Device   DeviceConfig `yaml:"device"`
	Mixer    MixerConfig  `yaml:"mixer"`
	Assets   AssetsConfig `yaml:"assets"`
	LogLevel string       `yaml:"log_level"`
}

// Default returns the settings used for keys a file leaves out.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Backend:         BackendMalgo,
			SampleRate:      device.DefaultSampleRate,
			Channels:        device.DefaultChannels,
			BufferFrames:    device.DefaultBufferFrames,
			Restart:         true,
			RestartInterval: 500 * time.Millisecond,
		},
		Mixer: MixerConfig{
			MaxVoices:     mixer.DefaultMaxVoices,
			QueueCapacity: mixer.DefaultQueueCapacity,
			EventCapacity: mixer.DefaultEventCapacity,
			Interpolation: mixer.Cubic,
		},
		Assets: AssetsConfig{
			CacheSize:          32,
			StreamBufferFrames: 1 << 15,
		},
		LogLevel: "info",
	}
}

// LoadConfig loads the configuration from the given file path.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Device.Backend {
	case BackendMalgo, BackendNull:
	default:
		return fmt.Errorf("%w: unknown device backend %q", ErrInvalidConfig, c.Device.Backend)
	}
	if err := c.DeviceConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch {
	case c.Device.Restart && c.Device.RestartInterval <= 0:
		return fmt.Errorf("%w: restart interval %v", ErrInvalidConfig, c.Device.RestartInterval)
	case c.Mixer.MaxVoices < 0:
		return fmt.Errorf("%w: %d voices", ErrInvalidConfig, c.Mixer.MaxVoices)
	case c.Mixer.QueueCapacity < 0:
		return fmt.Errorf("%w: queue capacity %d", ErrInvalidConfig, c.Mixer.QueueCapacity)
	case c.Mixer.EventCapacity < 0:
		return fmt.Errorf("%w: event capacity %d", ErrInvalidConfig, c.Mixer.EventCapacity)
	case c.Assets.CacheSize <= 0:
		return fmt.Errorf("%w: asset cache size %d", ErrInvalidConfig, c.Assets.CacheSize)
	case c.Assets.StreamBufferFrames < 0:
		return fmt.Errorf("%w: stream buffer of %d frames", ErrInvalidConfig, c.Assets.StreamBufferFrames)
	}
	return nil
}

// DeviceConfig is the request passed to the device adapter.
func (c *Config) DeviceConfig() device.Config {
	return device.Config{
		SampleRate:   c.Device.SampleRate,
		Channels:     c.Device.Channels,
		BufferFrames: c.Device.BufferFrames,
		DeviceName:   c.Device.Name,
	}
}

// MixerConfig builds the mixer settings for a device running at f.
func (c *Config) MixerConfig(f device.Format) mixer.Config {
	return mixer.Config{
		SampleRate:    f.SampleRate,
		Channels:      f.Channels,
		MaxVoices:     c.Mixer.MaxVoices,
		QueueCapacity: c.Mixer.QueueCapacity,
		EventCapacity: c.Mixer.EventCapacity,
		Interpolation: c.Mixer.Interpolation,
	}
}
