// SPDX-License-Identifier: EPL-2.0

// Package audmix is a low-latency audio mixing engine.
//
// An Engine plays any number of voices through one output device. Each
// voice reads a source (a decoded in-memory buffer or a background-decoded
// stream), resamples it to the device rate and sums it into the output
// with its own volume, playback rate and pan. Control calls never wait for
// the audio thread: they queue a command that the mixer applies at the
// start of its next buffer.
//
// # Quick Start
//
//	e, err := audmix.New(config.Default(), audmix.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer e.Close()
//
//	if err := e.Init(ctx); err != nil {
//	    var derr *audmix.DeviceError
//	    errors.As(err, &derr) // retry Init later
//	    return err
//	}
//
//	id, err := e.PlayFile("drums.wav", mixer.WithVolume(0.8))
//	if err != nil {
//	    return err
//	}
//	e.SetVolume(id, 0, tween.Over(2*time.Second, tween.QuadOut))
//	e.Wait(ctx)
//
// # Parameters
//
// Volume, rate and pan move to a new target over a Tween: a duration, an
// optional delay and one of the easing curves in the tween package. A new
// target replaces a running transition, starting from the current value.
// A negative rate plays backwards; tween.SemitonesToRate converts musical
// intervals.
//
// # Sources
//
// PlayFile decodes the whole file once and keeps it in an LRU cache, so
// repeated sounds share one buffer. StreamFile decodes on a background
// goroutine into a ring the audio thread reads without locking; a stream
// that falls behind plays silence rather than blocking. WAV, AIFF, MP3 and
// Ogg Vorbis are recognized by content.
//
// # Devices
//
// The device backend comes from the configuration: miniaudio through
// device/malgo, or device.Null for headless use. When the device goes
// away the engine reports EventDeviceLost, reopens it in the background
// when restarts are enabled, and reports EventDeviceRestored. Voices keep
// their positions meanwhile, and a different sample rate on the new
// device is picked up without restarting them.
//
// # Offline Rendering
//
// Record renders the mix into a WAV file as fast as possible, for tests
// and bouncing mixes to disk. It requires the device to be closed.
package audmix
