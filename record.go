// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/ik5/audmix/formats/wav"
)

// Record renders the mix offline into w as integer PCM WAV, without an
// output device. It stops once no voice is playing and no command is
// pending, after maxFrames frames when maxFrames is positive, or when ctx is
// done. Paused voices do not keep a recording going. It returns the number
// of frames written.
func (e *Engine) Record(ctx context.Context, w io.WriteSeeker, bitDepth int, maxFrames uint64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.closed:
		return 0, ErrClosed
	case e.running:
		return 0, ErrDeviceRunning
	}

	f := e.Format()
	enc, err := wav.NewEncoder(w, f.SampleRate, f.Channels, bitDepth)
	if err != nil {
		return 0, err
	}

	block := e.cfg.DeviceConfig().WithDefaults().BufferFrames
	buf := make([]float32, block*f.Channels)

	var written uint64
	for e.mixer.Active() > 0 && (e.mixer.Playing() > 0 || e.mixer.Pending() > 0) {
		if maxFrames > 0 && written >= maxFrames {
			break
		}
		if err := ctx.Err(); err != nil {
			enc.Close()
			return written, err
		}

		n := uint64(block)
		if maxFrames > 0 {
			n = min(n, maxFrames-written)
		}
		out := buf[:n*uint64(f.Channels)]
		e.mixer.Render(out)

		if err := enc.Write(out); err != nil {
			enc.Close()
			return written, fmt.Errorf("record: %w", err)
		}
		written += n
	}

	if err := enc.Close(); err != nil {
		return written, fmt.Errorf("record: %w", err)
	}

	e.log.Info("mixdown written",
		zap.Uint64("frames", written),
		zap.Stringer("format", f),
		zap.Int("bit_depth", bitDepth))
	return written, nil
}
