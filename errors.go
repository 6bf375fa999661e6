// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"errors"
	"fmt"
)

var (
	ErrClosed = errors.New("engine closed")
	// ErrDeviceRunning is returned by Record while a device drives the
	// mixer.
	ErrDeviceRunning = errors.New("output device is running")
	// ErrNoDeviceListing means the adapter cannot enumerate outputs.
	ErrNoDeviceListing = errors.New("device adapter cannot list outputs")
)

// DeviceError reports a failure to open or reconfigure the output device.
// The engine stays usable; calling Init again retries.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }
