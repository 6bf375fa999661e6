// SPDX-License-Identifier: EPL-2.0

package device

import "errors"

var (
	ErrNoDevice      = errors.New("no output device available")
	ErrAlreadyOpen   = errors.New("device already open")
	ErrNotOpen       = errors.New("device not open")
	ErrInvalidConfig = errors.New("invalid device configuration")
	// ErrDisconnected is reported to OnDisconnect handlers when the adapter
	// has no more specific cause.
	ErrDisconnected = errors.New("device disconnected")
)
