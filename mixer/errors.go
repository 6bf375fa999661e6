// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacity matches both ErrQueueFull and ErrVoicesFull.
	ErrCapacity = errors.New("mixer capacity exceeded")
	// ErrQueueFull is returned when the command queue has no room left.
	ErrQueueFull = fmt.Errorf("%w: command queue full", ErrCapacity)
	// ErrVoicesFull is returned by Play when every voice slot is taken.
	ErrVoicesFull = fmt.Errorf("%w: no free voice", ErrCapacity)

	// ErrInvalidHandle is returned when querying an unknown or stale voice.
	ErrInvalidHandle = errors.New("invalid voice handle")
	// ErrClosed is returned once the mixer was closed.
	ErrClosed = errors.New("mixer closed")

	ErrInvalidConfig        = errors.New("invalid mixer configuration")
	ErrInvalidSource        = errors.New("invalid source")
	ErrInvalidLoop          = errors.New("invalid loop region")
	ErrInvalidCommand       = errors.New("command cannot be sent directly")
	ErrUnknownInterpolation = errors.New("unknown interpolation")
)
