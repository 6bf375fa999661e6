// SPDX-License-Identifier: EPL-2.0

package source

import "errors"

var (
	// ErrInvalidLayout is returned for a non-positive sample rate or
	// channel count, or for frames of uneven width.
	ErrInvalidLayout = errors.New("invalid sample layout")
	// ErrSourceInUse is returned when a stream already backs a voice.
	ErrSourceInUse = errors.New("stream already in use")
	// ErrStreamClosed is returned when acquiring a closed stream.
	ErrStreamClosed = errors.New("stream closed")
	// ErrNoRegistry is returned when decoding without a decoder registry.
	ErrNoRegistry = errors.New("no decoder registry")
)
