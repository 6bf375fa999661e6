// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported matches any DecodeError of kind KindUnsupported.
	ErrUnsupported = errors.New("unsupported audio format")
	// ErrCorrupt matches any DecodeError of kind KindCorrupt.
	ErrCorrupt = errors.New("corrupt or truncated audio stream")
)

// DecodeKind classifies decode failures.
type DecodeKind int

const (
	// KindUnsupported means the input was not recognized or uses a
	// variant of the format no decoder handles.
	KindUnsupported DecodeKind = iota + 1
	// KindCorrupt means the format was recognized but the data is damaged
	// or ends early.
	KindCorrupt
)

func (k DecodeKind) String() string {
	switch k {
	case KindUnsupported:
		return "unsupported"
	case KindCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// DecodeError is returned by decoders and source constructors.
type DecodeError struct {
	Kind   DecodeKind
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	format := e.Format
	if format == "" {
		format = "audio"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s stream", format, e.Kind)
	}
	return fmt.Sprintf("%s: %s stream: %v", format, e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is lets errors.Is match the kind sentinels.
func (e *DecodeError) Is(target error) bool {
	switch target {
	case ErrUnsupported:
		return e.Kind == KindUnsupported
	case ErrCorrupt:
		return e.Kind == KindCorrupt
	}
	return false
}

// Unsupported wraps err as an unsupported-format DecodeError.
func Unsupported(format string, err error) error {
	return &DecodeError{Kind: KindUnsupported, Format: format, Err: err}
}

// Corrupt wraps err as a corrupt-stream DecodeError.
func Corrupt(format string, err error) error {
	return &DecodeError{Kind: KindCorrupt, Format: format, Err: err}
}
