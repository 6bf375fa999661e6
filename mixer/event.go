// SPDX-License-Identifier: EPL-2.0

package mixer

import "fmt"

// EventKind tags an Event.
type EventKind uint8

const (
	// EventVoiceFinished is reported when a voice slot is reclaimed.
	EventVoiceFinished EventKind = iota + 1
	// EventReconfigured is reported when a new output format took effect.
	EventReconfigured
	// EventDeviceLost and EventDeviceRestored are not produced by the mixer
	// itself; they let the owner of the device report through the same type.
	EventDeviceLost
	EventDeviceRestored
)

func (k EventKind) String() string {
	switch k {
	case EventVoiceFinished:
		return "voice-finished"
	case EventReconfigured:
		return "reconfigured"
	case EventDeviceLost:
		return "device-lost"
	case EventDeviceRestored:
		return "device-restored"
	default:
		return fmt.Sprintf("event(%d)", uint8(k))
	}
}

// Event is a notification from the render goroutine.
type Event struct {
	Kind EventKind
	// ID of the finished voice.
	ID VoiceID
	// SampleRate and Channels of a reconfiguration.
	SampleRate int
	Channels   int
	// Err is the cause of a lost device.
	Err error
}

func (e Event) String() string {
	switch e.Kind {
	case EventVoiceFinished:
		return fmt.Sprintf("%s %s", e.Kind, e.ID)
	case EventReconfigured:
		return fmt.Sprintf("%s %d Hz %d ch", e.Kind, e.SampleRate, e.Channels)
	case EventDeviceLost:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Kind, e.Err)
		}
	}
	return e.Kind.String()
}
