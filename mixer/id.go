// SPDX-License-Identifier: EPL-2.0

package mixer

import "fmt"

// VoiceID identifies one playback instance. It stays valid after the voice
// finished: commands naming it are then ignored and State reports Finished
// until the slot is reused. The zero VoiceID is never issued.
type VoiceID uint64

func newVoiceID(slot, gen uint32) VoiceID {
	return VoiceID(uint64(gen)<<32 | uint64(slot))
}

func (id VoiceID) slot() uint32 { return uint32(id) }
func (id VoiceID) gen() uint32  { return uint32(id >> 32) }

func (id VoiceID) String() string {
	return fmt.Sprintf("voice(%d#%d)", id.slot(), id.gen())
}

// VoiceState is the lifecycle state of a voice.
type VoiceState uint8

const (
	Playing VoiceState = iota + 1
	Paused
	// Finished is terminal.
	Finished
)

func (s VoiceState) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// status packs a generation and a state into one word so both can be
// published atomically.
type status uint64

func makeStatus(gen uint32, s VoiceState) status {
	return status(uint64(gen)<<32 | uint64(s))
}

func (s status) gen() uint32       { return uint32(s >> 32) }
func (s status) state() VoiceState { return VoiceState(s & 0xff) }
