// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"bytes"
	"encoding/binary"
)

// WAV16 builds a canonical 16-bit PCM WAV file in memory.
func WAV16(sampleRate, channels int, samples []int16) []byte {
	return WAV(sampleRate, channels, 16, func(buf *bytes.Buffer) {
		for _, s := range samples {
			binary.Write(buf, binary.LittleEndian, s)
		}
	}, len(samples)*2)
}

// WAV builds a canonical PCM WAV file whose data chunk is written by data
// and holds dataSize bytes.
func WAV(sampleRate, channels, bitsPerSample int, data func(*bytes.Buffer), dataSize int) []byte {
	buf := new(bytes.Buffer)

	numChannels := uint16(channels)
	bits := uint16(bitsPerSample)
	byteRate := uint32(sampleRate) * uint32(numChannels) * uint32(bits/8)
	blockAlign := numChannels * (bits / 8)

	// RIFF header
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	// fmt chunk
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, numChannels)
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, byteRate)
	binary.Write(buf, binary.LittleEndian, blockAlign)
	binary.Write(buf, binary.LittleEndian, bits)

	// data chunk
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	data(buf)

	return buf.Bytes()
}
