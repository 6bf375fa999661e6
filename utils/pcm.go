// SPDX-License-Identifier: EPL-2.0

package utils

// Float32ToInt clamps x to [-1, 1] and scales it to a signed integer of the
// given bit depth (8, 16, 24 or 32). Unknown depths are treated as 16-bit.
func Float32ToInt(x float32, bitDepth int) int {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	// positive full scale is one step short of the negative one
	return int(float64(x) * float64(maxAmplitude(bitDepth)-1))
}

// IntToFloat32 normalizes a signed PCM integer of the given bit depth to
// [-1, 1).
func IntToFloat32(v int, bitDepth int) float32 {
	return float32(float64(v) / float64(maxAmplitude(bitDepth)))
}

func maxAmplitude(bitDepth int) int64 {
	switch bitDepth {
	case 8:
		return 1 << 7
	case 24:
		return 1 << 23
	case 32:
		return 1 << 31
	default:
		return 1 << 15
	}
}
