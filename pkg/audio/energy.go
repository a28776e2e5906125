// Package audio holds the PCM primitives shared by the recorder, the VAD
// backends and the trimmer: sample decoding, stream formats and the debiased
// energy measure.
//
// All PCM handled here is 16-bit signed little-endian mono.
package audio

import (
	"encoding/binary"
	"math"
)

// DebiasedEnergy returns the RMS of pcm after removing its mean (DC offset).
// Empty input, or input holding less than one full sample, yields 0. A
// trailing odd byte is ignored.
func DebiasedEnergy(pcm []byte) float64 {
	n := len(pcm) / BytesPerSample
	if n == 0 {
		return 0
	}

	var sum float64
	for i := range n {
		sum += float64(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	mean := sum / float64(n)

	var sq float64
	for i := range n {
		d := float64(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(n))
}
