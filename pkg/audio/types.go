package audio

import "time"

// BytesPerSample is the width of one 16-bit PCM sample.
const BytesPerSample = 2

// Format describes the sample rate and channel count of an audio stream.
// Everything in voxgate is 16-bit little-endian PCM; only mono is processed.
type Format struct {
	SampleRate int
	Channels   int
}

// Mono returns a single-channel Format at the given sample rate.
func Mono(sampleRate int) Format {
	return Format{SampleRate: sampleRate, Channels: 1}
}

// BytesPerSecond returns the byte rate of 16-bit PCM in this format.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * BytesPerSample
}

// Duration returns the playback duration of n bytes of PCM in this format.
// It returns 0 for a zero-valued Format.
func (f Format) Duration(n int) time.Duration {
	bps := f.BytesPerSecond()
	if bps <= 0 {
		return 0
	}
	return time.Duration(int64(n) * int64(time.Second) / int64(bps))
}

// String returns a human-readable form such as "16000Hz mono".
func (f Format) String() string {
	return formatString(f.SampleRate, f.Channels)
}
