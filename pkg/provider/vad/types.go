package vad

import "fmt"

// Mode enumerates detector aggressiveness levels, matching the WebRTC VAD
// operating modes.
type Mode int

const (
	// ModeQuality reports speech most eagerly.
	ModeQuality Mode = iota

	// ModeLowBitrate is slightly more restrictive than ModeQuality.
	ModeLowBitrate

	// ModeAggressive filters more non-speech.
	ModeAggressive

	// ModeVeryAggressive filters the most non-speech.
	ModeVeryAggressive
)

// IsValid reports whether m is a recognised mode.
func (m Mode) IsValid() bool {
	return m >= ModeQuality && m <= ModeVeryAggressive
}

// String returns the human-readable name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeQuality:
		return "quality"
	case ModeLowBitrate:
		return "low-bitrate"
	case ModeAggressive:
		return "aggressive"
	case ModeVeryAggressive:
		return "very-aggressive"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}
