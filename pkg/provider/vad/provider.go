// Package vad defines the Engine interface for Voice Activity Detection backends.
//
// A VAD engine wraps a frame-level speech detector (WebRTC VAD, an energy
// gate, or a test double) and surfaces it as a per-stream session. Each
// session keeps its own detector state so that several audio streams can be
// classified independently.
//
// VAD is synchronous: IsSpeech returns its decision before the next frame
// arrives.
//
// Frame geometry is validated when a session is created, never per frame:
// an Engine must reject a Config whose sample rate, frame duration or mode it
// cannot serve. [ValidateConfig] implements the rules shared by all backends.
//
// Implementations must be safe for concurrent use across different sessions.
// A single SessionHandle should not be shared across goroutines.
package vad

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidConfig is wrapped by every configuration error returned from
// [ValidateConfig] and Engine.NewSession.
var ErrInvalidConfig = errors.New("vad: invalid config")

// ErrSessionClosed is returned by SessionHandle.IsSpeech after Close.
var ErrSessionClosed = errors.New("vad: session closed")

// SupportedSampleRates lists the sample rates every backend accepts.
var SupportedSampleRates = []int{8000, 16000, 32000, 48000}

// SupportedFrameSizesMs lists the frame durations every backend accepts.
var SupportedFrameSizesMs = []int{10, 20, 30}

// Config holds the parameters for a VAD session.
type Config struct {
	// SampleRate is the audio sample rate in Hz. Must match the rate of the PCM
	// frames passed to IsSpeech. One of [SupportedSampleRates].
	SampleRate int

	// FrameSizeMs is the duration of each audio frame in milliseconds, one of
	// [SupportedFrameSizesMs]. IsSpeech returns an error if the supplied frame
	// does not match this size.
	FrameSizeMs int

	// Mode is the detector aggressiveness. Higher modes report speech less
	// eagerly.
	Mode Mode
}

// FrameBytes returns the size in bytes of one 16-bit mono frame.
func (c Config) FrameBytes() int {
	return c.SampleRate / 1000 * c.FrameSizeMs * 2
}

// ValidateConfig checks cfg against the rate, frame and mode constraints shared
// by all backends. The returned error wraps [ErrInvalidConfig].
func ValidateConfig(cfg Config) error {
	var errs []error
	if !slices.Contains(SupportedSampleRates, cfg.SampleRate) {
		errs = append(errs, fmt.Errorf("%w: sample rate %d Hz not in %v", ErrInvalidConfig, cfg.SampleRate, SupportedSampleRates))
	}
	if !slices.Contains(SupportedFrameSizesMs, cfg.FrameSizeMs) {
		errs = append(errs, fmt.Errorf("%w: frame size %d ms not in %v", ErrInvalidConfig, cfg.FrameSizeMs, SupportedFrameSizesMs))
	}
	if !cfg.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("%w: mode %d out of range [%d, %d]", ErrInvalidConfig, cfg.Mode, ModeQuality, ModeVeryAggressive))
	}
	return errors.Join(errs...)
}

// SessionHandle represents an active VAD session for a single audio stream. It is
// an interface so that test code can supply mock implementations without a live
// engine. Reset clears the detection state without closing the session.
type SessionHandle interface {
	// IsSpeech classifies a single frame. The frame must be raw little-endian
	// 16-bit mono PCM at the SampleRate and FrameSizeMs configured when the
	// session was created. Returns an error if the frame size is wrong or the
	// detector fails.
	IsSpeech(frame []byte) (bool, error)

	// Reset clears accumulated detection state. Use this when the audio stream
	// is restarted so stale state does not leak into the next utterance.
	Reset()

	// Close releases all resources associated with the session. After Close,
	// IsSpeech returns [ErrSessionClosed]. Calling Close more than once is safe
	// and returns nil.
	Close() error
}

// Engine is the factory for VAD sessions. It is the top-level interface
// implemented by each VAD backend.
//
// Implementations must be safe for concurrent use: multiple goroutines may call
// NewSession simultaneously to create independent sessions.
type Engine interface {
	// NewSession creates a new VAD session with the given configuration. The
	// session is immediately ready to accept frames.
	//
	// Returns an error wrapping [ErrInvalidConfig] if the configuration is
	// unsupported, or another error if the backend cannot allocate a detector.
	NewSession(cfg Config) (SessionHandle, error)
}
