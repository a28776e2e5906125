package voicecmd

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/MrWong99/voxgate/pkg/audio"
	"github.com/MrWong99/voxgate/pkg/provider/vad"
)

// Config parameterizes a [Recorder]. It is immutable once the recorder has
// been constructed. Durations are converted to whole chunks by rounding up.
type Config struct {
	// SampleRate in Hz, one of 8000, 16000, 32000 or 48000.
	SampleRate int

	// ChunkSize is the classification unit in bytes. It must hold exactly
	// 10, 20 or 30 ms of 16-bit mono audio at SampleRate.
	ChunkSize int

	// VADMode is the detector aggressiveness, 1 through 3.
	VADMode vad.Mode

	// Skip is discarded from the start of every attempt before detection.
	Skip time.Duration

	// MinPhrase is the shortest phrase that may be ended by silence.
	MinPhrase time.Duration

	// MaxPhrase bounds the attempt. Zero disables the bound.
	MaxPhrase time.Duration

	// Speech is the run of speech chunks required to start a phrase.
	Speech time.Duration

	// Silence is the run of silent chunks required to end a phrase.
	Silence time.Duration

	// Before is the pre-roll kept ahead of a confirmed phrase start.
	Before time.Duration

	// Method selects the classification signals.
	Method SilenceMethod

	// CurrentThreshold is the debiased energy at or above which a chunk counts
	// as speech. Required by methods using the current-energy test.
	CurrentThreshold float64

	// MaxEnergy fixes the reference of the ratio test. Zero tracks the
	// running maximum instead.
	MaxEnergy float64

	// RatioThreshold is the max/current energy ratio at or below which a
	// chunk counts as speech. Required by methods using the ratio test.
	RatioThreshold float64
}

// DefaultConfig returns the stock configuration: 16 kHz audio in 30 ms
// chunks classified by the VAD alone.
func DefaultConfig() Config {
	return Config{
		SampleRate: 16000,
		ChunkSize:  960,
		VADMode:    vad.ModeVeryAggressive,
		MinPhrase:  time.Second,
		MaxPhrase:  30 * time.Second,
		Speech:     300 * time.Millisecond,
		Silence:    500 * time.Millisecond,
		Before:     500 * time.Millisecond,
		Method:     MethodVADOnly,
	}
}

// Format returns the PCM format the recorder expects.
func (c Config) Format() audio.Format {
	return audio.Mono(c.SampleRate)
}

// FrameMs returns the chunk duration in whole milliseconds, or 0 when
// ChunkSize does not describe a whole number of milliseconds.
func (c Config) FrameMs() int {
	if c.SampleRate <= 0 || c.ChunkSize <= 0 || c.ChunkSize%audio.BytesPerSample != 0 {
		return 0
	}
	samples := c.ChunkSize / audio.BytesPerSample
	if samples*1000%c.SampleRate != 0 {
		return 0
	}
	return samples * 1000 / c.SampleRate
}

// ChunkDuration returns the playback duration of one chunk.
func (c Config) ChunkDuration() time.Duration {
	return c.Format().Duration(c.ChunkSize)
}

// chunks converts d to a whole number of chunks, rounding up.
func (c Config) chunks(d time.Duration) int {
	cd := c.ChunkDuration()
	if d <= 0 || cd <= 0 {
		return 0
	}
	return int((d + cd - 1) / cd)
}

// VADConfig returns the session parameters matching this configuration.
func (c Config) VADConfig() vad.Config {
	return vad.Config{SampleRate: c.SampleRate, FrameSizeMs: c.FrameMs(), Mode: c.VADMode}
}

// Validate reports every problem with c. The returned error wraps
// [ErrInvalidConfig].
func (c Config) Validate() error {
	var errs []error
	if !slices.Contains(vad.SupportedSampleRates, c.SampleRate) {
		errs = append(errs, fmt.Errorf("%w: sample rate %d Hz not in %v", ErrInvalidConfig, c.SampleRate, vad.SupportedSampleRates))
	} else if ms := c.FrameMs(); !slices.Contains(vad.SupportedFrameSizesMs, ms) {
		errs = append(errs, fmt.Errorf("%w: chunk size %d bytes is not a 10, 20 or 30 ms frame at %d Hz", ErrInvalidConfig, c.ChunkSize, c.SampleRate))
	}
	if c.VADMode < vad.ModeLowBitrate || c.VADMode > vad.ModeVeryAggressive {
		errs = append(errs, fmt.Errorf("%w: vad mode %d out of range [1, 3]", ErrInvalidConfig, int(c.VADMode)))
	}
	for _, d := range []struct {
		name string
		val  time.Duration
	}{
		{"skip", c.Skip},
		{"min phrase", c.MinPhrase},
		{"max phrase", c.MaxPhrase},
		{"speech", c.Speech},
		{"silence", c.Silence},
		{"before", c.Before},
	} {
		if d.val < 0 {
			errs = append(errs, fmt.Errorf("%w: %s duration %v is negative", ErrInvalidConfig, d.name, d.val))
		}
	}
	errs = append(errs, validateThresholds(c.Method, c.thresholds()))
	return errors.Join(errs...)
}

func (c Config) thresholds() Thresholds {
	return Thresholds{Current: c.CurrentThreshold, MaxEnergy: c.MaxEnergy, Ratio: c.RatioThreshold}
}
