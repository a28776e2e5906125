// Package voicecmd segments a stream of 16-bit mono PCM into voice commands.
//
// A [Recorder] consumes audio in arbitrary increments, re-chunks it into
// fixed 10, 20 or 30 ms frames, classifies each frame as speech or silence
// with a [Classifier], and runs a phrase-boundary state machine over those
// decisions. Audio preceding a confirmed phrase start is kept in a bounded
// pre-roll ring; audio inside the phrase is accumulated until enough silence
// ends it. Each attempt ends in a [VoiceCommand]: success with the captured
// utterance, or failure when the maximum duration runs out first.
//
// The package performs no I/O and starts no goroutines. A Recorder serves a
// single stream and is not safe for concurrent use.
package voicecmd

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrInvalidConfig is wrapped by every configuration error returned from
	// [Config.Validate], [NewRecorder] and [NewClassifier].
	ErrInvalidConfig = errors.New("voicecmd: invalid config")

	// ErrCommandFinished is returned by [Recorder.ProcessChunk] after the
	// current attempt yielded a VoiceCommand and before Start or Stop begins
	// the next one.
	ErrCommandFinished = errors.New("voicecmd: command finished, call Start for the next one")
)

// Result is the outcome of one recording attempt.
type Result string

const (
	// ResultSuccess means a phrase started and was ended by silence.
	ResultSuccess Result = "success"

	// ResultFailure means the maximum duration elapsed first.
	ResultFailure Result = "failure"
)

// EventType enumerates the entries of a recorder's event log.
type EventType string

const (
	// EventStarted marks a confirmed phrase start.
	EventStarted EventType = "started"

	// EventSpeech marks a silence-to-speech edge.
	EventSpeech EventType = "speech"

	// EventSilence marks a speech-to-silence edge.
	EventSilence EventType = "silence"

	// EventStopped marks a completed phrase.
	EventStopped EventType = "stopped"

	// EventTimeout marks an attempt that ran out of time.
	EventTimeout EventType = "timeout"
)

// Symbol returns the single-rune rendering used in progress output.
func (t EventType) Symbol() rune {
	switch t {
	case EventStarted:
		return '['
	case EventStopped:
		return ']'
	case EventSpeech:
		return 'S'
	case EventSilence:
		return '-'
	case EventTimeout:
		return 'T'
	default:
		return '?'
	}
}

// Event is one timestamped entry of the event log.
type Event struct {
	Type EventType

	// Time is the audio time elapsed since the attempt began (skipped audio
	// excluded). It is always a whole multiple of the chunk duration.
	Time time.Duration
}

// VoiceCommand is the terminal result of one recording attempt.
type VoiceCommand struct {
	Result Result

	// Audio holds the pre-roll followed by the in-phrase audio on success and
	// is nil on failure.
	Audio []byte

	// Events is the attempt's event log in order of occurrence. It is owned
	// by the caller.
	Events []Event
}

// Succeeded reports whether the attempt captured an utterance.
func (c *VoiceCommand) Succeeded() bool {
	return c != nil && c.Result == ResultSuccess
}

// VoiceCommandRecorder is the capability set a caller-driven capture loop
// needs. [*Recorder] implements it.
type VoiceCommandRecorder interface {
	// Start begins a new attempt, discarding all buffered audio and events.
	Start()

	// Stop returns whatever audio is buffered (pre-roll then phrase) and
	// resets the recorder for the next attempt.
	Stop() []byte

	// ProcessChunk feeds audio of any length. It returns a non-nil
	// VoiceCommand when the attempt ends.
	ProcessChunk(data []byte) (*VoiceCommand, error)
}

// FormatEvents renders events as a compact symbol stream, e.g. "S[-S-]".
func FormatEvents(events []Event) string {
	var b strings.Builder
	for _, e := range events {
		b.WriteRune(e.Type.Symbol())
	}
	return b.String()
}
