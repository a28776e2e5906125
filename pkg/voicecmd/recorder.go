package voicecmd

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrWong99/voxgate/pkg/provider/vad"
)

// Recorder detects one voice command at a time in a PCM stream.
//
// Feed audio with ProcessChunk. When an attempt ends, ProcessChunk returns the
// resulting VoiceCommand and rejects further audio with [ErrCommandFinished]
// until Start or Stop begins the next attempt.
type Recorder struct {
	cfg        Config
	chunkDur   time.Duration
	classifier *Classifier
	session    vad.SessionHandle

	// window sizes in chunks
	skipChunks    int
	speechChunks  int
	minChunks     int
	silenceChunks int
	maxChunks     int

	ring    *chunkRing
	phrase  []byte
	pending []byte
	events  []Event

	skipLeft    int
	speechLeft  int
	minLeft     int
	silenceLeft int
	maxLeft     int

	lastSpeech  bool
	inPhrase    bool
	afterPhrase bool
	finished    bool
	elapsed     time.Duration
}

var _ VoiceCommandRecorder = (*Recorder)(nil)

// NewRecorder validates cfg, opens a VAD session from engine when the method
// needs one, and returns a started Recorder. engine may be nil for methods
// that use energy tests only. The caller must Close the recorder.
func NewRecorder(cfg Config, engine vad.Engine) (*Recorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var session vad.SessionHandle
	if cfg.Method.UsesVAD() {
		if engine == nil {
			return nil, fmt.Errorf("%w: silence method %s requires a vad engine", ErrInvalidConfig, cfg.Method)
		}
		s, err := engine.NewSession(cfg.VADConfig())
		if err != nil {
			return nil, fmt.Errorf("voicecmd: open vad session: %w", err)
		}
		session = s
	}

	classifier, err := NewClassifier(cfg.Method, session, cfg.thresholds())
	if err != nil {
		if session != nil {
			_ = session.Close()
		}
		return nil, err
	}

	beforeChunks := cfg.chunks(cfg.Before)
	r := &Recorder{
		cfg:           cfg,
		chunkDur:      cfg.ChunkDuration(),
		classifier:    classifier,
		session:       session,
		skipChunks:    cfg.chunks(cfg.Skip),
		speechChunks:  cfg.chunks(cfg.Speech),
		minChunks:     cfg.chunks(cfg.MinPhrase),
		silenceChunks: cfg.chunks(cfg.Silence),
		maxChunks:     cfg.chunks(cfg.MaxPhrase),
		ring:          newChunkRing(beforeChunks, cfg.ChunkSize),
	}
	r.Start()
	return r, nil
}

// Start begins a new attempt. Buffered audio, pending bytes and events are
// discarded, every counter is reloaded, and the classifier is reset.
func (r *Recorder) Start() {
	r.ring.reset()
	r.phrase = r.phrase[:0]
	r.pending = r.pending[:0]
	r.events = nil

	r.skipLeft = r.skipChunks
	r.speechLeft = r.speechChunks
	r.minLeft = r.minChunks
	r.silenceLeft = r.silenceChunks
	r.maxLeft = r.maxChunks

	r.lastSpeech = false
	r.inPhrase = false
	r.afterPhrase = false
	r.finished = false
	r.elapsed = 0

	r.classifier.Reset()
}

// Stop returns the buffered audio, pre-roll first, whatever the state, and
// resets the recorder as Start does.
func (r *Recorder) Stop() []byte {
	audio := r.buffered()
	r.Start()
	return audio
}

// ProcessChunk appends data to the pending buffer and classifies every full
// chunk it now holds. A trailing partial chunk stays pending for the next
// call. The returned VoiceCommand is non-nil once the attempt ends; bytes
// after the deciding chunk stay pending, see [Recorder.Drain].
//
// A classification error ends the attempt like a result does.
func (r *Recorder) ProcessChunk(data []byte) (*VoiceCommand, error) {
	if r.finished {
		return nil, ErrCommandFinished
	}
	r.pending = append(r.pending, data...)

	off := 0
	defer func() { r.consume(off) }()
	for len(r.pending)-off >= r.cfg.ChunkSize {
		chunk := r.pending[off : off+r.cfg.ChunkSize]
		off += r.cfg.ChunkSize
		cmd, err := r.step(chunk)
		if err != nil || cmd != nil {
			return cmd, err
		}
	}
	return nil, nil
}

// Drain removes and returns the bytes not yet classified. Call it after a
// result, before Start, to carry audio that followed the deciding chunk
// into the next attempt.
func (r *Recorder) Drain() []byte {
	if len(r.pending) == 0 {
		return nil
	}
	rest := bytes.Clone(r.pending)
	r.pending = r.pending[:0]
	return rest
}

func (r *Recorder) consume(n int) {
	if n == 0 {
		return
	}
	rest := copy(r.pending, r.pending[n:])
	r.pending = r.pending[:rest]
}

func (r *Recorder) step(chunk []byte) (*VoiceCommand, error) {
	if r.skipLeft > 0 {
		r.skipLeft--
		return nil, nil
	}

	if r.inPhrase {
		r.phrase = append(r.phrase, chunk...)
	} else {
		r.ring.push(chunk)
	}
	r.elapsed += r.chunkDur

	if r.maxChunks > 0 {
		r.maxLeft--
		if r.maxLeft <= 0 {
			r.addEvent(EventTimeout)
			slog.Warn("voice command timed out", "elapsed", r.elapsed, "max_phrase", r.cfg.MaxPhrase, "in_phrase", r.inPhrase)
			return r.finish(ResultFailure, nil), nil
		}
	}

	speech, err := r.classifier.Classify(chunk)
	if err != nil {
		// the chunk is already buffered, so the attempt cannot continue
		r.finished = true
		return nil, fmt.Errorf("voicecmd: classify chunk at %v: %w", r.elapsed, err)
	}
	if speech != r.lastSpeech {
		if speech {
			r.addEvent(EventSpeech)
		} else {
			r.addEvent(EventSilence)
		}
	}
	r.lastSpeech = speech

	switch {
	case speech && r.speechLeft > 0:
		r.speechLeft--
	case speech && !r.inPhrase:
		r.inPhrase = true
		r.afterPhrase = false
		r.minLeft = r.minChunks
		r.addEvent(EventStarted)
		slog.Debug("voice command started", "elapsed", r.elapsed, "preroll_bytes", r.ring.size())
	case r.inPhrase && r.minLeft > 0:
		r.minLeft--
	case !speech:
		switch {
		case !r.inPhrase:
			r.speechLeft = r.speechChunks
		case r.afterPhrase && r.silenceLeft > 0:
			r.silenceLeft--
		case r.afterPhrase:
			return r.complete(), nil
		default:
			r.afterPhrase = true
			r.silenceLeft = r.silenceChunks
		}
	}
	return nil, nil
}

func (r *Recorder) complete() *VoiceCommand {
	r.addEvent(EventStopped)
	audio := r.buffered()
	slog.Debug("voice command stopped", "elapsed", r.elapsed, "bytes", len(audio))
	return r.finish(ResultSuccess, audio)
}

func (r *Recorder) finish(result Result, audio []byte) *VoiceCommand {
	r.finished = true
	return &VoiceCommand{Result: result, Audio: audio, Events: r.Events()}
}

func (r *Recorder) buffered() []byte {
	out := make([]byte, 0, r.ring.size()+len(r.phrase))
	out = r.ring.appendTo(out)
	return append(out, r.phrase...)
}

func (r *Recorder) addEvent(t EventType) {
	r.events = append(r.events, Event{Type: t, Time: r.elapsed})
}

// Events returns a copy of the current attempt's event log.
func (r *Recorder) Events() []Event {
	if len(r.events) == 0 {
		return nil
	}
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// LastSpeech returns the most recent speech decision of this attempt.
func (r *Recorder) LastSpeech() bool { return r.lastSpeech }

// InPhrase reports whether a phrase start has been confirmed.
func (r *Recorder) InPhrase() bool { return r.inPhrase }

// Elapsed returns the audio time processed in this attempt, skip excluded.
func (r *Recorder) Elapsed() time.Duration { return r.elapsed }

// Pending returns the number of bytes waiting for a full chunk.
func (r *Recorder) Pending() int { return len(r.pending) }

// Classifier exposes the recorder's classifier for progress reporting.
func (r *Recorder) Classifier() *Classifier { return r.classifier }

// Config returns the configuration the recorder was built with.
func (r *Recorder) Config() Config { return r.cfg }

// ChunkDuration returns the playback duration of one chunk.
func (r *Recorder) ChunkDuration() time.Duration { return r.chunkDur }

// Close releases the VAD session. The recorder must not be used afterwards.
func (r *Recorder) Close() error {
	if r.session == nil {
		return nil
	}
	if err := r.session.Close(); err != nil {
		return fmt.Errorf("voicecmd: close vad session: %w", err)
	}
	return nil
}
