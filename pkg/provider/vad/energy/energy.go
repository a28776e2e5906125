// Package energy implements [vad.Engine] as a pure-Go debiased-energy gate.
//
// It needs no cgo and no model files, which makes it the fallback backend
// for builds where the WebRTC detector is unavailable. The gate uses
// hysteresis: a frame opens the gate when its energy reaches the speech
// threshold, and the gate only closes again once energy falls below the
// release threshold. The mode scales both thresholds up, so higher modes
// report speech less eagerly, mirroring WebRTC VAD aggressiveness.
package energy

import (
	"fmt"
	"sync"

	"github.com/MrWong99/voxgate/pkg/audio"
	"github.com/MrWong99/voxgate/pkg/provider/vad"
)

const (
	// DefaultThreshold is the debiased energy at which a mode-0 session
	// starts reporting speech.
	DefaultThreshold = 300.0

	// DefaultRelease is the fraction of the speech threshold below which an
	// open gate closes.
	DefaultRelease = 0.6

	// modeStep is the threshold increase per mode step.
	modeStep = 0.5
)

// Option configures an [Engine] during construction.
type Option func(*Engine)

// WithThreshold sets the base speech threshold (debiased RMS, 16-bit scale).
// Non-positive values are ignored.
func WithThreshold(t float64) Option {
	return func(e *Engine) {
		if t > 0 {
			e.threshold = t
		}
	}
}

// WithRelease sets the release threshold as a fraction of the speech
// threshold. Values outside (0, 1] are ignored.
func WithRelease(r float64) Option {
	return func(e *Engine) {
		if r > 0 && r <= 1 {
			e.release = r
		}
	}
}

// Engine creates energy-gate sessions. It is immutable after construction
// and safe for concurrent use.
type Engine struct {
	threshold float64
	release   float64
}

// New returns an Engine with the given options applied.
func New(opts ...Option) *Engine {
	e := &Engine{threshold: DefaultThreshold, release: DefaultRelease}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Ensure Engine implements vad.Engine at compile time.
var _ vad.Engine = (*Engine)(nil)

// Threshold returns the base speech threshold.
func (e *Engine) Threshold() float64 { return e.threshold }

// NewSession validates cfg and returns a gate scaled for cfg.Mode.
func (e *Engine) NewSession(cfg vad.Config) (vad.SessionHandle, error) {
	if err := vad.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	open := e.threshold * (1 + modeStep*float64(cfg.Mode))
	return &Session{
		frameBytes: cfg.FrameBytes(),
		open:       open,
		close:      open * e.release,
	}, nil
}

// Session is a single-stream energy gate.
type Session struct {
	frameBytes int
	open       float64
	close      float64

	mu       sync.Mutex
	inSpeech bool
	closed   bool
}

// Ensure Session implements vad.SessionHandle at compile time.
var _ vad.SessionHandle = (*Session)(nil)

// IsSpeech reports whether the gate is open after observing frame.
func (s *Session) IsSpeech(frame []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, vad.ErrSessionClosed
	}
	if len(frame) != s.frameBytes {
		return false, fmt.Errorf("energy: frame is %d bytes, want %d", len(frame), s.frameBytes)
	}

	level := audio.DebiasedEnergy(frame)
	if s.inSpeech {
		s.inSpeech = level >= s.close
	} else {
		s.inSpeech = level >= s.open
	}
	return s.inSpeech, nil
}

// Reset closes the gate.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inSpeech = false
}

// Close marks the session closed. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
