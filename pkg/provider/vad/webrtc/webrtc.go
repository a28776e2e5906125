// Package webrtc implements [vad.Engine] on top of the WebRTC voice activity
// detector (github.com/maxhawkins/go-webrtcvad).
//
// The detector is a C library and therefore needs cgo. Builds without cgo
// still compile this package, but NewSession returns [ErrUnavailable]; use
// the energy backend there instead. [Available] reports which case applies.
package webrtc

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MrWong99/voxgate/pkg/provider/vad"
)

// ErrUnavailable is returned by NewSession when the binary was built without
// cgo.
var ErrUnavailable = errors.New("webrtc: vad requires cgo")

// detector is the per-session classifier behind the build-tag split.
type detector interface {
	process(sampleRate int, frame []byte) (bool, error)
}

// Engine creates WebRTC VAD sessions. The zero value is ready to use and safe
// for concurrent use.
type Engine struct{}

// New returns a WebRTC VAD engine.
func New() *Engine {
	return &Engine{}
}

// Ensure Engine implements vad.Engine at compile time.
var _ vad.Engine = (*Engine)(nil)

// NewSession validates cfg and allocates a detector for it.
func (e *Engine) NewSession(cfg vad.Config) (vad.SessionHandle, error) {
	if err := vad.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	d, err := newDetector(cfg)
	if err != nil {
		return nil, err
	}
	return &Session{cfg: cfg, frameBytes: cfg.FrameBytes(), det: d}, nil
}

// Session is a single-stream WebRTC VAD session.
type Session struct {
	cfg        vad.Config
	frameBytes int

	mu     sync.Mutex
	det    detector
	closed bool
}

// Ensure Session implements vad.SessionHandle at compile time.
var _ vad.SessionHandle = (*Session)(nil)

// IsSpeech classifies one frame of exactly cfg.FrameBytes() bytes.
func (s *Session) IsSpeech(frame []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, vad.ErrSessionClosed
	}
	if len(frame) != s.frameBytes {
		return false, fmt.Errorf("webrtc: frame is %d bytes, want %d", len(frame), s.frameBytes)
	}
	return s.det.process(s.cfg.SampleRate, frame)
}

// Reset replaces the detector with a freshly initialised one. The WebRTC
// detector carries adaptive noise estimates between frames.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if d, err := newDetector(s.cfg); err == nil {
		s.det = d
	}
}

// Close releases the detector. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.det = nil
	return nil
}
