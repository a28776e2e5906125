// Package mock has scriptable stand-ins for [vad.Engine] and
// [vad.SessionHandle] that record how they were used.
package mock

import (
	"bytes"
	"sync"

	"github.com/MrWong99/voxgate/pkg/provider/vad"
)

var (
	_ vad.Engine        = (*Engine)(nil)
	_ vad.SessionHandle = (*Session)(nil)
)

// NewSessionCall is one recorded [Engine.NewSession].
type NewSessionCall struct {
	Cfg vad.Config
}

// Engine hands out Session, or a fresh *Session when Session is nil.
type Engine struct {
	Session       vad.SessionHandle
	NewSessionErr error
	// Validate applies vad.ValidateConfig before returning a session.
	Validate bool

	mu              sync.Mutex
	NewSessionCalls []NewSessionCall
}

func (e *Engine) NewSession(cfg vad.Config) (vad.SessionHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.NewSessionCalls = append(e.NewSessionCalls, NewSessionCall{Cfg: cfg})

	switch {
	case e.NewSessionErr != nil:
		return nil, e.NewSessionErr
	case e.Validate:
		if err := vad.ValidateConfig(cfg); err != nil {
			return nil, err
		}
	}
	if e.Session == nil {
		return &Session{}, nil
	}
	return e.Session, nil
}

// IsSpeechCall is one recorded frame.
type IsSpeechCall struct {
	Frame []byte
}

// Session answers IsSpeech from DecideFunc when set, otherwise from
// Decisions in order and Default after they run out. IsSpeechErr overrides
// all of them.
type Session struct {
	DecideFunc  func(frame []byte) bool
	Decisions   []bool
	Default     bool
	IsSpeechErr error
	CloseErr    error

	mu             sync.Mutex
	IsSpeechCalls  []IsSpeechCall
	ResetCallCount int
	CloseCallCount int
	consumed       int
}

func (s *Session) IsSpeech(frame []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.IsSpeechCalls = append(s.IsSpeechCalls, IsSpeechCall{Frame: bytes.Clone(frame)})

	if s.IsSpeechErr != nil {
		return false, s.IsSpeechErr
	}
	if s.DecideFunc != nil {
		return s.DecideFunc(frame), nil
	}
	if s.consumed >= len(s.Decisions) {
		return s.Default, nil
	}
	s.consumed++
	return s.Decisions[s.consumed-1], nil
}

// Reset is counted only; Decisions keep their position.
func (s *Session) Reset() {
	s.mu.Lock()
	s.ResetCallCount++
	s.mu.Unlock()
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCallCount++
	return s.CloseErr
}
