package webrtc_test

import (
	"errors"
	"testing"

	"github.com/MrWong99/voxgate/pkg/provider/vad"
	"github.com/MrWong99/voxgate/pkg/provider/vad/webrtc"
)

func TestNewSession_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()
	_, err := webrtc.New().NewSession(vad.Config{SampleRate: 44100, FrameSizeMs: 30, Mode: vad.ModeAggressive})
	if !errors.Is(err, vad.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestNewSession_Availability(t *testing.T) {
	t.Parallel()
	sess, err := webrtc.New().NewSession(vad.Config{SampleRate: 16000, FrameSizeMs: 30, Mode: vad.ModeVeryAggressive})
	if !webrtc.Available {
		if !errors.Is(err, webrtc.ErrUnavailable) {
			t.Fatalf("err = %v, want ErrUnavailable", err)
		}
		return
	}
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer sess.Close()

	speech, err := sess.IsSpeech(make([]byte, 960))
	if err != nil {
		t.Fatalf("IsSpeech: %v", err)
	}
	if speech {
		t.Error("digital silence classified as speech")
	}

	if _, err := sess.IsSpeech(make([]byte, 100)); err == nil {
		t.Error("expected error for short frame")
	}

	if err := sess.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := sess.IsSpeech(make([]byte, 960)); !errors.Is(err, vad.ErrSessionClosed) {
		t.Errorf("err after Close = %v, want ErrSessionClosed", err)
	}
}
