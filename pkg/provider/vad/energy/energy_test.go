package energy_test

import (
	"errors"
	"testing"

	"github.com/MrWong99/voxgate/pkg/audio"
	"github.com/MrWong99/voxgate/pkg/provider/vad"
	"github.com/MrWong99/voxgate/pkg/provider/vad/energy"
)

var cfg16k = vad.Config{SampleRate: 16000, FrameSizeMs: 30, Mode: vad.ModeQuality}

// square returns a 30 ms 16 kHz frame alternating between +amp and -amp,
// whose debiased energy is exactly amp.
func square(amp int16) []byte {
	samples := make([]int16, 480)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = amp
		} else {
			samples[i] = -amp
		}
	}
	return audio.SamplesToBytes(samples)
}

func newSession(t *testing.T, e *energy.Engine, cfg vad.Config) vad.SessionHandle {
	t.Helper()
	sess, err := e.NewSession(cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func isSpeech(t *testing.T, sess vad.SessionHandle, frame []byte) bool {
	t.Helper()
	got, err := sess.IsSpeech(frame)
	if err != nil {
		t.Fatalf("IsSpeech: %v", err)
	}
	return got
}

func TestSession_Hysteresis(t *testing.T) {
	t.Parallel()
	sess := newSession(t, energy.New(energy.WithThreshold(1000), energy.WithRelease(0.5)), cfg16k)

	steps := []struct {
		amp  int16
		want bool
	}{
		{amp: 0, want: false},
		{amp: 900, want: false}, // below open threshold
		{amp: 1000, want: true}, // opens
		{amp: 600, want: true},  // above release (500)
		{amp: 400, want: false}, // closes
		{amp: 700, want: false}, // must reach open threshold again
		{amp: 1200, want: true},
	}
	for i, s := range steps {
		if got := isSpeech(t, sess, square(s.amp)); got != s.want {
			t.Errorf("step %d (amp %d): got %v, want %v", i, s.amp, got, s.want)
		}
	}
}

func TestSession_ModeRaisesThreshold(t *testing.T) {
	t.Parallel()
	e := energy.New(energy.WithThreshold(1000))
	quality := newSession(t, e, cfg16k)

	aggressive := cfg16k
	aggressive.Mode = vad.ModeVeryAggressive
	strict := newSession(t, e, aggressive)

	frame := square(1500)
	if !isSpeech(t, quality, frame) {
		t.Error("mode 0 should report speech at 1.5x threshold")
	}
	if isSpeech(t, strict, frame) {
		t.Error("mode 3 should not report speech at 1.5x threshold")
	}
}

func TestSession_ResetClosesGate(t *testing.T) {
	t.Parallel()
	sess := newSession(t, energy.New(energy.WithThreshold(1000)), cfg16k)
	if !isSpeech(t, sess, square(2000)) {
		t.Fatal("expected speech")
	}
	sess.Reset()
	if isSpeech(t, sess, square(800)) {
		t.Error("gate stayed open across Reset")
	}
}

func TestSession_Errors(t *testing.T) {
	t.Parallel()
	e := energy.New()
	if _, err := e.NewSession(vad.Config{SampleRate: 16000, FrameSizeMs: 25}); !errors.Is(err, vad.ErrInvalidConfig) {
		t.Errorf("NewSession err = %v, want ErrInvalidConfig", err)
	}

	sess := newSession(t, e, cfg16k)
	if _, err := sess.IsSpeech(make([]byte, 10)); err == nil {
		t.Error("expected error for wrong frame size")
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := sess.IsSpeech(square(0)); !errors.Is(err, vad.ErrSessionClosed) {
		t.Errorf("err after Close = %v, want ErrSessionClosed", err)
	}
}

func TestNew_IgnoresInvalidOptions(t *testing.T) {
	t.Parallel()
	e := energy.New(energy.WithThreshold(-5), energy.WithRelease(3))
	if e.Threshold() != energy.DefaultThreshold {
		t.Errorf("Threshold = %f, want default", e.Threshold())
	}
}
