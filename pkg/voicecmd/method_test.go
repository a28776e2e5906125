package voicecmd_test

import (
	"errors"
	"testing"

	"github.com/MrWong99/voxgate/pkg/voicecmd"
)

func TestParseSilenceMethod(t *testing.T) {
	t.Parallel()

	for _, m := range voicecmd.SilenceMethods {
		got, err := voicecmd.ParseSilenceMethod(string(m))
		if err != nil || got != m {
			t.Errorf("ParseSilenceMethod(%q) = %q, %v", m, got, err)
		}
	}
	if got, err := voicecmd.ParseSilenceMethod(" VAD-and-Ratio "); err != nil || got != voicecmd.MethodVADAndRatio {
		t.Errorf("ParseSilenceMethod(mixed case) = %q, %v", got, err)
	}
	if _, err := voicecmd.ParseSilenceMethod("loudness"); !errors.Is(err, voicecmd.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestSilenceMethod_Signals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method              voicecmd.SilenceMethod
		vad, ratio, current bool
	}{
		{voicecmd.MethodVADOnly, true, false, false},
		{voicecmd.MethodRatioOnly, false, true, false},
		{voicecmd.MethodCurrentOnly, false, false, true},
		{voicecmd.MethodVADAndRatio, true, true, false},
		{voicecmd.MethodVADAndCurrent, true, false, true},
		{voicecmd.MethodAll, true, true, true},
		{"bogus", false, false, false},
	}
	for _, tt := range tests {
		if got := tt.method.UsesVAD(); got != tt.vad {
			t.Errorf("%s.UsesVAD = %v, want %v", tt.method, got, tt.vad)
		}
		if got := tt.method.UsesRatio(); got != tt.ratio {
			t.Errorf("%s.UsesRatio = %v, want %v", tt.method, got, tt.ratio)
		}
		if got := tt.method.UsesCurrent(); got != tt.current {
			t.Errorf("%s.UsesCurrent = %v, want %v", tt.method, got, tt.current)
		}
	}
}

func TestEventType_Symbol(t *testing.T) {
	t.Parallel()

	events := []voicecmd.Event{
		{Type: voicecmd.EventSpeech},
		{Type: voicecmd.EventStarted},
		{Type: voicecmd.EventSilence},
		{Type: voicecmd.EventStopped},
		{Type: voicecmd.EventTimeout},
		{Type: "other"},
	}
	if got := voicecmd.FormatEvents(events); got != "S[-]T?" {
		t.Fatalf("FormatEvents = %q, want %q", got, "S[-]T?")
	}
	var cmd *voicecmd.VoiceCommand
	if cmd.Succeeded() {
		t.Fatal("nil command reported success")
	}
}
