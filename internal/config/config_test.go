package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/voxgate/internal/config"
	"github.com/MrWong99/voxgate/pkg/provider/vad"
	"github.com/MrWong99/voxgate/pkg/provider/vad/mock"
	"github.com/MrWong99/voxgate/pkg/voicecmd"
)

// ── helpers ──────────────────────────────────────────────────────────────────

const sampleYAML = `
server:
  listen_addr: ":9090"
  log_level: debug

recorder:
  sample_rate: 16000
  chunk_size: 640
  skip: 200ms
  min_phrase: 800ms
  max_phrase: 10s
  speech: 90ms
  silence: 600ms
  before: 250ms
  silence_method: vad_and_ratio
  ratio_threshold: 12.5

vad:
  name: energy
  mode: 2
  options:
    threshold: 450
  fallbacks: [webrtc]

output:
  type: current_energy
  split_dir: /tmp/commands
  split_format: "cmd-{index}-{id}.wav"
  read_size: 4096
  trim:
    enabled: true
    ratio: 15
    chunk_size: 640
    keep_before: 2
    keep_after: 3
`

func load(t *testing.T, doc string) (*config.Config, error) {
	t.Helper()
	return config.LoadFromReader(strings.NewReader(doc))
}

// ── YAML loading ──────────────────────────────────────────────────────────────

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()
	cfg, err := load(t, sampleYAML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("server.listen_addr: got %q, want %q", cfg.Server.ListenAddr, ":9090")
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("server.log_level: got %q, want %q", cfg.Server.LogLevel, config.LogDebug)
	}
	if cfg.Recorder.Skip != 200*time.Millisecond {
		t.Errorf("recorder.skip: got %v, want 200ms", cfg.Recorder.Skip)
	}
	if cfg.VAD.Name != "energy" || cfg.VAD.Mode != 2 {
		t.Errorf("vad: got %+v", cfg.VAD)
	}
	if fb := cfg.VAD.Fallback("webrtc"); len(cfg.VAD.Fallbacks) != 1 || cfg.VAD.Fallbacks[0] != "webrtc" || fb.Mode != 2 || fb.Options["threshold"] != 450 {
		t.Errorf("vad.fallbacks: got %v, entry %+v", cfg.VAD.Fallbacks, fb)
	}
	if th, ok, err := cfg.VAD.OptionFloat("threshold"); err != nil || !ok || th != 450 {
		t.Errorf("vad.options.threshold: got %v, %v, %v", th, ok, err)
	}
	if cfg.Output.Type != config.OutputCurrentEnergy {
		t.Errorf("output.type: got %q", cfg.Output.Type)
	}
	want := voicecmd.TrimOptions{ChunkSize: 640, RatioThreshold: 15, KeepBefore: 2, KeepAfter: 3}
	if got := cfg.Output.Trim.Options(); got != want {
		t.Errorf("trim options: got %+v, want %+v", got, want)
	}
}

func TestLoadFromReader_EmptyIsDefault(t *testing.T) {
	t.Parallel()
	for _, doc := range []string{"", "{}"} {
		cfg, err := load(t, doc)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", doc, err)
		}
		if got, want := cfg.VoiceCmd(), voicecmd.DefaultConfig(); got != want {
			t.Errorf("VoiceCmd for %q: got %+v, want %+v", doc, got, want)
		}
		if cfg.VAD.Name != "webrtc" {
			t.Errorf("vad.name for %q: got %q, want webrtc", doc, cfg.VAD.Name)
		}
	}
}

func TestLoadFromReader_PartialKeepsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := load(t, "recorder:\n  silence: 1s\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Recorder.Silence != time.Second {
		t.Errorf("recorder.silence: got %v, want 1s", cfg.Recorder.Silence)
	}
	if cfg.Recorder.ChunkSize != 960 || cfg.Recorder.MinPhrase != time.Second {
		t.Errorf("defaults lost: %+v", cfg.Recorder)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()
	if _, err := load(t, "recorder:\n  sample_rat: 8000\n"); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "voxgate.yaml")
	rewrite(t, path, sampleYAML)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output.SplitFormat != "cmd-{index}-{id}.wav" {
		t.Errorf("output.split_format: got %q", cfg.Output.SplitFormat)
	}

	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing): got %v, want ErrNotExist", err)
	}
}

func TestRecorderConfig_ToVoiceCmd(t *testing.T) {
	t.Parallel()
	cfg, err := load(t, sampleYAML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := voicecmd.Config{
		SampleRate:     16000,
		ChunkSize:      640,
		VADMode:        vad.ModeAggressive,
		Skip:           200 * time.Millisecond,
		MinPhrase:      800 * time.Millisecond,
		MaxPhrase:      10 * time.Second,
		Speech:         90 * time.Millisecond,
		Silence:        600 * time.Millisecond,
		Before:         250 * time.Millisecond,
		Method:         voicecmd.MethodVADAndRatio,
		RatioThreshold: 12.5,
	}
	if got := cfg.VoiceCmd(); got != want {
		t.Fatalf("VoiceCmd: got %+v, want %+v", got, want)
	}
}

// ── Validation ────────────────────────────────────────────────────────────────

func TestValidate_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"log level", "server:\n  log_level: verbose\n", "log_level"},
		{"tls half", "server:\n  tls:\n    cert_file: a.pem\n", "server.tls"},
		{"vad mode", "vad:\n  mode: 0\n", "vad mode"},
		{"vad name missing", "vad:\n  name: \"\"\n", "vad.name"},
		{"vad fallback repeats name", "vad:\n  name: webrtc\n  fallbacks: [energy, webrtc]\n", "vad.fallbacks"},
		{"vad fallback empty", "vad:\n  fallbacks: [\"\"]\n", "vad.fallbacks"},
		{"chunk size", "recorder:\n  chunk_size: 1000\n", "chunk size"},
		{"sample rate", "recorder:\n  sample_rate: 44100\n", "sample rate"},
		{"negative duration", "recorder:\n  speech: -1s\n", "speech"},
		{"unknown method", "recorder:\n  silence_method: loudest\n", "silence method"},
		{"ratio missing", "recorder:\n  silence_method: ratio_only\n", "ratio threshold"},
		{"output type", "output:\n  type: bars\n", "output.type"},
		{"read size", "output:\n  read_size: -1\n", "read_size"},
		{"split format", "output:\n  split_dir: out\n  split_format: fixed.wav\n", "split_format"},
		{"trim ratio", "output:\n  trim:\n    enabled: true\n    ratio: 0\n", "trim.ratio"},
		{"trim chunk", "output:\n  trim:\n    enabled: true\n    chunk_size: 3\n", "trim.chunk_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := load(t, tt.doc)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error should mention %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestValidate_RecorderErrorsWrapSentinel(t *testing.T) {
	t.Parallel()
	_, err := load(t, "recorder:\n  chunk_size: 7\n")
	if !errors.Is(err, voicecmd.ErrInvalidConfig) {
		t.Fatalf("got %v, want ErrInvalidConfig", err)
	}
}

func TestValidate_EnergyMethodNeedsNoVAD(t *testing.T) {
	t.Parallel()
	doc := "vad:\n  name: \"\"\nrecorder:\n  silence_method: current_only\n  current_threshold: 300\n"
	if _, err := load(t, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()
	_, err := load(t, "server:\n  log_level: loud\noutput:\n  type: bars\n")
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	for _, want := range []string{"log_level", "output.type"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q, got: %v", want, err)
		}
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	t.Parallel()
	for _, l := range []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError} {
		if !l.IsValid() {
			t.Errorf("%q should be valid", l)
		}
		if got := config.LogLevel(l.SlogLevel().String()); !strings.EqualFold(string(got), string(l)) {
			t.Errorf("%q maps to %v", l, l.SlogLevel())
		}
	}
}

// ── Registry ─────────────────────────────────────────────────────────────────

func TestRegistry_UnknownVAD(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	_, err := reg.CreateVAD(config.ProviderEntry{Name: "nonexistent"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("expected ErrProviderNotRegistered, got: %v", err)
	}
}

func TestRegistry_RegisteredVAD(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	want := &mock.Engine{}
	var gotEntry config.ProviderEntry
	reg.RegisterVAD("stub", func(e config.ProviderEntry) (vad.Engine, error) {
		gotEntry = e
		return want, nil
	})
	reg.RegisterVAD("other", func(config.ProviderEntry) (vad.Engine, error) { return nil, nil })

	got, err := reg.CreateVAD(config.ProviderEntry{Name: "stub", Mode: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Error("returned engine is not the registered one")
	}
	if gotEntry.Mode != 3 {
		t.Errorf("factory got mode %d, want 3", gotEntry.Mode)
	}
	if names := reg.VADNames(); strings.Join(names, ",") != "other,stub" {
		t.Errorf("VADNames: got %v", names)
	}
}

func TestRegistry_FactoryError(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	boom := errors.New("boom")
	reg.RegisterVAD("bad", func(config.ProviderEntry) (vad.Engine, error) { return nil, boom })
	if _, err := reg.CreateVAD(config.ProviderEntry{Name: "bad"}); !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
}

func TestProviderEntry_OptionFloat(t *testing.T) {
	t.Parallel()
	e := config.ProviderEntry{Options: map[string]any{"int": 3, "float": 2.5, "text": "high"}}
	if v, ok, err := e.OptionFloat("int"); v != 3 || !ok || err != nil {
		t.Errorf("int: got %v, %v, %v", v, ok, err)
	}
	if v, ok, err := e.OptionFloat("float"); v != 2.5 || !ok || err != nil {
		t.Errorf("float: got %v, %v, %v", v, ok, err)
	}
	if _, ok, err := e.OptionFloat("missing"); ok || err != nil {
		t.Errorf("missing: got %v, %v", ok, err)
	}
	if _, _, err := e.OptionFloat("text"); err == nil {
		t.Error("text: expected error")
	}
}
