package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// BuiltinVADs names the VAD backends voxgate ships. Other names are
// accepted with a warning because a caller may register its own.
var BuiltinVADs = []string{"energy", "webrtc"}

// Load parses and validates the YAML file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default] and
// validates the result. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every inconsistency in cfg at once, joined with
// [errors.Join].
func Validate(cfg *Config) error {
	var errs []error
	errs = append(errs, validateServer(cfg.Server)...)
	errs = append(errs, validateVAD(cfg)...)
	if err := cfg.VoiceCmd().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("recorder: %w", err))
	}
	errs = append(errs, validateOutput(cfg.Output)...)
	return errors.Join(errs...)
}

func validateServer(s ServerConfig) (errs []error) {
	if s.LogLevel != "" && !s.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", s.LogLevel))
	}
	if s.TLS != nil && (s.TLS.CertFile == "") != (s.TLS.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}
	return errs
}

func validateVAD(cfg *Config) (errs []error) {
	entry := cfg.VAD
	if entry.Name == "" && cfg.VoiceCmd().Method.UsesVAD() {
		errs = append(errs, fmt.Errorf("vad.name is required for silence method %q", cfg.Recorder.SilenceMethod))
	}
	warnUnknownVAD(entry.Name)

	seen := map[string]bool{entry.Name: true}
	for _, fb := range entry.Fallbacks {
		switch {
		case fb == "":
			errs = append(errs, errors.New("vad.fallbacks must not contain empty names"))
		case seen[fb]:
			errs = append(errs, fmt.Errorf("vad.fallbacks: %q is listed twice or repeats vad.name", fb))
		default:
			warnUnknownVAD(fb)
		}
		seen[fb] = true
	}
	return errs
}

func validateOutput(out OutputConfig) (errs []error) {
	if out.Type != "" && !out.Type.IsValid() {
		errs = append(errs, fmt.Errorf("output.type %q is invalid; valid values: speech_silence, current_energy, max_current_ratio, none", out.Type))
	}
	if out.ReadSize < 0 {
		errs = append(errs, fmt.Errorf("output.read_size %d must not be negative", out.ReadSize))
	}
	if out.SplitDir != "" {
		switch f := out.SplitFormat; {
		case f == "":
			errs = append(errs, errors.New("output.split_format is required when output.split_dir is set"))
		case !strings.Contains(f, "{index}") && !strings.Contains(f, "{id}"):
			errs = append(errs, fmt.Errorf("output.split_format %q must contain {index} or {id}", f))
		}
	}
	if t := out.Trim; t.Enabled {
		if t.Ratio <= 0 {
			errs = append(errs, fmt.Errorf("output.trim.ratio %g must be > 0", t.Ratio))
		}
		if t.ChunkSize <= 0 || t.ChunkSize%2 != 0 {
			errs = append(errs, fmt.Errorf("output.trim.chunk_size %d must be a positive even number of bytes", t.ChunkSize))
		}
		if t.KeepBefore < 0 || t.KeepAfter < 0 {
			errs = append(errs, errors.New("output.trim.keep_before and keep_after must not be negative"))
		}
	}
	return errs
}

func warnUnknownVAD(name string) {
	if name == "" || slices.Contains(BuiltinVADs, name) {
		return
	}
	slog.Warn("config: unknown vad provider, expecting a custom registration", "name", name, "builtin", BuiltinVADs)
}
