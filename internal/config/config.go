// Package config provides the configuration schema, loader, hot-reload
// watcher and VAD provider registry for voxgate.
package config

import (
	"log/slog"
	"time"

	"github.com/MrWong99/voxgate/pkg/provider/vad"
	"github.com/MrWong99/voxgate/pkg/voicecmd"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// SlogLevel maps l to a slog level. Unknown and empty levels map to info.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// OutputType selects the progress rendering written while segmenting.
type OutputType string

const (
	// OutputSpeechSilence prints event symbols followed by '!' or '.' for
	// the last speech decision of every block.
	OutputSpeechSilence OutputType = "speech_silence"

	// OutputCurrentEnergy prints the debiased energy of every block.
	OutputCurrentEnergy OutputType = "current_energy"

	// OutputMaxCurrentRatio prints the running max/current energy ratio.
	OutputMaxCurrentRatio OutputType = "max_current_ratio"

	// OutputNone prints nothing.
	OutputNone OutputType = "none"
)

// IsValid reports whether o is a recognised output type.
func (o OutputType) IsValid() bool {
	switch o {
	case OutputSpeechSilence, OutputCurrentEnergy, OutputMaxCurrentRatio, OutputNone:
		return true
	}
	return false
}

// Config is the root configuration structure for voxgate.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Recorder RecorderConfig `yaml:"recorder"`
	VAD      ProviderEntry  `yaml:"vad"`
	Output   OutputConfig   `yaml:"output"`
}

// ServerConfig holds logging and the optional HTTP listener settings.
type ServerConfig struct {
	// ListenAddr is the TCP address serving /metrics, /healthz and /readyz
	// (e.g., ":9090"). Empty disables the listener.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the listener. When nil, it runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProviderEntry selects a VAD backend registered in the [Registry].
type ProviderEntry struct {
	// Name selects the registered implementation ("webrtc", "energy").
	Name string `yaml:"name"`

	// Mode is the detector aggressiveness, 1 through 3.
	Mode int `yaml:"mode"`

	// Options holds backend-specific values, e.g. "threshold" for the energy
	// gate.
	Options map[string]any `yaml:"options"`

	// Fallbacks names backends tried in order when Name cannot open a
	// session. They share Mode and Options.
	Fallbacks []string `yaml:"fallbacks"`
}

// Fallback returns the entry for the fallback backend name.
func (e ProviderEntry) Fallback(name string) ProviderEntry {
	return ProviderEntry{Name: name, Mode: e.Mode, Options: e.Options}
}

// RecorderConfig mirrors [voicecmd.Config] in YAML form. Durations are Go
// duration strings such as "300ms".
type RecorderConfig struct {
	SampleRate       int           `yaml:"sample_rate"`
	ChunkSize        int           `yaml:"chunk_size"`
	Skip             time.Duration `yaml:"skip"`
	MinPhrase        time.Duration `yaml:"min_phrase"`
	MaxPhrase        time.Duration `yaml:"max_phrase"`
	Speech           time.Duration `yaml:"speech"`
	Silence          time.Duration `yaml:"silence"`
	Before           time.Duration `yaml:"before"`
	SilenceMethod    string        `yaml:"silence_method"`
	CurrentThreshold float64       `yaml:"current_threshold"`
	MaxEnergy        float64       `yaml:"max_energy"`
	RatioThreshold   float64       `yaml:"ratio_threshold"`
}

// ToVoiceCmd converts r to a recorder configuration using mode as the VAD
// aggressiveness. The silence method is normalised; an unknown name is kept
// verbatim so that [voicecmd.Config.Validate] reports it.
func (r RecorderConfig) ToVoiceCmd(mode int) voicecmd.Config {
	method, err := voicecmd.ParseSilenceMethod(r.SilenceMethod)
	if err != nil {
		method = voicecmd.SilenceMethod(r.SilenceMethod)
	}
	return voicecmd.Config{
		SampleRate:       r.SampleRate,
		ChunkSize:        r.ChunkSize,
		VADMode:          vad.Mode(mode),
		Skip:             r.Skip,
		MinPhrase:        r.MinPhrase,
		MaxPhrase:        r.MaxPhrase,
		Speech:           r.Speech,
		Silence:          r.Silence,
		Before:           r.Before,
		Method:           method,
		CurrentThreshold: r.CurrentThreshold,
		MaxEnergy:        r.MaxEnergy,
		RatioThreshold:   r.RatioThreshold,
	}
}

// VoiceCmd returns the recorder configuration described by c.
func (c *Config) VoiceCmd() voicecmd.Config {
	return c.Recorder.ToVoiceCmd(c.VAD.Mode)
}

// OutputConfig controls progress rendering, splitting and trimming.
type OutputConfig struct {
	// Type selects the progress rendering.
	Type OutputType `yaml:"type"`

	// SplitDir, when set, receives one WAV file per captured command.
	SplitDir string `yaml:"split_dir"`

	// SplitFormat names the files in SplitDir. "{index}" expands to the
	// zero-based command index and "{id}" to the attempt ID.
	SplitFormat string `yaml:"split_format"`

	// ReadSize is the number of bytes read from the input per block.
	// Zero means one recorder chunk.
	ReadSize int `yaml:"read_size"`

	// Trim strips silence from captured commands before they are written.
	Trim TrimConfig `yaml:"trim"`
}

// TrimConfig mirrors [voicecmd.TrimOptions].
type TrimConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Ratio      float64 `yaml:"ratio"`
	ChunkSize  int     `yaml:"chunk_size"`
	KeepBefore int     `yaml:"keep_before"`
	KeepAfter  int     `yaml:"keep_after"`
}

// Options converts t to trimmer options.
func (t TrimConfig) Options() voicecmd.TrimOptions {
	return voicecmd.TrimOptions{
		ChunkSize:      t.ChunkSize,
		RatioThreshold: t.Ratio,
		KeepBefore:     t.KeepBefore,
		KeepAfter:      t.KeepAfter,
	}
}

// Default returns the configuration used for keys absent from the YAML
// document.
func Default() *Config {
	rc := voicecmd.DefaultConfig()
	trim := voicecmd.DefaultTrimOptions()
	return &Config{
		Server: ServerConfig{LogLevel: LogInfo},
		Recorder: RecorderConfig{
			SampleRate:    rc.SampleRate,
			ChunkSize:     rc.ChunkSize,
			Skip:          rc.Skip,
			MinPhrase:     rc.MinPhrase,
			MaxPhrase:     rc.MaxPhrase,
			Speech:        rc.Speech,
			Silence:       rc.Silence,
			Before:        rc.Before,
			SilenceMethod: string(rc.Method),
		},
		VAD: ProviderEntry{Name: "webrtc", Mode: int(rc.VADMode)},
		Output: OutputConfig{
			Type:        OutputSpeechSilence,
			SplitFormat: "{index}.wav",
			Trim: TrimConfig{
				Ratio:     trim.RatioThreshold,
				ChunkSize: trim.ChunkSize,
			},
		},
	}
}
