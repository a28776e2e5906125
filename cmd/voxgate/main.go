// Command voxgate segments a 16-bit mono PCM stream into voice commands.
//
// Audio is read from stdin, a raw PCM file or a WAV file. Each captured
// command is logged and, with a split directory, written as its own WAV
// file. With trimming enabled and no split directory, the first command is
// written to stdout as WAV and the program exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/voxgate/internal/config"
	"github.com/MrWong99/voxgate/internal/health"
	"github.com/MrWong99/voxgate/internal/observe"
	"github.com/MrWong99/voxgate/internal/resilience"
	"github.com/MrWong99/voxgate/internal/segment"
	"github.com/MrWong99/voxgate/pkg/provider/vad"
	"github.com/MrWong99/voxgate/pkg/provider/vad/energy"
	"github.com/MrWong99/voxgate/pkg/provider/vad/webrtc"
	"github.com/MrWong99/voxgate/pkg/voicecmd"
)

func main() {
	os.Exit(run())
}

// cliFlags holds command-line overrides applied on top of the config file.
type cliFlags struct {
	configPath string
	input      string
	splitDir   string
	quiet      bool
	debug      bool
	trim       bool
}

func parseFlags(args []string) (cliFlags, error) {
	var f cliFlags
	fs := flag.NewFlagSet("voxgate", flag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "", "path to the YAML configuration file (defaults when empty)")
	fs.StringVar(&f.input, "input", "-", `audio input: raw PCM file, .wav file, or "-" for stdin`)
	fs.StringVar(&f.splitDir, "split-dir", "", "write each voice command as a WAV file into this directory")
	fs.BoolVar(&f.quiet, "quiet", false, "disable progress output")
	fs.BoolVar(&f.debug, "debug", false, "log at debug level")
	fs.BoolVar(&f.trim, "trim", false, "trim silence from captured commands")
	if err := fs.Parse(args); err != nil {
		return cliFlags{}, err
	}
	return f, nil
}

// apply merges the flags into cfg.
func (f cliFlags) apply(cfg *config.Config) {
	if f.splitDir != "" {
		cfg.Output.SplitDir = f.splitDir
	}
	if f.trim {
		cfg.Output.Trim.Enabled = true
	}
	if f.debug {
		cfg.Server.LogLevel = config.LogDebug
	}
	if f.quiet || (cfg.Output.Trim.Enabled && cfg.Output.SplitDir == "") {
		// stdout carries the trimmed WAV in the latter case
		cfg.Output.Type = config.OutputNone
	}
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	var level slog.LevelVar
	slog.SetDefault(newLogger(&level))

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, watcher, err := loadConfig(flags, &level)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voxgate: config file %q not found\n", flags.configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voxgate: %v\n", err)
		}
		return 1
	}
	if watcher != nil {
		defer watcher.Stop()
	}
	level.Set(cfg.Server.LogLevel.SlogLevel())

	slog.Info("voxgate starting",
		"config", flags.configPath,
		"input", flags.input,
		"vad", cfg.VAD.Name,
		"silence_method", cfg.Recorder.SilenceMethod,
		"split_dir", cfg.Output.SplitDir,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── VAD provider ──────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	rcfg := cfg.VoiceCmd()
	var engine vad.Engine
	if rcfg.Method.UsesVAD() {
		engine, err = buildVAD(reg, cfg.VAD)
		if err != nil {
			slog.Error("failed to create vad provider", "name", cfg.VAD.Name, "err", err)
			return 1
		}
	}

	rec, err := voicecmd.NewRecorder(rcfg, engine)
	if err != nil {
		slog.Error("failed to create recorder", "err", err)
		return 1
	}
	defer rec.Close()

	// ── Input ─────────────────────────────────────────────────────────────────
	input, err := openInput(flags.input, rcfg.Format())
	if err != nil {
		slog.Error("failed to open input", "err", err)
		return 1
	}
	defer input.Close()

	// ── Segmenter ─────────────────────────────────────────────────────────────
	inputReady := health.NewFlag("input", true)
	sg := segment.New(rec, segmenterOptions(cfg)...)

	var srv *http.Server
	if cfg.Server.ListenAddr != "" {
		checks := []health.Checker{inputReady.Checker()}
		if engine != nil {
			checks = append(checks, health.VADSession("vad", engine, rcfg.VADConfig()))
		}
		srv = newServer(cfg.Server.ListenAddr, health.New(checks...))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer inputReady.Set(false)
		err := sg.Run(gctx, input)
		if srv != nil {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if serr := srv.Shutdown(sctx); serr != nil {
				slog.Warn("http shutdown error", "err", serr)
			}
		}
		return err
	})
	if srv != nil {
		g.Go(func() error {
			return serve(srv, cfg.Server.TLS)
		})
	}

	err = g.Wait()
	slog.Info("segmentation finished", "captured", sg.Captured(), "failed", sg.Failures())
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	return 0
}

// loadConfig returns the effective configuration. With a config path the
// file is watched and log level changes are applied to level as they appear.
func loadConfig(flags cliFlags, level *slog.LevelVar) (*config.Config, *config.Watcher, error) {
	if flags.configPath == "" {
		cfg := config.Default()
		flags.apply(cfg)
		return cfg, nil, config.Validate(cfg)
	}

	w, err := config.NewWatcher(flags.configPath, func(old, new *config.Config) {
		diff := config.Diff(old, new)
		if diff.LogLevelChanged && !flags.debug {
			level.Set(diff.NewLogLevel.SlogLevel())
			slog.Info("log level changed", "level", diff.NewLogLevel)
		}
		if diff.RequiresRestart() {
			slog.Warn("config changed; restart voxgate to apply",
				"recorder", diff.RecorderChanged,
				"vad", diff.VADChanged,
				"output", diff.OutputChanged,
				"server", diff.ServerChanged,
			)
		}
	})
	if err != nil {
		return nil, nil, err
	}
	cfg := *w.Current()
	flags.apply(&cfg)
	if err := config.Validate(&cfg); err != nil {
		w.Stop()
		return nil, nil, err
	}
	return &cfg, w, nil
}

func segmenterOptions(cfg *config.Config) []segment.Option {
	opts := []segment.Option{
		segment.WithReadSize(cfg.Output.ReadSize),
		segment.WithProvider(cfg.VAD.Name),
		segment.WithProgress(segment.NewProgress(os.Stdout, cfg.Output.Type, cfg.Recorder.MaxEnergy)),
		segment.WithSink(segment.LogSink{}),
	}
	if cfg.Output.Trim.Enabled {
		opts = append(opts, segment.WithTrim(cfg.Output.Trim.Options()))
	}
	switch {
	case cfg.Output.SplitDir != "":
		opts = append(opts, segment.WithSink(&segment.DirSink{
			Dir:    cfg.Output.SplitDir,
			Format: cfg.Output.SplitFormat,
		}))
	case cfg.Output.Trim.Enabled:
		opts = append(opts,
			segment.WithSink(&segment.WriterSink{W: os.Stdout}),
			segment.WithLimit(1),
		)
	}
	return opts
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires the VAD backends that ship with voxgate.
func registerBuiltinProviders(reg *config.Registry) {
	reg.RegisterVAD("webrtc", func(config.ProviderEntry) (vad.Engine, error) {
		return webrtc.New(), nil
	})

	reg.RegisterVAD("energy", func(entry config.ProviderEntry) (vad.Engine, error) {
		var opts []energy.Option
		if t, ok, err := entry.OptionFloat("threshold"); err != nil {
			return nil, err
		} else if ok {
			opts = append(opts, energy.WithThreshold(t))
		}
		if r, ok, err := entry.OptionFloat("release"); err != nil {
			return nil, err
		} else if ok {
			opts = append(opts, energy.WithRelease(r))
		}
		return energy.New(opts...), nil
	})

	for _, name := range reg.VADNames() {
		slog.Debug("registered provider", "kind", "vad", "name", name)
	}
}

// buildVAD creates the engine named by entry. With fallbacks configured the
// engines are chained behind a [resilience.VADFailover].
func buildVAD(reg *config.Registry, entry config.ProviderEntry) (vad.Engine, error) {
	primary, err := reg.CreateVAD(entry)
	if err != nil {
		return nil, fmt.Errorf("create vad provider %q: %w", entry.Name, err)
	}
	slog.Info("provider created", "kind", "vad", "name", entry.Name)
	if len(entry.Fallbacks) == 0 {
		return primary, nil
	}

	fo := resilience.NewVADFailover(entry.Name, primary, resilience.BreakerConfig{})
	for _, name := range entry.Fallbacks {
		e, err := reg.CreateVAD(entry.Fallback(name))
		if err != nil {
			return nil, fmt.Errorf("create vad fallback %q: %w", name, err)
		}
		fo.Add(name, e)
		slog.Info("provider created", "kind", "vad", "name", name, "fallback", true)
	}
	return fo, nil
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level *slog.LevelVar) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
