package config

import "reflect"

// ConfigDiff describes what changed between two configs. Only the log level
// can be applied to a running process; every other change is reported so
// the caller can ask for a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	RecorderChanged bool
	VADChanged      bool
	OutputChanged   bool
	ServerChanged   bool
}

// RequiresRestart reports whether any change cannot be applied live.
func (d ConfigDiff) RequiresRestart() bool {
	return d.RecorderChanged || d.VADChanged || d.OutputChanged || d.ServerChanged
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	d.ServerChanged = old.Server.ListenAddr != new.Server.ListenAddr ||
		!reflect.DeepEqual(old.Server.TLS, new.Server.TLS)
	d.RecorderChanged = old.Recorder != new.Recorder
	d.VADChanged = !reflect.DeepEqual(old.VAD, new.VAD)
	d.OutputChanged = old.Output != new.Output

	return d
}
