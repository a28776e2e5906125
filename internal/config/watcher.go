package config

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// DefaultWatchInterval is how often a [Watcher] stats its file.
const DefaultWatchInterval = 5 * time.Second

// snapshot is one accepted version of the watched file.
type snapshot struct {
	cfg     *Config
	sum     [sha256.Size]byte
	modTime time.Time
}

// Watcher keeps the config of a YAML file current. It polls the file's
// modification time and reparses on change; a version that fails validation
// is logged and the previous one stays in effect.
type Watcher struct {
	path     string
	interval time.Duration
	onChange func(old, new *Config)

	mu   sync.RWMutex
	snap snapshot

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval overrides [DefaultWatchInterval]. Non-positive values are
// ignored.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher reads path, failing if it is not a valid config, and then
// watches it until Stop. onChange, if set, runs on the polling goroutine
// after each accepted edit.
func NewWatcher(path string, onChange func(old, new *Config), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{path: path, interval: DefaultWatchInterval, onChange: onChange}
	for _, opt := range opts {
		opt(w)
	}

	snap, err := readSnapshot(path)
	if err != nil {
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	w.snap = snap

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop(ctx)
	}()
	return w, nil
}

// Current returns the config in effect.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snap.cfg
}

// Stop ends polling and waits for an in-flight onChange to return. Further
// calls are no-ops.
func (w *Watcher) Stop() {
	w.cancel()
	w.wg.Wait()
}

func (w *Watcher) loop(ctx context.Context) {
	tick := time.NewTicker(w.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			w.refresh()
		}
	}
}

// refresh reloads the file if its mtime moved and its content differs from
// the accepted snapshot.
func (w *Watcher) refresh() {
	log := slog.With("path", w.path)

	info, err := os.Stat(w.path)
	if err != nil {
		log.Warn("config watcher: stat failed", "err", err)
		return
	}
	w.mu.RLock()
	prev := w.snap
	w.mu.RUnlock()
	if info.ModTime().Equal(prev.modTime) {
		return
	}

	next, err := readSnapshot(w.path)
	if err != nil {
		log.Warn("config watcher: rejected edit, previous config stays", "err", err)
		return
	}

	w.mu.Lock()
	w.snap.modTime = next.modTime
	unchanged := bytes.Equal(next.sum[:], prev.sum[:])
	if !unchanged {
		w.snap = next
	}
	w.mu.Unlock()
	if unchanged {
		return
	}

	log.Info("config watcher: reloaded")
	if w.onChange != nil {
		w.onChange(prev.cfg, next.cfg)
	}
}

func readSnapshot(path string) (snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return snapshot{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return snapshot{}, err
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return snapshot{}, err
	}
	return snapshot{cfg: cfg, sum: sha256.Sum256(data), modTime: info.ModTime()}, nil
}
