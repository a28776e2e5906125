// Package resilience lets voxgate keep segmenting when its preferred VAD
// backend cannot serve, for example a WebRTC detector in a build without cgo.
//
// [Breaker] stops calling a backend after repeated failures and probes it
// again after a cooldown. [Failover] orders several backends of one kind,
// each behind its own breaker, and [VADFailover] applies it to
// [vad.Engine] session creation.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned by [Breaker.Do] while the breaker rejects calls.
var ErrOpen = errors.New("resilience: breaker open")

// State is the operating mode of a [Breaker].
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota

	// StateOpen rejects calls until the cooldown has elapsed.
	StateOpen

	// StateProbing lets a bounded number of trial calls through after the
	// cooldown. One failure re-opens the breaker; enough successes close it.
	StateProbing
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateProbing:
		return "probing"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a [Breaker]. Zero fields take the defaults.
type BreakerConfig struct {
	// Name labels log lines.
	Name string

	// Threshold is the number of consecutive failures that opens the
	// breaker. Default: 3.
	Threshold int

	// Cooldown is how long an open breaker rejects calls. Default: 30s.
	Cooldown time.Duration

	// Probes is the number of successful trial calls that closes a probing
	// breaker. Default: 1.
	Probes int
}

// Breaker is a consecutive-failure circuit breaker.
type Breaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	inFlight int
	passed   int
}

// NewBreaker returns a closed breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.Probes <= 0 {
		cfg.Probes = 1
	}
	return &Breaker{cfg: cfg, now: time.Now}
}

// Do calls fn unless the breaker is open, and records its outcome.
func (b *Breaker) Do(fn func() error) error {
	probe, err := b.admit()
	if err != nil {
		return err
	}
	err = fn()
	b.record(probe, err)
	return err
}

func (b *Breaker) admit() (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return false, ErrOpen
		}
		b.state = StateProbing
		b.inFlight, b.passed = 0, 0
		slog.Info("breaker probing", "name", b.cfg.Name)
	}
	if b.state == StateProbing {
		if b.inFlight+b.passed >= b.cfg.Probes {
			return false, ErrOpen
		}
		b.inFlight++
		return true, nil
	}
	return false, nil
}

func (b *Breaker) record(probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if probe {
		b.inFlight--
	}
	if err != nil {
		b.failures++
		if probe || b.failures >= b.cfg.Threshold {
			b.trip()
		}
		return
	}

	b.failures = 0
	if probe && b.state == StateProbing {
		b.passed++
		if b.passed >= b.cfg.Probes {
			b.state = StateClosed
			slog.Info("breaker closed", "name", b.cfg.Name)
		}
	}
}

// trip opens the breaker. b.mu must be held.
func (b *Breaker) trip() {
	if b.state != StateOpen {
		slog.Warn("breaker opened", "name", b.cfg.Name, "consecutive_failures", b.failures)
	}
	b.state = StateOpen
	b.openedAt = b.now()
}

// State reports the current mode. An open breaker whose cooldown has elapsed
// reports [StateProbing]; the transition itself happens on the next call.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		return StateProbing
	}
	return b.state
}
