package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrExhausted is returned when no candidate of a [Failover] could serve.
var ErrExhausted = errors.New("resilience: every backend failed")

type candidate[T any] struct {
	name    string
	backend T
	breaker *Breaker
}

// Failover tries backends of one kind in registration order, skipping those
// whose breaker is open.
type Failover[T any] struct {
	cfg BreakerConfig

	mu         sync.RWMutex
	candidates []candidate[T]
	last       string
}

// NewFailover returns a Failover with primary as its preferred backend. cfg
// is the template for every candidate's breaker; its Name is replaced.
func NewFailover[T any](name string, primary T, cfg BreakerConfig) *Failover[T] {
	f := &Failover[T]{cfg: cfg}
	f.Add(name, primary)
	return f
}

// Add appends a backend that is tried after every earlier one.
func (f *Failover[T]) Add(name string, backend T) {
	cfg := f.cfg
	cfg.Name = name
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candidates = append(f.candidates, candidate[T]{name: name, backend: backend, breaker: NewBreaker(cfg)})
}

// Names returns the candidate names in order.
func (f *Failover[T]) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, len(f.candidates))
	for i, c := range f.candidates {
		names[i] = c.name
	}
	return names
}

// Last returns the name of the backend that served the latest successful
// call, or "" before the first one.
func (f *Failover[T]) Last() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.last
}

// Call runs fn against the candidates of f in order and returns the first
// successful result. Go methods cannot declare type parameters, hence the
// function form.
func Call[T, R any](f *Failover[T], fn func(T) (R, error)) (R, error) {
	f.mu.RLock()
	candidates := f.candidates
	f.mu.RUnlock()

	var (
		zero R
		errs []error
	)
	for _, c := range candidates {
		var res R
		err := c.breaker.Do(func() error {
			var err error
			res, err = fn(c.backend)
			return err
		})
		if err == nil {
			f.mu.Lock()
			f.last = c.name
			f.mu.Unlock()
			return res, nil
		}
		if errors.Is(err, ErrOpen) {
			slog.Debug("backend skipped, breaker open", "backend", c.name)
		} else {
			slog.Warn("backend failed, trying next", "backend", c.name, "err", err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
	}
	return zero, fmt.Errorf("%w: %w", ErrExhausted, errors.Join(errs...))
}
