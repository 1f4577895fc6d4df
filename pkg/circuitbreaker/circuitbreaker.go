// Package circuitbreaker implements a minimal circuit breaker guarding the
// metered tip-generator API. When the upstream keeps failing, the breaker
// opens and callers fall back to the local heuristic path immediately instead
// of waiting out another timeout. No external dependencies.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned while the breaker is open and calls are short-circuited.
var ErrOpen = errors.New("circuitbreaker: open")

// State of the breaker.
type State int

const (
	// Closed lets all calls through.
	Closed State = iota
	// Open short-circuits every call.
	Open
	// HalfOpen lets a single probe call through.
	HalfOpen
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker tracks consecutive failures and trips after a threshold.
type Breaker struct {
	mu          sync.Mutex
	state       State
	failures    int
	openedAt    time.Time
	probeActive bool

	threshold int
	cooldown  time.Duration
	onChange  func(from, to State)
}

// New creates a Breaker that opens after threshold consecutive failures and
// probes again after cooldown. onChange may be nil.
func New(threshold int, cooldown time.Duration, onChange func(from, to State)) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		threshold: threshold,
		cooldown:  cooldown,
		onChange:  onChange,
	}
}

// State returns the current state, accounting for cooldown expiry.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && time.Since(b.openedAt) >= b.cooldown {
		return HalfOpen
	}
	return b.state
}

// Do runs fn if the breaker allows it. In the open state it returns ErrOpen
// without invoking fn. In the half-open state exactly one probe runs; its
// outcome closes or re-opens the breaker.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}

	err := fn(ctx)
	b.record(err)
	return err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return nil
	case Open:
		if time.Since(b.openedAt) < b.cooldown {
			return ErrOpen
		}
		b.transition(HalfOpen)
		b.probeActive = true
		return nil
	case HalfOpen:
		if b.probeActive {
			return ErrOpen
		}
		b.probeActive = true
		return nil
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == HalfOpen {
		b.probeActive = false
		if err != nil {
			b.openedAt = time.Now()
			b.transition(Open)
		} else {
			b.failures = 0
			b.transition(Closed)
		}
		return
	}

	if err == nil {
		b.failures = 0
		return
	}

	b.failures++
	if b.failures >= b.threshold && b.state == Closed {
		b.openedAt = time.Now()
		b.transition(Open)
	}
}

// transition must be called with the mutex held.
func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.onChange != nil {
		b.onChange(from, to)
	}
}
