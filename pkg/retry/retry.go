// Package retry provides bounded retries with exponential backoff and jitter.
// Used for resilient calls to external services (the tip generator API).
// No external dependencies - uses only standard library.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Permanent wraps an error so Do stops retrying and returns it immediately.
type Permanent struct {
	Err error
}

func (p *Permanent) Error() string { return p.Err.Error() }

func (p *Permanent) Unwrap() error { return p.Err }

// Stop marks an error as permanent (not worth retrying).
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return &Permanent{Err: err}
}

// IsPermanent reports whether err was marked with Stop.
func IsPermanent(err error) bool {
	var p *Permanent
	return errors.As(err, &p)
}

// Config controls the retry loop.
type Config struct {
	// Attempts is the total number of attempts, including the first.
	Attempts int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration

	// Jitter is the random fraction (0..1) added to each delay.
	Jitter float64

	// OnRetry, if set, is called before each retry with the attempt
	// number (1-based) and the error that triggered it.
	OnRetry func(attempt int, err error)
}

// DefaultConfig returns sensible defaults for short HTTP calls.
func DefaultConfig() Config {
	return Config{
		Attempts:  3,
		BaseDelay: 200 * time.Millisecond,
		MaxDelay:  5 * time.Second,
		Jitter:    0.2,
	}
}

// Do runs fn until it succeeds, exhausts cfg.Attempts, returns a permanent
// error, or ctx is done. The last error is returned on failure.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}

	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		var p *Permanent
		if errors.As(lastErr, &p) {
			return p.Err
		}

		if attempt == cfg.Attempts {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, lastErr)
		}

		wait := delay
		if cfg.Jitter > 0 {
			wait += time.Duration(rand.Float64() * cfg.Jitter * float64(delay))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay *= 2
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return lastErr
}
