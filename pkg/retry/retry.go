// Package retry provides the bounded retry policy handed to the probe
// primitives. Retries are configuration, not inline loops: a caller passes
// a Config describing attempts and backoff, and Do runs the operation.
//
// Usage:
//
//	err := retry.Do(ctx, retry.DNSConfig(), func(attempt int) error {
//	    return lookup(servers[attempt%len(servers)])
//	})
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/vortexscan/vortex/pkg/defaults"
	"github.com/vortexscan/vortex/pkg/duration"
)

// Strategy defines the backoff algorithm.
type Strategy int

const (
	// Constant uses the same delay between every attempt.
	Constant Strategy = iota
	// Exponential doubles the delay each attempt: InitDelay * 2^attempt.
	Exponential
)

// Config controls retry behaviour.
type Config struct {
	MaxAttempts int           // Total attempts (including the first). Values < 1 mean one attempt.
	InitDelay   time.Duration // Delay before the first retry.
	MaxDelay    time.Duration // Upper bound on any single delay (0 = no bound).
	Strategy    Strategy
	Jitter      bool // Add up to ±25% random jitter to each delay.
}

// DNSConfig is the resolver policy: two attempts with a short constant pause.
func DNSConfig() Config {
	return Config{
		MaxAttempts: defaults.RetryDNS,
		InitDelay:   duration.DNSBackoff,
		MaxDelay:    duration.DNSMaxBackoff,
		Strategy:    Constant,
	}
}

// Once runs the operation a single time.
func Once() Config {
	return Config{MaxAttempts: defaults.RetryNone}
}

// StopError wraps an error to signal that retrying should stop immediately.
// Use it for permanent negatives such as NXDOMAIN.
type StopError struct {
	Err error
}

func (e *StopError) Error() string { return e.Err.Error() }
func (e *StopError) Unwrap() error { return e.Err }

// Stop wraps err so that Do returns it without further attempts.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return &StopError{Err: err}
}

// sleeper lets tests observe delays without waiting.
type sleeper interface {
	sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

func (realSleeper) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn up to cfg.MaxAttempts times, passing the 0-indexed attempt
// number, and sleeps between failures. It returns nil on the first success,
// the unwrapped error of a StopError, ctx.Err() when the context ends while
// waiting, or the last error once attempts are exhausted.
func Do(ctx context.Context, cfg Config, fn func(attempt int) error) error {
	return doWithSleeper(ctx, cfg, fn, realSleeper{})
}

func doWithSleeper(ctx context.Context, cfg Config, fn func(attempt int) error, s sleeper) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}

		var stop *StopError
		if errors.As(lastErr, &stop) {
			return stop.Err
		}

		if attempt < attempts-1 {
			if err := s.sleep(ctx, CalcDelay(cfg, attempt)); err != nil {
				return err
			}
		}
	}
	return lastErr
}

// CalcDelay computes the pause after the given 0-indexed attempt.
func CalcDelay(cfg Config, attempt int) time.Duration {
	delay := cfg.InitDelay
	if cfg.Strategy == Exponential {
		for i := 0; i < attempt; i++ {
			if cfg.MaxDelay > 0 && delay >= cfg.MaxDelay {
				break
			}
			// stop doubling before int64 overflow
			if delay > math.MaxInt64/2 {
				break
			}
			delay *= 2
		}
	}
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	if cfg.Jitter && delay > 0 {
		if quarter := int64(delay) / 4; quarter > 0 {
			j := time.Duration(rand.Int63n(quarter))
			if rand.Intn(2) == 0 {
				delay += j
			} else {
				delay -= j
			}
		}
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return delay
}
