// Package retry wraps a function with exponential-backoff retry on store
// contention, grounded on the retry shape used by
// internal/storage/dolt/store.go in the beads repository: a fresh
// backoff.BackOff per call, a cap on the number of retries (not on elapsed
// time), and a predicate that decides which errors are worth retrying.
package retry

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Defaults per spec.md §4.6.
const (
	DefaultBaseDelay  = 50 * time.Millisecond
	DefaultMaxDelay   = 2 * time.Second
	DefaultMaxRetries = 3
)

// Options configures Do. The zero value uses the package defaults.
type Options struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	MaxRetries int
}

func (o Options) withDefaults() Options {
	if o.BaseDelay <= 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = DefaultMaxDelay
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	return o
}

// IsBusy reports whether err's message indicates SQLite contention — the
// only error class this package retries.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "database is locked")
}

// Do runs fn, retrying with exponential backoff whenever fn's error is a
// store-busy condition (per IsBusy). Any other error propagates
// immediately without retry. Once MaxRetries retries have also failed busy
// (MaxRetries+1 calls in all), the last busy error propagates.
func Do(ctx context.Context, opts Options, fn func() error) error {
	opts = opts.withDefaults()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = opts.BaseDelay
	bo.MaxInterval = opts.MaxDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0 // bounded by MaxRetries instead of wall-clock

	var lastErr error
	attempt := 0
	for {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsBusy(err) {
			return err
		}
		lastErr = err
		attempt++
		if attempt > opts.MaxRetries {
			return lastErr
		}

		delay := bo.NextBackOff()
		if delay == backoff.Stop {
			return lastErr
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

