// SPDX-License-Identifier: MIT

// Package retry bounds transient-failure handling for upstream calls. The
// sign-in and resolution paths share it instead of duplicating backoff loops.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Do gives up immediately instead of retrying.
// Business-logic rejections (bad credentials) go through here; transient
// network failures do not.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Backoff maps an attempt number (1-based for the first retry) to a sleep
// duration.
type Backoff func(attempt int) time.Duration

// Exponential returns base*2^attempt: with a one-second base the first retry
// waits 2s, the second 4s.
func Exponential(base time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return base * time.Duration(1<<attempt)
	}
}

// Do runs op up to attempts times, sleeping according to backoff between
// tries. The sleep happens inside the calling goroutine; sibling workers are
// unaffected. A context cancellation aborts the wait. A Permanent-wrapped
// error is returned unwrapped without further attempts.
func Do(ctx context.Context, attempts int, backoff Backoff, op func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err := op(ctx)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err
	}
	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
