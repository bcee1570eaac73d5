// Package retry runs provider calls under a bounded exponential-backoff policy.
//
// Rate-limit responses (429) are always retried; transient failures are retried only
// when the caller opts in. Every attempt runs under its own timeout and the parent
// context is checked between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpclient "growth-forecast/internal/common/http"
)

type Decision int

const (
	Fail Decision = iota
	Retry
)

const (
	DefaultMaxAttempts    = 3
	DefaultBaseDelay      = time.Second
	DefaultAttemptTimeout = 30 * time.Second
)

// FatalError is returned once the policy gives up. Cause is the last failure seen.
type FatalError struct {
	Attempts int
	Cause    error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("gave up after %d attempt(s): %v", e.Attempts, e.Cause)
}

func (e *FatalError) Unwrap() error {
	return e.Cause
}

// RateLimited reports whether the final failure was a 429.
func (e *FatalError) RateLimited() bool {
	return httpclient.StatusCode(e.Cause) == http.StatusTooManyRequests
}

type Policy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	AttemptTimeout time.Duration
	RetryTransient bool
	Classify       func(err error) Decision
	Sleep          func(ctx context.Context, d time.Duration) error
	OnRetry        func(attempt int, err error, wait time.Duration)
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    DefaultMaxAttempts,
		BaseDelay:      DefaultBaseDelay,
		AttemptTimeout: DefaultAttemptTimeout,
	}
}

// Backoff is the wait after a failed attempt (1-based): BaseDelay * 2^attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(1<<uint(attempt))
}

func (p Policy) classify(err error) Decision {
	if p.Classify != nil {
		return p.Classify(err)
	}
	if errors.Is(err, context.Canceled) {
		return Fail
	}
	if httpclient.StatusCode(err) == http.StatusTooManyRequests {
		return Retry
	}
	if p.RetryTransient && httpclient.IsTransient(err) {
		return Retry
	}
	return Fail
}

// Do calls fn until it succeeds, the classifier says Fail, attempts run out or ctx ends.
// Every failure path returns *FatalError.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			return zero, &FatalError{Attempts: attempt - 1, Cause: lastErr}
		}

		result, err := runAttempt(ctx, p.AttemptTimeout, fn)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if p.classify(err) == Fail || attempt == maxAttempts {
			return zero, &FatalError{Attempts: attempt, Cause: err}
		}

		wait := p.Backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return zero, &FatalError{Attempts: attempt, Cause: lastErr}
		}
	}

	return zero, &FatalError{Attempts: maxAttempts, Cause: lastErr}
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
