// Package retry wraps sethvargo/go-retry with the bounded, exponential policy used around
// repository calls and graph node executions.
package retry

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	goretry "github.com/sethvargo/go-retry"
)

const (
	defaultAttempts = 2
	defaultMinWait  = time.Second
	defaultMaxWait  = 5 * time.Second
)

// Policy bounds how many times a call is attempted and how long to wait in between.
type Policy struct {
	// Attempts is the total number of calls, including the first one.
	Attempts int
	MinWait  time.Duration
	MaxWait  time.Duration
	// Retryable decides whether a failure is worth another attempt. Nil means IsTransient.
	Retryable func(error) bool
	// OnRetry is invoked before each re-attempt with the attempt number that failed.
	OnRetry func(attempt int, err error)
}

// Default mirrors the repository policy: two attempts, 1s..5s exponential wait, transient errors only.
func Default() Policy {
	return Policy{Attempts: defaultAttempts, MinWait: defaultMinWait, MaxWait: defaultMaxWait}
}

// None performs a single attempt.
func None() Policy {
	return Policy{Attempts: 1}
}

// Do runs fn under the policy. When attempts are exhausted, or the failure is not retryable,
// the error returned by fn itself is surfaced rather than a wrapper.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	attempt := 0
	var last error
	err := goretry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			last = nil
			return nil
		}
		last = err
		if attempt >= p.attempts() || !p.retryable(err) {
			return err
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		return goretry.RetryableError(err)
	})
	if err == nil {
		return nil
	}
	if last != nil {
		return last
	}
	return err
}

// Value is Do for calls that produce a result.
func Value[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Do(ctx, p, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// Always treats every error as retryable.
func Always(error) bool { return true }

// IsTransient reports timeout-class failures: deadline expiries, network timeouts, broken
// pooled connections, and Postgres timeouts.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return pgconn.Timeout(err)
}

func (p Policy) attempts() int {
	if p.Attempts <= 0 {
		return defaultAttempts
	}
	return p.Attempts
}

func (p Policy) retryable(err error) bool {
	if p.Retryable == nil {
		return IsTransient(err)
	}
	return p.Retryable(err)
}

func (p Policy) backoff() goretry.Backoff {
	minWait := p.MinWait
	if minWait <= 0 {
		minWait = time.Millisecond
	}
	b := goretry.NewExponential(minWait)
	if p.MaxWait > 0 {
		b = goretry.WithCappedDuration(p.MaxWait, b)
	}
	return goretry.WithMaxRetries(uint64(p.attempts()-1), b)
}
