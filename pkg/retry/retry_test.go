package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "read timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, MinWait: time.Millisecond, MaxWait: 2 * time.Millisecond}
}

func TestDoRetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	var retried []int
	p := fastPolicy(2)
	p.OnRetry = func(attempt int, err error) { retried = append(retried, attempt) }

	err := Do(context.Background(), p, func(context.Context) error {
		calls++
		if calls == 1 {
			return timeoutErr{}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []int{1}, retried)
}

func TestDoReturnsOriginalErrorWhenExhausted(t *testing.T) {
	original := fmt.Errorf("select customers: %w", timeoutErr{})
	calls := 0

	err := Do(context.Background(), fastPolicy(2), func(context.Context) error {
		calls++
		return original
	})

	assert.Equal(t, 2, calls)
	assert.Same(t, original, err)
}

func TestDoDoesNotRetryPermanentErrors(t *testing.T) {
	permanent := errors.New("unique violation")
	calls := 0

	err := Do(context.Background(), fastPolicy(3), func(context.Context) error {
		calls++
		return permanent
	})

	assert.Equal(t, 1, calls)
	assert.Same(t, permanent, err)
}

func TestDoAlwaysRetriesWithCustomPredicate(t *testing.T) {
	p := fastPolicy(2)
	p.Retryable = Always
	calls := 0

	err := Do(context.Background(), p, func(context.Context) error {
		calls++
		return errors.New("llm unavailable")
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestValueReturnsResult(t *testing.T) {
	got, err := Value(context.Background(), fastPolicy(2), func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.True(t, IsTransient(fmt.Errorf("wrapped: %w", timeoutErr{})))
	assert.False(t, IsTransient(context.Canceled))
	assert.False(t, IsTransient(errors.New("boom")))
	assert.False(t, IsTransient(nil))
}
