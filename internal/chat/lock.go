package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultThreadLockTTL = 2 * time.Minute

// ThreadLock serialises turns on one thread across processes.
type ThreadLock interface {
	// Acquire reports whether the caller now owns threadID. The returned release func is
	// non-nil only when ok is true.
	Acquire(ctx context.Context, threadID string) (release func(context.Context) error, ok bool, err error)
}

// lockStore defines the operations used by RedisThreadLock.
type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	ThreadLockKey(threadID string) string
}

// RedisThreadLock implements ThreadLock using Redis SETNX + TTL. The TTL bounds how long a
// crashed turn can hold a thread.
type RedisThreadLock struct {
	client lockStore
	ttl    time.Duration
}

// NewRedisThreadLock constructs a Redis-backed thread lock.
func NewRedisThreadLock(client lockStore, ttl time.Duration) (*RedisThreadLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for thread lock")
	}
	if ttl <= 0 {
		ttl = defaultThreadLockTTL
	}
	return &RedisThreadLock{client: client, ttl: ttl}, nil
}

func (l *RedisThreadLock) Acquire(ctx context.Context, threadID string) (func(context.Context) error, bool, error) {
	if threadID == "" {
		return nil, false, errors.New("thread id is required")
	}
	key := l.client.ThreadLockKey(threadID)
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, owner, l.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("setnx: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	return func(ctx context.Context) error { return l.release(ctx, key, owner) }, true, nil
}

// release frees the lock only if the owner value still matches.
func (l *RedisThreadLock) release(ctx context.Context, key, owner string) error {
	value, err := l.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != owner {
		return nil
	}
	if err := l.client.Del(ctx, key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	return nil
}
