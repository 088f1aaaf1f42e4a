package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLockStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemoryLockStore() *memoryLockStore {
	return &memoryLockStore{keys: map[string]string{}}
}

func (s *memoryLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return false, nil
	}
	s.keys[key] = value.(string)
	return true, nil
}

func (s *memoryLockStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.keys[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (s *memoryLockStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.keys, k)
	}
	return nil
}

func (s *memoryLockStore) ThreadLockKey(threadID string) string {
	return "lock:" + threadID
}

func TestRedisThreadLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	lock, err := NewRedisThreadLock(newMemoryLockStore(), 0)
	require.NoError(t, err)

	release, ok, err := lock.Acquire(ctx, "t1")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = lock.Acquire(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = lock.Acquire(ctx, "t2")
	require.NoError(t, err)
	assert.True(t, ok, "other threads are independent")

	require.NoError(t, release(ctx))
	_, ok, err = lock.Acquire(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisThreadLockReleaseChecksOwner(t *testing.T) {
	ctx := context.Background()
	store := newMemoryLockStore()
	lock, err := NewRedisThreadLock(store, time.Minute)
	require.NoError(t, err)

	release, ok, err := lock.Acquire(ctx, "t1")
	require.NoError(t, err)
	require.True(t, ok)

	// Simulate expiry followed by another owner taking the lock.
	store.keys["lock:t1"] = "someone-else"
	require.NoError(t, release(ctx))
	assert.Equal(t, "someone-else", store.keys["lock:t1"])
}

func TestRedisThreadLockValidation(t *testing.T) {
	_, err := NewRedisThreadLock(nil, time.Minute)
	require.Error(t, err)

	lock, err := NewRedisThreadLock(newMemoryLockStore(), time.Minute)
	require.NoError(t, err)
	_, _, err = lock.Acquire(context.Background(), "")
	assert.Error(t, err)
}
