// Package checkpoint keeps the in-flight conversation state of a thread while a turn runs and
// provides the versioned encoding persisted on the session row between turns.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/TThanhhDatt/agent-bot/internal/graph"
	"github.com/TThanhhDatt/agent-bot/pkg/redis"
)

// Saver stores graph state per thread.
type Saver interface {
	Put(ctx context.Context, threadID string, state graph.ConversationState) error
	Get(ctx context.Context, threadID string) (graph.ConversationState, bool, error)
	Delete(ctx context.Context, threadID string) error
}

// MemorySaver keeps checkpoints in process memory.
type MemorySaver struct {
	mu     sync.RWMutex
	states map[string]graph.ConversationState
}

func NewMemorySaver() *MemorySaver {
	return &MemorySaver{states: make(map[string]graph.ConversationState)}
}

func (m *MemorySaver) Put(_ context.Context, threadID string, state graph.ConversationState) error {
	if threadID == "" {
		return errors.New("thread id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[threadID] = state.Clone()
	return nil
}

func (m *MemorySaver) Get(_ context.Context, threadID string) (graph.ConversationState, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[threadID]
	if !ok {
		return graph.ConversationState{}, false, nil
	}
	return state.Clone(), true, nil
}

func (m *MemorySaver) Delete(_ context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, threadID)
	return nil
}

// Len reports how many threads are currently resident.
func (m *MemorySaver) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}

type redisStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CheckpointKey(threadID string) string
}

// RedisSaver keeps checkpoints in redis so a turn can be resumed by another replica.
type RedisSaver struct {
	store redisStore
	ttl   time.Duration
}

func NewRedisSaver(store redisStore, ttl time.Duration) (*RedisSaver, error) {
	if store == nil {
		return nil, errors.New("redis store required for checkpoint saver")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisSaver{store: store, ttl: ttl}, nil
}

func (r *RedisSaver) Put(ctx context.Context, threadID string, state graph.ConversationState) error {
	if threadID == "" {
		return errors.New("thread id is required")
	}
	blob, err := Encode(state)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.store.CheckpointKey(threadID), string(blob), r.ttl); err != nil {
		return fmt.Errorf("store checkpoint: %w", err)
	}
	return nil
}

func (r *RedisSaver) Get(ctx context.Context, threadID string) (graph.ConversationState, bool, error) {
	raw, err := r.store.Get(ctx, r.store.CheckpointKey(threadID))
	if err != nil {
		if redis.IsNil(err) {
			return graph.ConversationState{}, false, nil
		}
		return graph.ConversationState{}, false, fmt.Errorf("load checkpoint: %w", err)
	}
	state, err := Decode([]byte(raw))
	if err != nil {
		return graph.ConversationState{}, false, err
	}
	return state, true, nil
}

func (r *RedisSaver) Delete(ctx context.Context, threadID string) error {
	if err := r.store.Del(ctx, r.store.CheckpointKey(threadID)); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}
