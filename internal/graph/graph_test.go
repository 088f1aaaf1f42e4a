package graph

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorderStub struct {
	mu    sync.Mutex
	puts  int
	state ConversationState
}

func (r *recorderStub) Put(_ context.Context, _ string, st ConversationState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.puts++
	r.state = st
	return nil
}

func routeTo(target Target) Node {
	return NodeFunc(func(ctx context.Context, st ConversationState) (Update, error) {
		return Update{Next: target}, nil
	})
}

func fastOptions() Options {
	return Options{MaxAttempts: 2, Backoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestRunSupervisorThenSpecialistThenEnd(t *testing.T) {
	var visited []Target
	nodes := map[Target]Node{
		TargetSupervisor: NodeFunc(func(ctx context.Context, st ConversationState) (Update, error) {
			visited = append(visited, TargetSupervisor)
			return Update{Next: TargetOrder}, nil
		}),
		TargetOrder: NodeFunc(func(ctx context.Context, st ConversationState) (Update, error) {
			visited = append(visited, TargetOrder)
			return Update{Messages: []Message{{Role: RoleAssistant, Content: "done"}}, Next: TargetEnd}, nil
		}),
		TargetProduct: routeTo(TargetEnd),
	}
	g, err := New(fastOptions(), nodes)
	require.NoError(t, err)

	rec := &recorderStub{}
	final, err := g.Run(context.Background(), NewState("chat", uuid.New()), WithCheckpoint("thread-1", rec))
	require.NoError(t, err)
	assert.Equal(t, []Target{TargetSupervisor, TargetOrder}, visited)
	assert.Equal(t, "done", final.LastAssistantMessage())
	assert.Equal(t, TargetEnd, final.Next)
	assert.Equal(t, 2, rec.puts)
	assert.Equal(t, final.Messages, rec.state.Messages)
}

func TestRunRetriesWithoutMergingFailedAttempt(t *testing.T) {
	attempts := 0
	var retried []int
	opts := fastOptions()
	opts.OnRetry = func(node Target, attempt int, err error) {
		assert.Equal(t, TargetProduct, node)
		retried = append(retried, attempt)
	}
	nodes := map[Target]Node{
		TargetSupervisor: routeTo(TargetProduct),
		TargetProduct: NodeFunc(func(ctx context.Context, st ConversationState) (Update, error) {
			attempts++
			// mutate the received copy before failing; nothing of this may leak
			st.Cart[NewCartKey(uuid.New(), uuid.New())] = CartLine{Quantity: 1}
			if attempts == 1 {
				return Update{Messages: []Message{{Role: RoleAssistant, Content: "partial"}}}, errors.New("llm unavailable")
			}
			return Update{Messages: []Message{{Role: RoleAssistant, Content: "ok"}}, Next: TargetEnd}, nil
		}),
	}
	g, err := New(opts, nodes)
	require.NoError(t, err)

	final, err := g.Run(context.Background(), NewState("chat", uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, []int{1}, retried)
	require.Len(t, final.Messages, 1)
	assert.Equal(t, "ok", final.Messages[0].Content)
	assert.Empty(t, final.Cart)
}

func TestRunReturnsOriginalErrorWhenAttemptsExhausted(t *testing.T) {
	boom := errors.New("classifier down")
	calls := 0
	nodes := map[Target]Node{
		TargetSupervisor: NodeFunc(func(ctx context.Context, st ConversationState) (Update, error) {
			calls++
			return Update{}, boom
		}),
	}
	g, err := New(fastOptions(), nodes)
	require.NoError(t, err)

	initial := NewState("chat", uuid.New())
	initial.Name = strPtr("Lan")
	final, err := g.Run(context.Background(), initial)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "Lan", *final.Name)
	assert.Empty(t, final.Messages)
}

func TestRunRejectsUnknownTarget(t *testing.T) {
	g, err := New(fastOptions(), map[Target]Node{TargetSupervisor: routeTo("billing")})
	require.NoError(t, err)

	_, err = g.Run(context.Background(), NewState("chat", uuid.New()))
	assert.ErrorIs(t, err, ErrUnknownTarget)
}

func TestRunStepLimit(t *testing.T) {
	opts := fastOptions()
	opts.MaxSteps = 3
	g, err := New(opts, map[Target]Node{TargetSupervisor: routeTo(TargetSupervisor)})
	require.NoError(t, err)

	_, err = g.Run(context.Background(), NewState("chat", uuid.New()))
	assert.ErrorIs(t, err, ErrStepLimit)
}

func TestNewValidatesNodes(t *testing.T) {
	_, err := New(Options{}, map[Target]Node{TargetProduct: routeTo(TargetEnd)})
	assert.Error(t, err)

	_, err = New(Options{}, map[Target]Node{TargetSupervisor: routeTo(TargetEnd), TargetEnd: routeTo(TargetEnd)})
	assert.Error(t, err)
}

// Two sequential turns on one thread: a profile update in the first and an unrelated cart
// update in the second must leave the profile intact.
func TestProfileSurvivesUnrelatedLaterTurn(t *testing.T) {
	turn := 0
	productID, varianceID := uuid.New(), uuid.New()
	nodes := map[Target]Node{
		TargetSupervisor: routeTo(TargetProduct),
		TargetProduct: NodeFunc(func(ctx context.Context, st ConversationState) (Update, error) {
			if turn == 1 {
				return Update{Name: strPtr("Lan"), Next: TargetEnd}, nil
			}
			cart := CloneCart(st.Cart)
			cart[NewCartKey(productID, varianceID)] = CartLine{ProductID: productID, VarianceID: varianceID, Price: 100000}.WithQuantity(1)
			return Update{Cart: Some(cart), Next: TargetEnd}, nil
		}),
	}
	g, err := New(fastOptions(), nodes)
	require.NoError(t, err)

	st := NewState("chat", uuid.New())
	turn = 1
	st, err = g.Run(context.Background(), st)
	require.NoError(t, err)
	turn = 2
	st, err = g.Run(context.Background(), st)
	require.NoError(t, err)

	require.NotNil(t, st.Name)
	assert.Equal(t, "Lan", *st.Name)
	assert.Len(t, st.Cart, 1)
}
