package chat

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/TThanhhDatt/agent-bot/internal/agents"
	"github.com/TThanhhDatt/agent-bot/internal/checkpoint"
	"github.com/TThanhhDatt/agent-bot/internal/customers"
	"github.com/TThanhhDatt/agent-bot/internal/events"
	"github.com/TThanhhDatt/agent-bot/internal/graph"
	"github.com/TThanhhDatt/agent-bot/internal/sessions"
	"github.com/TThanhhDatt/agent-bot/internal/spans"
	"github.com/TThanhhDatt/agent-bot/pkg/config"
	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
	"github.com/TThanhhDatt/agent-bot/pkg/retry"
)

type harness struct {
	svc       *service
	db        *gorm.DB
	saver     *checkpoint.MemorySaver
	customers customers.Repository
	sessions  sessions.Repository
	runs      *int
}

// specialist is the product node used by the harness graph; it sees the state after the
// supervisor appended the input.
type specialist func(ctx context.Context, state graph.ConversationState) (graph.Update, error)

func echo(_ context.Context, state graph.ConversationState) (graph.Update, error) {
	return graph.Update{Messages: []graph.Message{{
		Role:    graph.RoleAssistant,
		Content: "echo: " + state.LastUserMessage(),
	}}}, nil
}

func newHarness(t *testing.T, product specialist, mutate ...func(*Deps)) *harness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Customer{}, &models.Session{}, &models.Event{}, &models.MessageSpan{}))

	runs := 0
	g, err := graph.New(graph.Options{MaxAttempts: 2, Backoff: time.Millisecond}, map[graph.Target]graph.Node{
		graph.TargetSupervisor: agents.NewSupervisor(nil, "", nil),
		graph.TargetProduct: graph.NodeFunc(func(ctx context.Context, state graph.ConversationState) (graph.Update, error) {
			runs++
			return product(ctx, state)
		}),
	})
	require.NoError(t, err)

	h := &harness{
		db:        db,
		saver:     checkpoint.NewMemorySaver(),
		customers: customers.NewRepository(db, retry.None()),
		sessions:  sessions.NewRepository(db, retry.None()),
		runs:      &runs,
	}
	deps := Deps{
		Customers: h.customers,
		Sessions:  h.sessions,
		Events:    events.NewRepository(db, retry.None()),
		Spans:     spans.NewRepository(db, retry.None()),
		Graph:     g,
		Saver:     h.saver,
		Logger:    logger.New(logger.Options{ServiceName: "chat-test", Output: &bytes.Buffer{}}),
		Session:   config.SessionConfig{ExpiryDays: 3, Timezone: "UTC"},
	}
	for _, m := range mutate {
		m(&deps)
	}
	svc, err := NewService(deps)
	require.NoError(t, err)
	h.svc = svc.(*service)
	return h
}

func (h *harness) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := h.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func (h *harness) latestState(t *testing.T, chatID string) (graph.ConversationState, *models.Session) {
	t.Helper()
	ctx := context.Background()
	customer, err := h.customers.FindByChatID(ctx, chatID)
	require.NoError(t, err)
	require.NotNil(t, customer)
	session, err := h.sessions.LatestForCustomer(ctx, customer.ID)
	require.NoError(t, err)
	require.NotNil(t, session)
	state, err := checkpoint.Decode(session.State)
	require.NoError(t, err)
	return state, session
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Callback
	ack  *Span
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, cb Callback) (*Span, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, cb)
	return n.ack, n.err
}

type fakeLock struct {
	mu       sync.Mutex
	busy     bool
	acquired []string
	released []string
}

func (l *fakeLock) Acquire(_ context.Context, threadID string) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return nil, false, nil
	}
	l.acquired = append(l.acquired, threadID)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released = append(l.released, threadID)
		return nil
	}, true, nil
}

var errModelDown = errors.New("model down")
