package chat

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/TThanhhDatt/agent-bot/internal/checkpoint"
	"github.com/TThanhhDatt/agent-bot/internal/events"
	"github.com/TThanhhDatt/agent-bot/internal/graph"
	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/enums"
	"github.com/TThanhhDatt/agent-bot/pkg/retry"
)

var (
	errThreadBusy = errors.New("thread is busy")
	errNoReply    = errors.New("graph finished without an assistant reply")
)

func isThreadBusy(err error) bool { return errors.Is(err, errThreadBusy) }

// converse runs one graph turn on the session's thread and persists the outcome.
func (s *service) converse(ctx context.Context, customer *models.Customer, session *models.Session, input string) (string, error) {
	threadID := session.ThreadID
	ctx = s.logg.WithThreadID(ctx, threadID)

	unlock := s.lockThread(ctx, threadID)
	defer unlock()

	state := s.loadState(ctx, customer, session)
	state.Input = input
	if err := s.saver.Put(ctx, threadID, state); err != nil {
		return "", fmt.Errorf("load checkpoint: %w", err)
	}

	final, runErr := s.graph.Run(ctx, state, graph.WithCheckpoint(threadID, s.saver))

	eventType := enums.EventTypeBotResponseSuccess
	if runErr != nil {
		eventType = enums.EventTypeBotResponseFailure
	}
	if err := s.finish(ctx, customer, session, final, eventType); err != nil {
		s.logg.Error(ctx, "finalize turn", err)
	}

	if runErr != nil {
		return "", fmt.Errorf("run graph: %w", runErr)
	}
	reply := final.LastAssistantMessage()
	if reply == "" {
		return "", errNoReply
	}
	return reply, nil
}

// loadState decodes the session blob and overlays identity and profile from the repository,
// which is authoritative for profile data. An unreadable blob starts the thread over.
func (s *service) loadState(ctx context.Context, customer *models.Customer, session *models.Session) graph.ConversationState {
	state := graph.NewState(customer.ChatID, customer.ID)
	if len(session.State) > 0 {
		decoded, err := checkpoint.Decode(session.State)
		if err != nil {
			s.logg.Error(ctx, "session state unreadable, starting from an empty state", err)
		} else {
			state = decoded
		}
	}

	sessionID := session.ID
	state.ChatID = customer.ChatID
	state.CustomerID = customer.ID
	state.SessionID = &sessionID
	state.Name = customer.Name
	state.PhoneNumber = customer.PhoneNumber
	state.Address = customer.Address
	state.Email = customer.Email
	return state
}

// finish records the turn outcome, writes the thread's last checkpoint onto the session row
// and drops the checkpoint. Every step is attempted; their failures are combined.
func (s *service) finish(ctx context.Context, customer *models.Customer, session *models.Session, fallback graph.ConversationState, eventType enums.EventType) error {
	ctx = context.WithoutCancel(ctx)
	var errs error

	if err := s.events.Create(ctx, events.New(customer.ID, &session.ID, eventType)); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("record %s event: %w", eventType, err))
	}

	state := fallback
	saved, ok, err := s.saver.Get(ctx, session.ThreadID)
	switch {
	case err != nil:
		errs = multierr.Append(errs, fmt.Errorf("read checkpoint: %w", err))
	case ok:
		state = saved
	}

	blob, err := checkpoint.Encode(state)
	if err != nil {
		errs = multierr.Append(errs, err)
	} else if err := s.sessions.SaveState(ctx, session.ID, blob, s.now().UTC()); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("save session state: %w", err))
	}

	if err := s.saver.Delete(ctx, session.ThreadID); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("drop checkpoint: %w", err))
	}
	return errs
}

// lockThread takes the thread lock when one is configured. If the lock stays busy the turn
// proceeds unlocked and the race is logged.
func (s *service) lockThread(ctx context.Context, threadID string) func() {
	if s.lock == nil {
		return func() {}
	}
	var release func(context.Context) error
	err := retry.Do(ctx, s.lockPolicy, func(ctx context.Context) error {
		r, ok, err := s.lock.Acquire(ctx, threadID)
		if err != nil {
			return err
		}
		if !ok {
			return errThreadBusy
		}
		release = r
		return nil
	})
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("thread lock unavailable, continuing unlocked: %v", err))
		return func() {}
	}
	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Warn(ctx, fmt.Sprintf("release thread lock: %v", err))
		}
	}
}
