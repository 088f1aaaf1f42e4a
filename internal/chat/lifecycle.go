package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/TThanhhDatt/agent-bot/internal/events"
	"github.com/TThanhhDatt/agent-bot/pkg/db"
	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/enums"
)

// resolve maps a chat id to its customer and live session, creating or rotating as needed.
// isNew reports whether the customer was created by this call.
func (s *service) resolve(ctx context.Context, chatID string) (customer *models.Customer, session *models.Session, isNew bool, err error) {
	customer, err = s.customers.FindByChatID(ctx, chatID)
	if err != nil {
		return nil, nil, false, fmt.Errorf("find customer: %w", err)
	}
	if customer == nil {
		customer, isNew, err = s.createCustomer(ctx, chatID)
		if err != nil {
			return nil, nil, false, err
		}
	}

	if isNew {
		session, err = s.openSession(ctx, customer.ID, enums.EventTypeNewCustomer)
		return customer, session, true, err
	}

	latest, err := s.sessions.LatestForCustomer(ctx, customer.ID)
	if err != nil {
		return customer, nil, false, fmt.Errorf("load session: %w", err)
	}
	now := s.now()

	switch {
	case latest == nil:
		// The customer row exists but the session insert of its first turn failed.
		session, err = s.openSession(ctx, customer.ID, enums.EventTypeNewCustomer)
		return customer, session, false, err

	case latest.Status != enums.SessionStatusActive || s.expired(latest, now):
		session, err = s.openSession(ctx, customer.ID, enums.EventTypeReturningCustomer)
		if err != nil {
			return customer, nil, false, err
		}
		if latest.Status == enums.SessionStatusActive {
			if cerr := s.sessions.Close(ctx, latest.ID, now.UTC()); cerr != nil {
				s.logg.PartialWrite(ctx, "rotated session but could not close the previous one", cerr)
			}
		}
		s.logg.Info(s.logg.WithThreadID(ctx, session.ThreadID), "session expired, rotated thread")
		return customer, session, false, nil

	default:
		if terr := s.sessions.Touch(ctx, latest.ID, now.UTC()); terr != nil {
			s.logg.Warn(ctx, fmt.Sprintf("touch session: %v", terr))
		} else {
			latest.LastActiveAt = now.UTC()
		}
		return customer, latest, false, nil
	}
}

// createCustomer inserts the customer for chatID. A concurrent first message may win the
// insert, in which case the existing row is returned and isNew is false.
func (s *service) createCustomer(ctx context.Context, chatID string) (*models.Customer, bool, error) {
	customer := &models.Customer{ChatID: chatID, ControlMode: enums.ControlModeBot}
	createErr := s.customers.Create(ctx, customer)
	if createErr == nil {
		s.logg.Info(s.logg.WithCustomerID(ctx, customer.ID.String()), "customer created")
		return customer, true, nil
	}
	if !db.IsUniqueViolation(createErr, "") {
		return nil, false, fmt.Errorf("create customer: %w", createErr)
	}
	existing, err := s.customers.FindByChatID(ctx, chatID)
	if err != nil || existing == nil {
		return nil, false, multierr.Append(fmt.Errorf("create customer: %w", createErr), err)
	}
	return existing, false, nil
}

// openSession starts a new thread for the customer and records eventType against it.
func (s *service) openSession(ctx context.Context, customerID uuid.UUID, eventType enums.EventType) (*models.Session, error) {
	session, err := s.newSession(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.events.Create(ctx, events.New(customerID, &session.ID, eventType)); err != nil {
		return session, fmt.Errorf("record %s event: %w", eventType, err)
	}
	return session, nil
}

func (s *service) newSession(ctx context.Context, customerID uuid.UUID) (*models.Session, error) {
	now := s.now().UTC()
	session := &models.Session{
		CustomerID:   customerID,
		ThreadID:     uuid.NewString(),
		Status:       enums.SessionStatusActive,
		StartedAt:    now,
		LastActiveAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// restart serves /start and /restart. A customer created by this very turn keeps the session
// it just got; anyone else gets a fresh thread and the old session is closed. No event is
// recorded for a restart.
func (s *service) restart(ctx context.Context, customer *models.Customer, current *models.Session, isNew bool) (*models.Session, error) {
	if isNew {
		return current, nil
	}
	next, err := s.newSession(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Close(ctx, current.ID, s.now().UTC()); err != nil {
		return next, fmt.Errorf("close session: %w", err)
	}
	s.logg.Info(s.logg.WithThreadID(ctx, next.ThreadID), "conversation restarted")
	return next, nil
}

func (s *service) expired(session *models.Session, now time.Time) bool {
	if s.expiry <= 0 {
		return false
	}
	return now.Sub(session.LastActiveAt) > s.expiry
}
