package events

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TThanhhDatt/agent-bot/internal/repo"
	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/enums"
	"github.com/TThanhhDatt/agent-bot/pkg/retry"
)

// Repository exposes persistence helpers for customer audit events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.Event) error
	Latest(ctx context.Context, customerID uuid.UUID) (*models.Event, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns an event repository bound to the provided database.
func NewRepository(db *gorm.DB, policy retry.Policy) Repository {
	return &repository{base: repo.NewBase(db, policy)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, event *models.Event) error {
	return r.base.Do(ctx, func(db *gorm.DB) error {
		return db.Create(event).Error
	})
}

// Latest returns the newest event recorded for the customer.
func (r *repository) Latest(ctx context.Context, customerID uuid.UUID) (*models.Event, error) {
	return repo.First[models.Event](ctx, r.base, func(db *gorm.DB) *gorm.DB {
		return db.Where("customer_id = ?", customerID).Order("timestamp DESC")
	})
}

// New builds an event row for the customer, optionally tied to a session.
func New(customerID uuid.UUID, sessionID *uuid.UUID, eventType enums.EventType) *models.Event {
	return &models.Event{CustomerID: customerID, SessionID: sessionID, EventType: eventType}
}
