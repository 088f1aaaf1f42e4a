package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TThanhhDatt/agent-bot/internal/repo"
	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/enums"
	"github.com/TThanhhDatt/agent-bot/pkg/retry"
)

// Repository exposes persistence helpers for chat sessions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LatestForCustomer(ctx context.Context, customerID uuid.UUID) (*models.Session, error)
	FindByThreadID(ctx context.Context, threadID string) (*models.Session, error)
	Create(ctx context.Context, session *models.Session) error
	Close(ctx context.Context, id uuid.UUID, endedAt time.Time) error
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	SaveState(ctx context.Context, id uuid.UUID, state []byte, at time.Time) error
}

type repository struct {
	base repo.Base
}

// NewRepository returns a session repository bound to the provided database.
func NewRepository(db *gorm.DB, policy retry.Policy) Repository {
	return &repository{base: repo.NewBase(db, policy)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.WithTx(tx)}
}

func (r *repository) LatestForCustomer(ctx context.Context, customerID uuid.UUID) (*models.Session, error) {
	return repo.First[models.Session](ctx, r.base, func(db *gorm.DB) *gorm.DB {
		return db.Where("customer_id = ?", customerID).Order("started_at DESC")
	})
}

func (r *repository) FindByThreadID(ctx context.Context, threadID string) (*models.Session, error) {
	return repo.First[models.Session](ctx, r.base, func(db *gorm.DB) *gorm.DB {
		return db.Where("thread_id = ?", threadID)
	})
}

func (r *repository) Create(ctx context.Context, session *models.Session) error {
	return r.base.Do(ctx, func(db *gorm.DB) error {
		return db.Create(session).Error
	})
}

func (r *repository) Close(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	return r.base.Do(ctx, func(db *gorm.DB) error {
		return db.Model(&models.Session{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"status":   enums.SessionStatusInactive,
				"ended_at": endedAt,
			}).Error
	})
}

func (r *repository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.base.Do(ctx, func(db *gorm.DB) error {
		return db.Model(&models.Session{}).Where("id = ?", id).UpdateColumn("last_active_at", at).Error
	})
}

func (r *repository) SaveState(ctx context.Context, id uuid.UUID, state []byte, at time.Time) error {
	return r.base.Do(ctx, func(db *gorm.DB) error {
		return db.Model(&models.Session{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"state":          state,
				"last_active_at": at,
			}).Error
	})
}
