package spans

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TThanhhDatt/agent-bot/internal/repo"
	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/enums"
	"github.com/TThanhhDatt/agent-bot/pkg/retry"
)

// Repository exposes persistence helpers for message spans.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBulk(ctx context.Context, spans []models.MessageSpan) error
	LatestOutbound(ctx context.Context, customerID uuid.UUID) (*models.MessageSpan, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a span repository bound to the provided database.
func NewRepository(db *gorm.DB, policy retry.Policy) Repository {
	return &repository{base: repo.NewBase(db, policy)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.WithTx(tx)}
}

func (r *repository) CreateBulk(ctx context.Context, spans []models.MessageSpan) error {
	if len(spans) == 0 {
		return nil
	}
	return r.base.Do(ctx, func(db *gorm.DB) error {
		return db.Create(&spans).Error
	})
}

// LatestOutbound returns the most recent reply sent to the customer, the span a new inbound
// message responds to. It spans sessions, so the first turn after a rotation still links back.
func (r *repository) LatestOutbound(ctx context.Context, customerID uuid.UUID) (*models.MessageSpan, error) {
	return repo.First[models.MessageSpan](ctx, r.base, func(db *gorm.DB) *gorm.DB {
		return db.Where("customer_id = ? AND direction = ?", customerID, enums.SpanDirectionOutbound).
			Order("timestamp_end DESC")
	})
}
