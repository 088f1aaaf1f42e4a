package escalations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TThanhhDatt/agent-bot/internal/repo"
	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/enums"
	"github.com/TThanhhDatt/agent-bot/pkg/pagination"
	"github.com/TThanhhDatt/agent-bot/pkg/retry"
)

// Repository exposes persistence helpers for escalations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, escalation *models.Escalation) error
	List(ctx context.Context, params listEscalationsParams) ([]models.Escalation, *pagination.Cursor, error)
	MarkEmailSent(ctx context.Context, id uuid.UUID) error
	Resolve(ctx context.Context, id uuid.UUID, now time.Time) (escalationResolveResult, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns an escalations repository bound to the provided database.
func NewRepository(db *gorm.DB, policy retry.Policy) Repository {
	return &repository{base: repo.NewBase(db, policy)}
}

type listEscalationsParams struct {
	Limit    int
	Cursor   *pagination.Cursor
	OpenOnly bool
}

type escalationResolveResult struct {
	Updated bool
	Found   bool
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, escalation *models.Escalation) error {
	return r.base.Do(ctx, func(db *gorm.DB) error {
		return db.Create(escalation).Error
	})
}

func (r *repository) List(ctx context.Context, params listEscalationsParams) ([]models.Escalation, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	rows, err := repo.Value(ctx, r.base, func(db *gorm.DB) ([]models.Escalation, error) {
		query := db.Model(&models.Escalation{})
		if params.OpenOnly {
			query = query.Where("status = ?", enums.EscalationStatusOpen)
		}
		if params.Cursor != nil {
			query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
		}
		var out []models.Escalation
		err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
		return out, err
	})
	if err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		last := rows[normalized-1]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return rows, nil, nil
}

func (r *repository) MarkEmailSent(ctx context.Context, id uuid.UUID) error {
	return r.base.Do(ctx, func(db *gorm.DB) error {
		return db.Model(&models.Escalation{}).Where("id = ?", id).UpdateColumn("email_sent", true).Error
	})
}

func (r *repository) Resolve(ctx context.Context, id uuid.UUID, now time.Time) (escalationResolveResult, error) {
	return repo.Value(ctx, r.base, func(db *gorm.DB) (escalationResolveResult, error) {
		result := db.Model(&models.Escalation{}).
			Where("id = ? AND status = ?", id, enums.EscalationStatusOpen).
			Updates(map[string]any{
				"status":      enums.EscalationStatusResolved,
				"resolved_at": now,
			})
		if result.Error != nil {
			return escalationResolveResult{}, result.Error
		}

		mark := escalationResolveResult{Updated: result.RowsAffected > 0}
		if mark.Updated {
			mark.Found = true
			return mark, nil
		}

		var count int64
		if err := db.Model(&models.Escalation{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return escalationResolveResult{}, err
		}
		mark.Found = count > 0
		return mark, nil
	})
}
