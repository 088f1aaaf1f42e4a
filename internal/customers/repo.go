package customers

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

// Repository exposes persistence helpers for customers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByChatID(ctx context.Context, chatID string) (*models.Customer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	Create(ctx context.Context, customer *models.Customer) error
	UpdateProfile(ctx context.Context, id uuid.UUID, profile ProfileUpdate) (*models.Customer, error)
	SetControlMode(ctx context.Context, chatID string, mode enums.ControlMode, switchedAt *time.Time) (*models.Customer, error)
	Delete(ctx context.Context, chatID string) (bool, error)
}

// ProfileUpdate carries the profile fields to change; nil fields are left untouched.
type ProfileUpdate struct {
	Name        *string
	PhoneNumber *string
	Address     *string
	Email       *string
}

// Empty reports whether the update changes nothing.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.PhoneNumber == nil && p.Address == nil && p.Email == nil
}

func (p ProfileUpdate) columns() map[string]any {
	cols := map[string]any{}
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.PhoneNumber != nil {
		cols["phone_number"] = *p.PhoneNumber
	}
	if p.Address != nil {
		cols["address"] = *p.Address
	}
	if p.Email != nil {
		cols["email"] = *p.Email
	}
	return cols
}

type repository struct {
	base repo.Base
}

// NewRepository returns a customer repository bound to the provided database.
func NewRepository(db *gorm.DB, policy retry.Policy) Repository {
	return &repository{base: repo.NewBase(db, policy)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.WithTx(tx)}
}

func (r *repository) FindByChatID(ctx context.Context, chatID string) (*models.Customer, error) {
	return repo.First[models.Customer](ctx, r.base, func(db *gorm.DB) *gorm.DB {
		return db.Where("chat_id = ?", chatID)
	})
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return repo.First[models.Customer](ctx, r.base, func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	})
}

func (r *repository) Create(ctx context.Context, customer *models.Customer) error {
	return r.base.Do(ctx, func(db *gorm.DB) error {
		return db.Create(customer).Error
	})
}

func (r *repository) UpdateProfile(ctx context.Context, id uuid.UUID, profile ProfileUpdate) (*models.Customer, error) {
	if !profile.Empty() {
		err := r.base.Do(ctx, func(db *gorm.DB) error {
			return db.Model(&models.Customer{}).Where("id = ?", id).Updates(profile.columns()).Error
		})
		if err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

func (r *repository) SetControlMode(ctx context.Context, chatID string, mode enums.ControlMode, switchedAt *time.Time) (*models.Customer, error) {
	err := r.base.Do(ctx, func(db *gorm.DB) error {
		return db.Model(&models.Customer{}).
			Where("chat_id = ?", chatID).
			Updates(map[string]any{
				"control_mode":     mode,
				"mode_switched_at": switchedAt,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return r.FindByChatID(ctx, chatID)
}

func (r *repository) Delete(ctx context.Context, chatID string) (bool, error) {
	return repo.Value(ctx, r.base, func(db *gorm.DB) (bool, error) {
		result := db.Where("chat_id = ?", chatID).Delete(&models.Customer{})
		if result.Error != nil {
			return false, result.Error
		}
		return result.RowsAffected > 0, nil
	})
}
