package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TThanhhDatt/agent-bot/pkg/enums"
)

// Customer is the identity behind an external chat id.
type Customer struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ChatID         string            `gorm:"column:chat_id;not null;uniqueIndex"`
	Name           *string           `gorm:"column:name"`
	PhoneNumber    *string           `gorm:"column:phone_number"`
	Address        *string           `gorm:"column:address"`
	Email          *string           `gorm:"column:email"`
	ControlMode    enums.ControlMode `gorm:"column:control_mode;not null"`
	ModeSwitchedAt *time.Time        `gorm:"column:mode_switched_at"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.ControlMode == "" {
		c.ControlMode = enums.ControlModeBot
	}
	return nil
}
