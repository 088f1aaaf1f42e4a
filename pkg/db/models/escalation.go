package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TThanhhDatt/agent-bot/pkg/enums"
)

// Escalation is a conversation handed to staff for follow-up.
type Escalation struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CustomerID uuid.UUID              `gorm:"column:customer_id;type:uuid;not null;index" json:"customer_id"`
	SessionID  *uuid.UUID             `gorm:"column:session_id;type:uuid" json:"session_id,omitempty"`
	ChatID     string                 `gorm:"column:chat_id;not null" json:"chat_id"`
	Summary    string                 `gorm:"column:summary;not null" json:"summary"`
	Status     enums.EscalationStatus `gorm:"column:status;not null" json:"status"`
	EmailSent  bool                   `gorm:"column:email_sent;not null" json:"email_sent"`
	ResolvedAt *time.Time             `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (e *Escalation) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = enums.EscalationStatusOpen
	}
	return nil
}
