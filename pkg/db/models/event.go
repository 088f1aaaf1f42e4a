package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TThanhhDatt/agent-bot/pkg/enums"
)

// Event is an audit record of a customer lifecycle or bot outcome.
type Event struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID uuid.UUID       `gorm:"column:customer_id;type:uuid;not null;index"`
	SessionID  *uuid.UUID      `gorm:"column:session_id;type:uuid"`
	EventType  enums.EventType `gorm:"column:event_type;not null"`
	Timestamp  time.Time       `gorm:"column:timestamp;autoCreateTime"`
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
