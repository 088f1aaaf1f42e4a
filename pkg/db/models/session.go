package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TThanhhDatt/agent-bot/pkg/enums"
)

// Session owns one conversation thread and the encoded state blob persisted at turn boundaries.
type Session struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID   uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	ThreadID     string              `gorm:"column:thread_id;not null;uniqueIndex"`
	Status       enums.SessionStatus `gorm:"column:status;not null"`
	State        []byte              `gorm:"column:state"`
	StartedAt    time.Time           `gorm:"column:started_at;not null"`
	LastActiveAt time.Time           `gorm:"column:last_active_at;not null"`
	EndedAt      *time.Time          `gorm:"column:ended_at"`
}

func (s *Session) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Expired reports whether the session has been idle longer than window as of now.
func (s Session) Expired(now time.Time, window time.Duration) bool {
	if window <= 0 {
		return false
	}
	return now.Sub(s.LastActiveAt) > window
}
