package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TThanhhDatt/agent-bot/pkg/enums"
)

// MessageSpan records one timed hop of a chat turn (inbound, internal processing, outbound).
type MessageSpan struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SessionID          *uuid.UUID          `gorm:"column:session_id;type:uuid;index"`
	CustomerID         *uuid.UUID          `gorm:"column:customer_id;type:uuid"`
	ParentSpanID       *uuid.UUID          `gorm:"column:parent_span_id;type:uuid"`
	ResponseToSpanID   *uuid.UUID          `gorm:"column:response_to_span_id;type:uuid"`
	ResponseDurationMS *int64              `gorm:"column:response_duration_ms"`
	TimestampStart     time.Time           `gorm:"column:timestamp_start;not null"`
	TimestampEnd       time.Time           `gorm:"column:timestamp_end;not null"`
	DurationMS         int64               `gorm:"column:duration_ms;not null"`
	StepName           string              `gorm:"column:step_name;not null"`
	ServiceName        string              `gorm:"column:service_name;not null"`
	Direction          enums.SpanDirection `gorm:"column:direction;not null"`
	Status             enums.SpanStatus    `gorm:"column:status;not null"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (m *MessageSpan) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
