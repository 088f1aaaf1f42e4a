package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/enums"
)

const (
	spanStepProcess = "chatbot_process"
	spanService     = "chatbot_service"
)

// Span is one timed hop of a turn as reported by the channel gateway or measured here.
type Span struct {
	TimestampStart time.Time           `json:"timestamp_start"`
	TimestampEnd   time.Time           `json:"timestamp_end"`
	DurationMS     int64               `json:"duration_ms"`
	StepName       string              `json:"step_name"`
	ServiceName    string              `json:"service_name"`
	Direction      enums.SpanDirection `json:"direction"`
	Status         enums.SpanStatus    `json:"status"`
}

func processSpan(start, end time.Time, direction enums.SpanDirection, status enums.SpanStatus) Span {
	return Span{
		TimestampStart: start,
		TimestampEnd:   end,
		DurationMS:     end.Sub(start).Milliseconds(),
		StepName:       spanStepProcess,
		ServiceName:    spanService,
		Direction:      direction,
		Status:         status,
	}
}

// linkSpans turns the spans of one turn into rows. The first span is the root: it points at
// the previous outbound reply and carries the customer's response time; the rest hang off it.
func linkSpans(in []Span, sessionID, customerID uuid.UUID, previous *models.MessageSpan) []models.MessageSpan {
	if len(in) == 0 {
		return nil
	}
	rootID := uuid.New()
	rows := make([]models.MessageSpan, 0, len(in))
	for i, s := range in {
		row := models.MessageSpan{
			SessionID:      &sessionID,
			CustomerID:     &customerID,
			TimestampStart: s.TimestampStart,
			TimestampEnd:   s.TimestampEnd,
			DurationMS:     s.DurationMS,
			StepName:       s.StepName,
			ServiceName:    s.ServiceName,
			Direction:      s.Direction,
			Status:         s.Status,
		}
		if row.DurationMS == 0 && !s.TimestampEnd.IsZero() {
			row.DurationMS = s.TimestampEnd.Sub(s.TimestampStart).Milliseconds()
		}
		if i == 0 {
			row.ID = rootID
			if previous != nil {
				prevID := previous.ID
				row.ResponseToSpanID = &prevID
				gap := s.TimestampStart.Sub(previous.TimestampEnd).Milliseconds()
				row.ResponseDurationMS = &gap
			}
		} else {
			parent := rootID
			row.ParentSpanID = &parent
		}
		rows = append(rows, row)
	}
	return rows
}
