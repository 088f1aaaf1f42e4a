package chat

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/enums"
)

func TestLinkSpansBuildsTreeUnderFirstSpan(t *testing.T) {
	sessionID, customerID := uuid.New(), uuid.New()
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	in := []Span{
		{TimestampStart: start, TimestampEnd: start.Add(20 * time.Millisecond), Direction: enums.SpanDirectionInbound, Status: enums.SpanStatusOK},
		processSpan(start, start.Add(time.Second), enums.SpanDirectionInternal, enums.SpanStatusOK),
	}

	rows := linkSpans(in, sessionID, customerID, nil)

	require.Len(t, rows, 2)
	assert.NotEqual(t, uuid.Nil, rows[0].ID)
	assert.Nil(t, rows[0].ParentSpanID)
	assert.Nil(t, rows[0].ResponseToSpanID)
	assert.EqualValues(t, 20, rows[0].DurationMS)
	require.NotNil(t, rows[1].ParentSpanID)
	assert.Equal(t, rows[0].ID, *rows[1].ParentSpanID)
	assert.EqualValues(t, 1000, rows[1].DurationMS)
	assert.Equal(t, sessionID, *rows[1].SessionID)
	assert.Equal(t, customerID, *rows[1].CustomerID)
}

func TestLinkSpansMeasuresCustomerResponseTime(t *testing.T) {
	replyEnd := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	previous := &models.MessageSpan{ID: uuid.New(), TimestampEnd: replyEnd}
	in := []Span{{TimestampStart: replyEnd.Add(90 * time.Second), TimestampEnd: replyEnd.Add(91 * time.Second)}}

	rows := linkSpans(in, uuid.New(), uuid.New(), previous)

	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].ResponseToSpanID)
	assert.Equal(t, previous.ID, *rows[0].ResponseToSpanID)
	require.NotNil(t, rows[0].ResponseDurationMS)
	assert.EqualValues(t, 90000, *rows[0].ResponseDurationMS)
}

func TestLinkSpansEmpty(t *testing.T) {
	assert.Nil(t, linkSpans(nil, uuid.New(), uuid.New(), nil))
}
