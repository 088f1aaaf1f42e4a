package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/enums"
	"github.com/TThanhhDatt/agent-bot/pkg/retry"
)

func TestLatestReturnsNewestEvent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Event{}))

	ctx := context.Background()
	repo := NewRepository(db, retry.None())
	customerID := uuid.New()
	sessionID := uuid.New()

	older := New(customerID, nil, enums.EventTypeNewCustomer)
	older.Timestamp = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, older))

	newer := New(customerID, &sessionID, enums.EventTypeBotResponseSuccess)
	newer.Timestamp = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, newer))

	latest, err := repo.Latest(ctx, customerID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, newer.ID, latest.ID)
	require.NotNil(t, latest.SessionID)
	assert.Equal(t, sessionID, *latest.SessionID)

	none, err := repo.Latest(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, none)
}
