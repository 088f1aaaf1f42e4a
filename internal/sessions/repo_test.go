package sessions

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

func setupSessionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Session{}))
	return db
}

func TestSessionRotationAndState(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupSessionsTestDB(t), retry.None())
	customerID := uuid.New()
	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	none, err := repo.LatestForCustomer(ctx, customerID)
	require.NoError(t, err)
	assert.Nil(t, none)

	first := &models.Session{
		CustomerID:   customerID,
		ThreadID:     uuid.NewString(),
		Status:       enums.SessionStatusActive,
		StartedAt:    start,
		LastActiveAt: start,
	}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Close(ctx, first.ID, start.Add(time.Hour)))

	second := &models.Session{
		CustomerID:   customerID,
		ThreadID:     uuid.NewString(),
		Status:       enums.SessionStatusActive,
		StartedAt:    start.Add(72 * time.Hour),
		LastActiveAt: start.Add(72 * time.Hour),
	}
	require.NoError(t, repo.Create(ctx, second))

	latest, err := repo.LatestForCustomer(ctx, customerID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)

	closed, err := repo.FindByThreadID(ctx, first.ThreadID)
	require.NoError(t, err)
	require.NotNil(t, closed)
	assert.Equal(t, enums.SessionStatusInactive, closed.Status)
	require.NotNil(t, closed.EndedAt)

	saveAt := start.Add(73 * time.Hour)
	require.NoError(t, repo.SaveState(ctx, second.ID, []byte(`{"version":1,"state":{}}`), saveAt))
	reloaded, err := repo.FindByThreadID(ctx, second.ThreadID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"state":{}}`, string(reloaded.State))
	assert.True(t, reloaded.LastActiveAt.Equal(saveAt))
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	s := models.Session{LastActiveAt: now.Add(-4 * 24 * time.Hour)}
	assert.True(t, s.Expired(now, 3*24*time.Hour))
	assert.False(t, s.Expired(now, 5*24*time.Hour))
	assert.False(t, s.Expired(now, 0))
}
