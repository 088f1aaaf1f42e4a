package escalations

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

func newTestRepo(t *testing.T) Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Escalation{}))
	return NewRepository(db, retry.None())
}

func TestRepositoryResolve(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	row := &models.Escalation{CustomerID: uuid.New(), ChatID: "c1", Summary: "refund"}
	require.NoError(t, repo.Create(ctx, row))
	assert.Equal(t, enums.EscalationStatusOpen, row.Status)

	res, err := repo.Resolve(ctx, row.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, res.Updated)
	assert.True(t, res.Found)

	again, err := repo.Resolve(ctx, row.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, again.Updated)
	assert.True(t, again.Found)

	missing, err := repo.Resolve(ctx, uuid.New(), time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, missing.Found)
}

func TestRepositoryListPaginatesOpenOnly(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		row := &models.Escalation{CustomerID: uuid.New(), ChatID: "c", Summary: "s", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.Create(ctx, row))
		ids = append(ids, row.ID)
	}
	_, err := repo.Resolve(ctx, ids[1], time.Now().UTC())
	require.NoError(t, err)

	page, next, err := repo.List(ctx, listEscalationsParams{Limit: 1, OpenOnly: true})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[2], page[0].ID)
	require.NotNil(t, next)

	rest, next, err := repo.List(ctx, listEscalationsParams{Limit: 1, OpenOnly: true, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, ids[0], rest[0].ID)
	assert.Nil(t, next)

	require.NoError(t, repo.MarkEmailSent(ctx, ids[0]))
	all, _, err := repo.List(ctx, listEscalationsParams{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
