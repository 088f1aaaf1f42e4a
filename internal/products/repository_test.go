package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/retry"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.ProductVariant{}, &models.QnA{}))

	catalog := []models.Product{
		{
			Name:             "Hydrating Serum",
			Brand:            "Acme",
			BriefDescription: "Hyaluronic serum for dry skin",
			Variants: []models.ProductVariant{
				{SKU: "HS-50", VarName: "volume", Value: "50ml", Price: 250000},
				{SKU: "HS-30", VarName: "volume", Value: "30ml", Price: 180000},
			},
		},
		{
			Name:             "Gentle Cleanser",
			Brand:            "Acme",
			BriefDescription: "Low foam cleanser",
			Variants:         []models.ProductVariant{{SKU: "GC-1", Price: 120000}},
		},
	}
	require.NoError(t, db.Create(&catalog).Error)
	require.NoError(t, db.Create(&[]models.QnA{
		{Question: "How long does shipping take?", Answer: "3-5 days"},
		{Question: "Can I return an opened product?", Answer: "Within 7 days"},
	}).Error)
	return db
}

func TestSearchByKeywordMatchesAllTerms(t *testing.T) {
	repo := NewRepository(setupCatalogTestDB(t), retry.None())
	ctx := context.Background()

	got, err := repo.SearchByKeyword(ctx, "acme SERUM", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Hydrating Serum", got[0].Name)
	require.Len(t, got[0].Variants, 2)
	assert.Equal(t, int64(180000), got[0].Variants[0].Price)

	got, err = repo.SearchByKeyword(ctx, "acme", 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.SearchByKeyword(ctx, "   ", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchQnA(t *testing.T) {
	repo := NewRepository(setupCatalogTestDB(t), retry.None())

	got, err := repo.SearchQnA(context.Background(), "shipping?", 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "3-5 days", got[0].Answer)
}

func TestByIDs(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db, retry.None())

	var all []models.Product
	require.NoError(t, db.Find(&all).Error)

	got, err := repo.ByIDs(context.Background(), []uuid.UUID{all[0].ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, all[0].ID, got[0].ID)
}
