package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TThanhhDatt/agent-bot/internal/repo"
	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/retry"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 20
)

// Repository defines the catalog reads used by the product agent.
type Repository interface {
	SearchByKeyword(ctx context.Context, keyword string, limit int) ([]models.Product, error)
	ByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	SearchQnA(ctx context.Context, keyword string, limit int) ([]models.QnA, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB, policy retry.Policy) Repository {
	return &repository{base: repo.NewBase(db, policy)}
}

// SearchByKeyword matches every term of keyword against name, brand and descriptions.
func (r *repository) SearchByKeyword(ctx context.Context, keyword string, limit int) ([]models.Product, error) {
	terms := searchTerms(keyword)
	if len(terms) == 0 {
		return nil, nil
	}
	limit = normalizeLimit(limit)
	return repo.Value(ctx, r.base, func(db *gorm.DB) ([]models.Product, error) {
		qb := db.Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("price ASC")
		})
		for _, term := range terms {
			pattern := "%" + term + "%"
			qb = qb.Where(
				"(LOWER(name) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(brief_description) LIKE ? OR LOWER(description) LIKE ?)",
				pattern, pattern, pattern, pattern,
			)
		}
		var out []models.Product
		err := qb.Order("name ASC").Limit(limit).Find(&out).Error
		return out, err
	})
}

func (r *repository) ByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return repo.Value(ctx, r.base, func(db *gorm.DB) ([]models.Product, error) {
		var out []models.Product
		err := db.Preload("Variants").Where("id IN ?", ids).Find(&out).Error
		return out, err
	})
}

// SearchQnA returns curated answers whose question mentions any term of keyword.
func (r *repository) SearchQnA(ctx context.Context, keyword string, limit int) ([]models.QnA, error) {
	terms := searchTerms(keyword)
	if len(terms) == 0 {
		return nil, nil
	}
	limit = normalizeLimit(limit)
	return repo.Value(ctx, r.base, func(db *gorm.DB) ([]models.QnA, error) {
		var clauses []string
		var args []any
		for _, term := range terms {
			clauses = append(clauses, "LOWER(question) LIKE ?")
			args = append(args, "%"+term+"%")
		}
		var out []models.QnA
		err := db.Where(strings.Join(clauses, " OR "), args...).
			Order("created_at DESC").
			Limit(limit).
			Find(&out).Error
		return out, err
	})
}

func searchTerms(keyword string) []string {
	fields := strings.Fields(strings.ToLower(keyword))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultSearchLimit
	}
	if limit > maxSearchLimit {
		return maxSearchLimit
	}
	return limit
}
