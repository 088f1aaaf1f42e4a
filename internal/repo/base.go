package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/TThanhhDatt/agent-bot/pkg/retry"
)

// Base provides a shared foundation for domain repositories: a GORM connection plus the
// retry policy applied to every call made through Do and Value.
type Base struct {
	db     *gorm.DB
	policy retry.Policy
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB, policy retry.Policy) Base {
	return Base{db: db, policy: policy}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// WithTx rebinds the base to tx. Calls inside a transaction are attempted once; retrying a
// statement of an aborted transaction cannot succeed.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx, policy: retry.None()}
}

// Transaction runs fn inside a database transaction.
func (b Base) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return b.Do(ctx, func(db *gorm.DB) error {
		return db.Transaction(fn)
	})
}

// Do runs fn under the repository retry policy. Exhausted retries surface fn's own error.
func (b Base) Do(ctx context.Context, fn func(db *gorm.DB) error) error {
	return retry.Do(ctx, b.policy, func(ctx context.Context) error {
		return fn(b.DB(ctx))
	})
}

// Value is Do for calls returning a result.
func Value[T any](ctx context.Context, b Base, fn func(db *gorm.DB) (T, error)) (T, error) {
	return retry.Value(ctx, b.policy, func(ctx context.Context) (T, error) {
		return fn(b.DB(ctx))
	})
}

// First loads a single row, reporting a missing row as (nil, nil).
func First[T any](ctx context.Context, b Base, build func(db *gorm.DB) *gorm.DB) (*T, error) {
	return Value(ctx, b, func(db *gorm.DB) (*T, error) {
		var out T
		if err := build(db).First(&out).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return &out, nil
	})
}
