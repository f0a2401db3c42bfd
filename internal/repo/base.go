// Package repo holds the gorm plumbing shared by the domain repositories.
package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is embedded by repositories so they can be rebound to a transaction.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the handle bound to ctx; a nil ctx returns it unbound.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// WithTx rebinds the base to tx. A nil tx keeps the current handle so callers can pass
// an optional transaction straight through.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// First loads the first T matched by q and conds. A miss returns gorm.ErrRecordNotFound.
func First[T any](q *gorm.DB, conds ...any) (*T, error) {
	var row T
	if err := q.First(&row, conds...).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Count returns how many T rows match q.
func Count[T any](q *gorm.DB) (int64, error) {
	var n int64
	err := q.Model(new(T)).Count(&n).Error
	return n, err
}
