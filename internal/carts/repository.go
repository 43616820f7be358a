package carts

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ninakhal/mealcart-backend/pkg/db/models"
)

// Repository manages persistent cart headers.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided DB handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Insert creates a new cart row.
func (r *Repository) Insert(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

// GetByUserID loads the cart owned by the given user.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// GetByUserIDForUpdate loads the cart with a row lock so concurrent mutations
// of the same cart serialize on the header row.
func (r *Repository) GetByUserIDForUpdate(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// UpdateTotal overwrites the projected total for a cart.
func (r *Repository) UpdateTotal(ctx context.Context, cartID int64, total decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("total_price", total).Error
}

// DeleteByUserID removes the cart owned by the given user.
func (r *Repository) DeleteByUserID(ctx context.Context, userID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Cart{})
	return res.RowsAffected, res.Error
}

// SumItemTotals computes the authoritative cart total from the item ledger.
// Callers mutating items must run this inside the same transaction as the
// mutation so the result cannot go stale.
func (r *Repository) SumItemTotals(ctx context.Context, cartID int64) (decimal.Decimal, error) {
	var raw *string
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Select("CAST(COALESCE(SUM(total_price), 0) AS TEXT)").
		Where("cart_id = ?", cartID).
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	total, err := decimal.NewFromString(*raw)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
