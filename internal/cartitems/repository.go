package cartitems

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ninakhal/mealcart-backend/pkg/db/models"
)

// Repository manages the cart item ledger.
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

// Insert appends a ledger line.
func (r *Repository) Insert(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// Update persists quantity/total changes for an existing line.
func (r *Repository) Update(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"quantity":    item.Quantity,
			"total_price": item.TotalPrice,
		}).Error
}

// GetByCartAndMeal loads the line for a meal within a cart, locking it for
// the duration of the transaction.
func (r *Repository) GetByCartAndMeal(ctx context.Context, cartID, mealID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cart_id = ? AND meal_id = ?", cartID, mealID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetByCartAndID loads a line by its primary key scoped to a cart.
func (r *Repository) GetByCartAndID(ctx context.Context, cartID, itemID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND id = ?", cartID, itemID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListByCart returns all lines of a cart in insertion order.
func (r *Repository) ListByCart(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// CountByCart returns the number of lines in a cart.
func (r *Repository) CountByCart(ctx context.Context, cartID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("cart_id = ?", cartID).
		Count(&count).Error
	return count, err
}

// Delete removes a single line, reporting how many rows matched.
func (r *Repository) Delete(ctx context.Context, cartID, itemID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND id = ?", cartID, itemID).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// DeleteAllForCart drains the ledger for a cart.
func (r *Repository) DeleteAllForCart(ctx context.Context, cartID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
