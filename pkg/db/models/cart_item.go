package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one ledger line of a cart. MealName and Price are snapshotted
// at the time the meal was first added and never refreshed afterwards;
// TotalPrice is always Price * Quantity.
type CartItem struct {
	ID         int64           `gorm:"column:id;primaryKey;autoIncrement"`
	CartID     int64           `gorm:"column:cart_id;not null;uniqueIndex:uq_cart_items_cart_meal"`
	MealID     int64           `gorm:"column:meal_id;not null;uniqueIndex:uq_cart_items_cart_meal"`
	MealName   string          `gorm:"column:meal_name;not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides GORM's pluralization.
func (CartItem) TableName() string {
	return "cart_items"
}
