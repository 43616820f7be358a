package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem captures the snapshot of each cart line copied into an order.
// MealID is nullable so a retired meal does not erase order history.
type OrderItem struct {
	ID         int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID    int64           `gorm:"column:order_id;not null;index"`
	MealID     *int64          `gorm:"column:meal_id"`
	MealName   string          `gorm:"column:meal_name;not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides GORM's pluralization.
func (OrderItem) TableName() string {
	return "order_items"
}
