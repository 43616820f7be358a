package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart holds the per-user cart header. TotalPrice is a projection maintained
// by the cart-total consumer; the ledger of truth is the cart_items table.
type Cart struct {
	ID         int64           `gorm:"column:id;primaryKey;autoIncrement"`
	UserID     int64           `gorm:"column:user_id;not null;uniqueIndex:uq_carts_user_id"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null;default:0"`
	Items      []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides GORM's pluralization.
func (Cart) TableName() string {
	return "carts"
}
