package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ninakhal/mealcart-backend/pkg/enums"
)

// Order is an immutable snapshot of a cart taken at placement time. CartID
// is a historical reference only; the cart row keeps living after placement.
type Order struct {
	ID             int64                `gorm:"column:id;primaryKey;autoIncrement"`
	UserID         int64                `gorm:"column:user_id;not null;index"`
	CartID         int64                `gorm:"column:cart_id;not null"`
	TotalPrice     decimal.Decimal      `gorm:"column:total_price;type:numeric(12,2);not null"`
	Status         enums.OrderStatus    `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentStatus  enums.PaymentStatus  `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	PaymentMethod  *enums.PaymentMethod `gorm:"column:payment_method;type:payment_method"`
	IdempotencyKey *string              `gorm:"column:idempotency_key;uniqueIndex:uq_orders_idempotency_key"`
	Address        *string              `gorm:"column:address"`
	Latitude       *float64             `gorm:"column:latitude"`
	Longitude      *float64             `gorm:"column:longitude"`
	House          *string              `gorm:"column:house"`
	Entrance       *string              `gorm:"column:entrance"`
	Level          *string              `gorm:"column:level"`
	Apartment      *string              `gorm:"column:apartment"`
	Notes          *string              `gorm:"column:notes"`
	Phone          *string              `gorm:"column:phone"`
	ScheduledTime  *time.Time           `gorm:"column:scheduled_time"`
	DeliveredAt    *time.Time           `gorm:"column:delivered_at"`
	Items          []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides GORM's pluralization.
func (Order) TableName() string {
	return "orders"
}
