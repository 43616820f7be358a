package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Meal is a menu entry whose price is snapshotted into cart items on add.
type Meal struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	CategoryID  int64           `gorm:"column:category_id;not null;index"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	ImageURL    *string         `gorm:"column:image_url"`
	IsAvailable bool            `gorm:"column:is_available;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides GORM's pluralization.
func (Meal) TableName() string {
	return "meals"
}
