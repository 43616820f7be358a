package models

import "time"

// MealCategory groups meals on the menu.
type MealCategory struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:uq_meal_categories_name"`
	Meals     []Meal    `gorm:"foreignKey:CategoryID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides GORM's pluralization.
func (MealCategory) TableName() string {
	return "meal_categories"
}
