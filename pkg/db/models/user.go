package models

import "time"

// User is a local projection of identities owned by the auth service.
// Rows are written by the user-created consumer, never by the API.
type User struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	Email     *string   `gorm:"column:email"`
	FullName  *string   `gorm:"column:full_name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides GORM's pluralization.
func (User) TableName() string {
	return "users"
}
