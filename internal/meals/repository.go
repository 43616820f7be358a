package meals

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ninakhal/mealcart-backend/pkg/db/models"
)

// Repository manages menu persistence.
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

// InsertCategory creates a menu category.
func (r *Repository) InsertCategory(ctx context.Context, category *models.MealCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// InsertMeal creates a menu entry.
func (r *Repository) InsertMeal(ctx context.Context, meal *models.Meal) error {
	return r.db.WithContext(ctx).Create(meal).Error
}

// GetMealByID loads a single meal.
func (r *Repository) GetMealByID(ctx context.Context, id int64) (*models.Meal, error) {
	var meal models.Meal
	err := r.db.WithContext(ctx).First(&meal, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meal, nil
}

// ListCategories returns all menu categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.MealCategory, error) {
	var rows []models.MealCategory
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

// ListMeals returns meals, optionally filtered by category.
func (r *Repository) ListMeals(ctx context.Context, categoryID *int64) ([]models.Meal, error) {
	q := r.db.WithContext(ctx).Order("name ASC")
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	var rows []models.Meal
	err := q.Find(&rows).Error
	return rows, err
}

// CategoryExists reports whether a category row exists.
func (r *Repository) CategoryExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MealCategory{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}
