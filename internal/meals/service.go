package meals

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ninakhal/mealcart-backend/pkg/db/models"
	pkgerrors "github.com/ninakhal/mealcart-backend/pkg/errors"
)

// Service exposes the read surface of the menu plus admin-side creation.
type Service interface {
	GetMeal(ctx context.Context, id int64) (*models.Meal, error)
	ListMeals(ctx context.Context, categoryID *int64) ([]models.Meal, error)
	ListCategories(ctx context.Context) ([]models.MealCategory, error)
	CreateCategory(ctx context.Context, name string) (*models.MealCategory, error)
	CreateMeal(ctx context.Context, input CreateMealInput) (*models.Meal, error)
}

// CreateMealInput captures the payload for a new menu entry.
type CreateMealInput struct {
	CategoryID  int64
	Name        string
	Description *string
	Price       decimal.Decimal
	ImageURL    *string
}

type service struct {
	repo *Repository
}

// NewService builds a meal service backed by the provided repository.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("meal repository required")
	}
	return &service{repo: repo}, nil
}

// GetMeal loads a meal or returns a not-found error.
func (s *service) GetMeal(ctx context.Context, id int64) (*models.Meal, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "meal id is required")
	}
	meal, err := s.repo.GetMealByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load meal")
	}
	if meal == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "meal not found")
	}
	return meal, nil
}

// ListMeals lists menu entries, optionally scoped to a category.
func (s *service) ListMeals(ctx context.Context, categoryID *int64) ([]models.Meal, error) {
	rows, err := s.repo.ListMeals(ctx, categoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list meals")
	}
	return rows, nil
}

// ListCategories lists all menu categories.
func (s *service) ListCategories(ctx context.Context) ([]models.MealCategory, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return rows, nil
}

// CreateCategory creates a menu category.
func (s *service) CreateCategory(ctx context.Context, name string) (*models.MealCategory, error) {
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	category := &models.MealCategory{Name: name}
	if err := s.repo.InsertCategory(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}
	return category, nil
}

// CreateMeal creates a menu entry under an existing category.
func (s *service) CreateMeal(ctx context.Context, input CreateMealInput) (*models.Meal, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "meal name is required")
	}
	if input.CategoryID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "meal price cannot be negative")
	}

	exists, err := s.repo.CategoryExists(ctx, input.CategoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check category")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "meal category not found")
	}

	meal := &models.Meal{
		CategoryID:  input.CategoryID,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    input.ImageURL,
		IsAvailable: true,
	}
	if err := s.repo.InsertMeal(ctx, meal); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create meal")
	}
	return meal, nil
}
