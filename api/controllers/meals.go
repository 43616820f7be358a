package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ninakhal/mealcart-backend/api/responses"
	"github.com/ninakhal/mealcart-backend/api/validators"
	"github.com/ninakhal/mealcart-backend/internal/meals"
	"github.com/ninakhal/mealcart-backend/pkg/db/models"
	pkgerrors "github.com/ninakhal/mealcart-backend/pkg/errors"
	"github.com/ninakhal/mealcart-backend/pkg/logger"
)

type mealView struct {
	ID          int64   `json:"id"`
	CategoryID  int64   `json:"category_id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Price       string  `json:"price"`
	ImageURL    *string `json:"image_url,omitempty"`
	IsAvailable bool    `json:"is_available"`
}

type categoryView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func toMealView(meal models.Meal) mealView {
	return mealView{
		ID:          meal.ID,
		CategoryID:  meal.CategoryID,
		Name:        meal.Name,
		Description: meal.Description,
		Price:       meal.Price.StringFixed(2),
		ImageURL:    meal.ImageURL,
		IsAvailable: meal.IsAvailable,
	}
}

// MealsList returns the menu, optionally scoped by category_id.
func MealsList(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := validators.OptionalInt64Query(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListMeals(r.Context(), categoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]mealView, 0, len(rows))
		for _, meal := range rows {
			views = append(views, toMealView(meal))
		}
		responses.WriteSuccess(w, views)
	}
}

// MealDetail returns one menu entry.
func MealDetail(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mealID, err := validators.Int64URLParam(r, "mealID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		meal, err := svc.GetMeal(r.Context(), mealID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toMealView(*meal))
	}
}

// MealCategoriesList returns all menu categories.
func MealCategoriesList(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]categoryView, 0, len(rows))
		for _, category := range rows {
			views = append(views, categoryView{ID: category.ID, Name: category.Name})
		}
		responses.WriteSuccess(w, views)
	}
}

type createCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// MealCategoryCreate adds a menu category.
func MealCategoryCreate(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createCategoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.CreateCategory(r.Context(), body.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, categoryView{ID: category.ID, Name: category.Name})
	}
}

type createMealRequest struct {
	CategoryID  int64   `json:"category_id" validate:"required,gt=0"`
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Price       string  `json:"price" validate:"required"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
}

// MealCreate adds a menu entry.
func MealCreate(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createMealRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := decimal.NewFromString(body.Price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid price"))
			return
		}

		meal, err := svc.CreateMeal(r.Context(), meals.CreateMealInput{
			CategoryID:  body.CategoryID,
			Name:        body.Name,
			Description: body.Description,
			Price:       price,
			ImageURL:    body.ImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toMealView(*meal))
	}
}
