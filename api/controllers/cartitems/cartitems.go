package cartitems

import (
	"net/http"

	"github.com/ninakhal/mealcart-backend/api/responses"
	"github.com/ninakhal/mealcart-backend/api/validators"
	internalcartitems "github.com/ninakhal/mealcart-backend/internal/cartitems"
	"github.com/ninakhal/mealcart-backend/pkg/db/models"
	"github.com/ninakhal/mealcart-backend/pkg/logger"
)

type itemView struct {
	ID         int64  `json:"id"`
	CartID     int64  `json:"cart_id"`
	MealID     int64  `json:"meal_id"`
	MealName   string `json:"meal_name"`
	Quantity   int    `json:"quantity"`
	Price      string `json:"price"`
	TotalPrice string `json:"total_price"`
}

func toItemView(item models.CartItem) itemView {
	return itemView{
		ID:         item.ID,
		CartID:     item.CartID,
		MealID:     item.MealID,
		MealName:   item.MealName,
		Quantity:   item.Quantity,
		Price:      item.Price.StringFixed(2),
		TotalPrice: item.TotalPrice.StringFixed(2),
	}
}

type addItemRequest struct {
	MealID   int64 `json:"meal_id" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"required,min=1"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" validate:"omitempty,min=0"`
}

// Add appends a meal to the user's cart.
func Add(svc internalcartitems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.Int64URLParam(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AddItem(r.Context(), userID, internalcartitems.AddItemInput{
			MealID:   body.MealID,
			Quantity: body.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toItemView(*item))
	}
}

// Update applies a partial update; quantity zero removes the line.
func Update(svc internalcartitems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.Int64URLParam(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.Int64URLParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateItem(r.Context(), userID, itemID, internalcartitems.UpdateItemInput{
			Quantity: body.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if item == nil {
			responses.WriteSuccess(w, map[string]string{"status": "removed"})
			return
		}
		responses.WriteSuccess(w, toItemView(*item))
	}
}

// List returns the ledger lines of the user's cart.
func List(svc internalcartitems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.Int64URLParam(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.GetItems(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]itemView, 0, len(items))
		for _, item := range items {
			views = append(views, toItemView(item))
		}
		responses.WriteSuccess(w, views)
	}
}

// Detail returns one ledger line.
func Detail(svc internalcartitems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.Int64URLParam(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.Int64URLParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetItem(r.Context(), userID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toItemView(*item))
	}
}

// Remove deletes one ledger line.
func Remove(svc internalcartitems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.Int64URLParam(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.Int64URLParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveItem(r.Context(), userID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

// RemoveAll drains the user's cart.
func RemoveAll(svc internalcartitems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.Int64URLParam(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveAllItems(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}
