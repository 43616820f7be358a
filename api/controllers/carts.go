package controllers

import (
	"net/http"

	"github.com/ninakhal/mealcart-backend/api/responses"
	"github.com/ninakhal/mealcart-backend/api/validators"
	"github.com/ninakhal/mealcart-backend/internal/carts"
	"github.com/ninakhal/mealcart-backend/pkg/logger"
)

type cartView struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"user_id"`
	TotalPrice string `json:"total_price"`
}

// CartDetail returns the user's cart header with its projected total.
func CartDetail(svc carts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.Int64URLParam(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.GetCartByUserID(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartView{
			ID:         cart.ID,
			UserID:     cart.UserID,
			TotalPrice: cart.TotalPrice.StringFixed(2),
		})
	}
}
