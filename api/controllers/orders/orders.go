package orders

import (
	"net/http"
	"strings"
	"time"

	"github.com/ninakhal/mealcart-backend/api/responses"
	"github.com/ninakhal/mealcart-backend/api/validators"
	internalorders "github.com/ninakhal/mealcart-backend/internal/orders"
	"github.com/ninakhal/mealcart-backend/pkg/db/models"
	"github.com/ninakhal/mealcart-backend/pkg/enums"
	pkgerrors "github.com/ninakhal/mealcart-backend/pkg/errors"
	"github.com/ninakhal/mealcart-backend/pkg/logger"
)

type orderItemView struct {
	ID         int64  `json:"id"`
	MealID     *int64 `json:"meal_id"`
	MealName   string `json:"meal_name"`
	Quantity   int    `json:"quantity"`
	Price      string `json:"price"`
	TotalPrice string `json:"total_price"`
}

type orderView struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	TotalPrice    string          `json:"total_price"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	PaymentMethod *string         `json:"payment_method,omitempty"`
	Address       *string         `json:"address,omitempty"`
	Latitude      *float64        `json:"latitude,omitempty"`
	Longitude     *float64        `json:"longitude,omitempty"`
	House         *string         `json:"house,omitempty"`
	Entrance      *string         `json:"entrance,omitempty"`
	Level         *string         `json:"level,omitempty"`
	Apartment     *string         `json:"apartment,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	Phone         *string         `json:"phone,omitempty"`
	ScheduledTime *time.Time      `json:"scheduled_time,omitempty"`
	DeliveredAt   *time.Time      `json:"delivered_at,omitempty"`
	Items         []orderItemView `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toOrderView(order models.Order) orderView {
	items := make([]orderItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemView{
			ID:         item.ID,
			MealID:     item.MealID,
			MealName:   item.MealName,
			Quantity:   item.Quantity,
			Price:      item.Price.StringFixed(2),
			TotalPrice: item.TotalPrice.StringFixed(2),
		})
	}
	view := orderView{
		ID:            order.ID,
		UserID:        order.UserID,
		TotalPrice:    order.TotalPrice.StringFixed(2),
		Status:        order.Status.String(),
		PaymentStatus: order.PaymentStatus.String(),
		Address:       order.Address,
		Latitude:      order.Latitude,
		Longitude:     order.Longitude,
		House:         order.House,
		Entrance:      order.Entrance,
		Level:         order.Level,
		Apartment:     order.Apartment,
		Notes:         order.Notes,
		Phone:         order.Phone,
		ScheduledTime: order.ScheduledTime,
		DeliveredAt:   order.DeliveredAt,
		Items:         items,
		CreatedAt:     order.CreatedAt,
	}
	if order.PaymentMethod != nil {
		method := order.PaymentMethod.String()
		view.PaymentMethod = &method
	}
	return view
}

type createOrderRequest struct {
	PaymentMethod *string    `json:"payment_method" validate:"omitempty,oneof=cash card payme click"`
	Address       *string    `json:"address" validate:"omitempty,max=512"`
	Latitude      *float64   `json:"latitude" validate:"omitempty,latitude"`
	Longitude     *float64   `json:"longitude" validate:"omitempty,longitude"`
	House         *string    `json:"house" validate:"omitempty,max=32"`
	Entrance      *string    `json:"entrance" validate:"omitempty,max=32"`
	Level         *string    `json:"level" validate:"omitempty,max=32"`
	Apartment     *string    `json:"apartment" validate:"omitempty,max=32"`
	Notes         *string    `json:"notes" validate:"omitempty,max=1024"`
	Phone         *string    `json:"phone" validate:"omitempty,max=32"`
	ScheduledTime *time.Time `json:"scheduled_time"`
}

// Create snapshots the user's cart into an order.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.Int64URLParam(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// The request body is optional; an empty POST places a cash-later order.
		var body createOrderRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		input := internalorders.CreateOrderInput{
			Delivery: internalorders.DeliveryInput{
				Address:       body.Address,
				Latitude:      body.Latitude,
				Longitude:     body.Longitude,
				House:         body.House,
				Entrance:      body.Entrance,
				Level:         body.Level,
				Apartment:     body.Apartment,
				Notes:         body.Notes,
				Phone:         body.Phone,
				ScheduledTime: body.ScheduledTime,
			},
		}
		if body.PaymentMethod != nil {
			method, parseErr := enums.ParsePaymentMethod(*body.PaymentMethod)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method"))
				return
			}
			input.PaymentMethod = &method
		}
		if key := strings.TrimSpace(r.Header.Get("Idempotency-Key")); key != "" {
			input.IdempotencyKey = &key
		}

		order, err := svc.CreateOrder(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toOrderView(*order))
	}
}

// List returns the user's orders, newest first.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.Int64URLParam(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.GetOrders(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]orderView, 0, len(orders))
		for _, order := range orders {
			views = append(views, toOrderView(order))
		}
		responses.WriteSuccess(w, views)
	}
}

// Detail returns one order owned by the user.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.Int64URLParam(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.Int64URLParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderView(*order))
	}
}

// Delete removes one order owned by the user.
func Delete(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.Int64URLParam(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.Int64URLParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteOrder(r.Context(), userID, orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// DeleteAll removes every order owned by the user.
func DeleteAll(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.Int64URLParam(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteOrders(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
