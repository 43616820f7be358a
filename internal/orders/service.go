package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ninakhal/mealcart-backend/internal/cartitems"
	"github.com/ninakhal/mealcart-backend/internal/carts"
	dbpkg "github.com/ninakhal/mealcart-backend/pkg/db"
	"github.com/ninakhal/mealcart-backend/pkg/db/models"
	"github.com/ninakhal/mealcart-backend/pkg/enums"
	pkgerrors "github.com/ninakhal/mealcart-backend/pkg/errors"
	"github.com/ninakhal/mealcart-backend/pkg/logger"
	"github.com/ninakhal/mealcart-backend/pkg/outbox"
	"github.com/ninakhal/mealcart-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service assembles orders out of cart snapshots.
type Service interface {
	CreateOrder(ctx context.Context, userID int64, input CreateOrderInput) (*models.Order, error)
	GetOrders(ctx context.Context, userID int64) ([]models.Order, error)
	GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error)
	DeleteOrder(ctx context.Context, userID, orderID int64) error
	DeleteOrders(ctx context.Context, userID int64) error
}

// CreateOrderInput captures the payload for placing an order.
type CreateOrderInput struct {
	PaymentMethod  *enums.PaymentMethod
	IdempotencyKey *string
	Delivery       DeliveryInput
}

// DeliveryInput carries the optional delivery details stored on the order.
type DeliveryInput struct {
	Address       *string
	Latitude      *float64
	Longitude     *float64
	House         *string
	Entrance      *string
	Level         *string
	Apartment     *string
	Notes         *string
	Phone         *string
	ScheduledTime *time.Time
}

type service struct {
	repo      *Repository
	cartRepo  *carts.Repository
	itemsRepo *cartitems.Repository
	tx        txRunner
	events    eventEmitter
	logg      *logger.Logger
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Repo      *Repository
	CartRepo  *carts.Repository
	ItemsRepo *cartitems.Repository
	Tx        txRunner
	Events    eventEmitter
	Logger    *logger.Logger
}

// NewService builds an order service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.ItemsRepo == nil {
		return nil, fmt.Errorf("cart item repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	return &service{
		repo:      params.Repo,
		cartRepo:  params.CartRepo,
		itemsRepo: params.ItemsRepo,
		tx:        params.Tx,
		events:    params.Events,
		logg:      params.Logger,
	}, nil
}

// CreateOrder snapshots the cart into an order, drains the cart and queues
// the zero-total cart event, all in one transaction. Replays carrying the
// same idempotency key return the original order.
func (s *service) CreateOrder(ctx context.Context, userID int64, input CreateOrderInput) (*models.Order, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.PaymentMethod != nil && !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	if input.IdempotencyKey != nil && *input.IdempotencyKey != "" {
		existing, err := s.repo.GetByIdempotencyKey(ctx, *input.IdempotencyKey)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check idempotency key")
		}
		if existing != nil {
			if existing.UserID != userID {
				return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key already used")
			}
			return existing, nil
		}
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := s.cartRepo.WithTx(tx).GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if cart == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}

		itemsRepo := s.itemsRepo.WithTx(tx)
		items, err := itemsRepo.ListByCart(ctx, cart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart items")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart items not found")
		}

		total := decimal.Zero
		lines := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			total = total.Add(item.TotalPrice)
			mealID := item.MealID
			lines = append(lines, models.OrderItem{
				MealID:     &mealID,
				MealName:   item.MealName,
				Quantity:   item.Quantity,
				Price:      item.Price,
				TotalPrice: item.TotalPrice,
			})
		}

		order = &models.Order{
			UserID:         userID,
			CartID:         cart.ID,
			TotalPrice:     total,
			Status:         enums.OrderStatusPending,
			PaymentStatus:  enums.PaymentStatusPending,
			PaymentMethod:  input.PaymentMethod,
			IdempotencyKey: normalizeKey(input.IdempotencyKey),
			Address:        input.Delivery.Address,
			Latitude:       input.Delivery.Latitude,
			Longitude:      input.Delivery.Longitude,
			House:          input.Delivery.House,
			Entrance:       input.Delivery.Entrance,
			Level:          input.Delivery.Level,
			Apartment:      input.Delivery.Apartment,
			Notes:          input.Delivery.Notes,
			Phone:          input.Delivery.Phone,
			ScheduledTime:  input.Delivery.ScheduledTime,
			Items:          lines,
		}
		if err := s.repo.WithTx(tx).Insert(ctx, order); err != nil {
			if dbpkg.IsUniqueViolation(err, "uq_orders_idempotency_key") {
				return pkgerrors.New(pkgerrors.CodeIdempotency, "order already placed for idempotency key")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		if _, err := itemsRepo.DeleteAllForCart(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "drain cart items")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventCartTotalChanged,
			AggregateType: enums.AggregateCart,
			AggregateID:   cart.ID,
			Data: payloads.CartTotalChangedEvent{
				UserID:   userID,
				CartData: payloads.CartData{TotalPrice: decimal.Zero},
			},
			Version: 1,
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue cart total event")
		}
		return nil
	})
	if err != nil {
		// A concurrent replay may have won the key race after our lookup.
		if pkgerrors.HasCode(err, pkgerrors.CodeIdempotency) && input.IdempotencyKey != nil {
			if existing, lookupErr := s.repo.GetByIdempotencyKey(ctx, *input.IdempotencyKey); lookupErr == nil && existing != nil && existing.UserID == userID {
				return existing, nil
			}
		}
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithUserID(ctx, userID)
		s.logg.Info(s.logg.WithOrderID(logCtx, order.ID), "order placed")
	}
	return order, nil
}

// GetOrders lists the user's orders, newest first. A user with no order
// history gets a not-found error.
func (s *service) GetOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "orders not found")
	}
	return rows, nil
}

// GetOrder loads one order owned by the user.
func (s *service) GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if orderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.GetByUserAndID(ctx, userID, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// DeleteOrder removes one order owned by the user.
func (s *service) DeleteOrder(ctx context.Context, userID, orderID int64) error {
	if userID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if orderID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	affected, err := s.repo.Delete(ctx, userID, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete order")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}

// DeleteOrders removes every order owned by the user.
func (s *service) DeleteOrders(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	affected, err := s.repo.DeleteAllForUser(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete orders")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "orders not found")
	}
	return nil
}

func normalizeKey(key *string) *string {
	if key == nil || *key == "" {
		return nil
	}
	return key
}
