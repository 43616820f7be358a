package cartitems

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ninakhal/mealcart-backend/internal/carts"
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

type mealLookup interface {
	GetMealByID(ctx context.Context, id int64) (*models.Meal, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes the cart item ledger. Every mutation recomputes the cart
// total from the surviving lines and queues a cart-total event inside the
// same transaction, so the emitted total can never go stale.
type Service interface {
	AddItem(ctx context.Context, userID int64, input AddItemInput) (*models.CartItem, error)
	UpdateItem(ctx context.Context, userID, itemID int64, patch UpdateItemInput) (*models.CartItem, error)
	GetItems(ctx context.Context, userID int64) ([]models.CartItem, error)
	GetItem(ctx context.Context, userID, itemID int64) (*models.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID int64) error
	RemoveAllItems(ctx context.Context, userID int64) error
}

// AddItemInput captures the payload for adding a meal to a cart.
type AddItemInput struct {
	MealID   int64
	Quantity int
}

// UpdateItemInput is a partial update; a nil Quantity means the field was
// absent from the request.
type UpdateItemInput struct {
	Quantity *int
}

type service struct {
	repo     *Repository
	cartRepo *carts.Repository
	meals    mealLookup
	tx       txRunner
	events   eventEmitter
	logg     *logger.Logger
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Repo     *Repository
	CartRepo *carts.Repository
	Meals    mealLookup
	Tx       txRunner
	Events   eventEmitter
	Logger   *logger.Logger
}

// NewService builds a cart item service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart item repository required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Meals == nil {
		return nil, fmt.Errorf("meal lookup required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	return &service{
		repo:     params.Repo,
		cartRepo: params.CartRepo,
		meals:    params.Meals,
		tx:       params.Tx,
		events:   params.Events,
		logg:     params.Logger,
	}, nil
}

// AddItem appends a meal to the cart. If the meal already has a line, the
// quantities merge into the existing line and the original name and price
// snapshots are preserved, even when the menu changed since the first add.
func (s *service) AddItem(ctx context.Context, userID int64, input AddItemInput) (*models.CartItem, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.MealID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "meal id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	var result *models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := s.lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)

		existing, err := repo.GetByCartAndMeal(ctx, cart.ID, input.MealID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
		}

		if existing != nil {
			// The line already carries a frozen snapshot; a meal retired or
			// disabled since the first add still merges.
			existing.Quantity += input.Quantity
			existing.TotalPrice = existing.Price.Mul(decimal.NewFromInt(int64(existing.Quantity)))
			if err := repo.Update(ctx, existing); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "merge cart item")
			}
			result = existing
		} else {
			meal, err := s.meals.GetMealByID(ctx, input.MealID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load meal")
			}
			if meal == nil {
				return pkgerrors.New(pkgerrors.CodeNotFound, "meal not found")
			}
			if !meal.IsAvailable {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "meal is not available")
			}

			item := &models.CartItem{
				CartID:     cart.ID,
				MealID:     meal.ID,
				MealName:   meal.Name,
				Quantity:   input.Quantity,
				Price:      meal.Price,
				TotalPrice: meal.Price.Mul(decimal.NewFromInt(int64(input.Quantity))),
			}
			if err := repo.Insert(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert cart item")
			}
			result = item
		}

		return s.emitTotal(ctx, tx, cart, userID)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateItem applies a partial update to a ledger line. A quantity of zero
// removes the line; an empty patch is rejected.
func (s *service) UpdateItem(ctx context.Context, userID, itemID int64, patch UpdateItemInput) (*models.CartItem, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if itemID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item id is required")
	}
	if patch.Quantity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one field is required")
	}
	if *patch.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	var result *models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := s.lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)

		item, err := repo.GetByCartAndID(ctx, cart.ID, itemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
		}
		if item == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}

		if *patch.Quantity == 0 {
			if _, err := repo.Delete(ctx, cart.ID, item.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
			}
			result = nil
		} else {
			item.Quantity = *patch.Quantity
			item.TotalPrice = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			if err := repo.Update(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
			}
			result = item
		}

		return s.emitTotal(ctx, tx, cart, userID)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetItems lists the ledger lines of the user's cart.
func (s *service) GetItems(ctx context.Context, userID int64) ([]models.CartItem, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByCart(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart items")
	}
	return rows, nil
}

// GetItem loads one ledger line of the user's cart.
func (s *service) GetItem(ctx context.Context, userID, itemID int64) (*models.CartItem, error) {
	if itemID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item id is required")
	}
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetByCartAndID(ctx, cart.ID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return item, nil
}

// RemoveItem deletes one ledger line.
func (s *service) RemoveItem(ctx context.Context, userID, itemID int64) error {
	if userID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if itemID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart item id is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := s.lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)

		affected, err := repo.Delete(ctx, cart.ID, itemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}

		return s.emitTotal(ctx, tx, cart, userID)
	})
}

// RemoveAllItems drains the cart ledger. An already-empty cart is an error
// so callers can distinguish a no-op from a real clear.
func (s *service) RemoveAllItems(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := s.lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)

		affected, err := repo.DeleteAllForCart(ctx, cart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "drain cart items")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart items not found")
		}

		return s.emitTotal(ctx, tx, cart, userID)
	})
}

func (s *service) loadCart(ctx context.Context, userID int64) (*models.Cart, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return cart, nil
}

func (s *service) lockCart(ctx context.Context, tx *gorm.DB, userID int64) (*models.Cart, error) {
	cart, err := s.cartRepo.WithTx(tx).GetByUserIDForUpdate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return cart, nil
}

// emitTotal recomputes the ledger sum and queues the cart-total event in the
// mutation's transaction. The total is absolute, never an increment.
func (s *service) emitTotal(ctx context.Context, tx *gorm.DB, cart *models.Cart, userID int64) error {
	total, err := s.cartRepo.WithTx(tx).SumItemTotals(ctx, cart.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum cart totals")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventCartTotalChanged,
		AggregateType: enums.AggregateCart,
		AggregateID:   cart.ID,
		Data: payloads.CartTotalChangedEvent{
			UserID:   userID,
			CartData: payloads.CartData{TotalPrice: total},
		},
		Version: 1,
	}
	if err := s.events.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue cart total event")
	}
	return nil
}
