package carts

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/ninakhal/mealcart-backend/pkg/db"
	"github.com/ninakhal/mealcart-backend/pkg/db/models"
	pkgerrors "github.com/ninakhal/mealcart-backend/pkg/errors"
	"github.com/ninakhal/mealcart-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart header operations. Cart headers are created by the
// user-created consumer and their totals are written by the cart-total
// consumer; the HTTP layer only reads them.
type Service interface {
	CreateCart(ctx context.Context, userID int64) (*models.Cart, error)
	GetCartByUserID(ctx context.Context, userID int64) (*models.Cart, error)
	ApplyTotal(ctx context.Context, userID int64, total decimal.Decimal) error
	DeleteCart(ctx context.Context, userID int64) error
}

type service struct {
	repo *Repository
	tx   txRunner
	logg *logger.Logger
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Repo   *Repository
	Tx     txRunner
	Logger *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo: params.Repo,
		tx:   params.Tx,
		logg: params.Logger,
	}, nil
}

// CreateCart provisions an empty cart for a newly registered user.
func (s *service) CreateCart(ctx context.Context, userID int64) (*models.Cart, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	cart := &models.Cart{
		UserID:     userID,
		TotalPrice: decimal.Zero,
	}
	if err := s.repo.Insert(ctx, cart); err != nil {
		if dbpkg.IsUniqueViolation(err, "uq_carts_user_id") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart already exists for user")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}

	if s.logg != nil {
		logCtx := s.logg.WithUserID(ctx, userID)
		s.logg.Info(s.logg.WithCartID(logCtx, cart.ID), "cart created")
	}
	return cart, nil
}

// GetCartByUserID returns the user's cart or a not-found error.
func (s *service) GetCartByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cart, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return cart, nil
}

// ApplyTotal overwrites the projected cart total with the absolute value
// carried by a cart-total event.
func (s *service) ApplyTotal(ctx context.Context, userID int64, total decimal.Decimal) error {
	if userID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if total.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "total price cannot be negative")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if cart == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		if err := repo.UpdateTotal(ctx, cart.ID, total); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart total")
		}
		return nil
	})
}

// DeleteCart removes the user's cart and, via cascade, its items.
func (s *service) DeleteCart(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	affected, err := s.repo.DeleteByUserID(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return nil
}
