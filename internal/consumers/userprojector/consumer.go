package userprojector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ninakhal/mealcart-backend/internal/carts"
	"github.com/ninakhal/mealcart-backend/internal/users"
	dbpkg "github.com/ninakhal/mealcart-backend/pkg/db"
	"github.com/ninakhal/mealcart-backend/pkg/db/models"
	"github.com/ninakhal/mealcart-backend/pkg/enums"
	"github.com/ninakhal/mealcart-backend/pkg/logger"
	"github.com/ninakhal/mealcart-backend/pkg/metrics"
	"github.com/ninakhal/mealcart-backend/pkg/outbox"
	"github.com/ninakhal/mealcart-backend/pkg/outbox/idempotency"
	"github.com/ninakhal/mealcart-backend/pkg/outbox/payloads"
)

const consumerName = "user-projector"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Consumer watches user-created events and provisions the local user
// projection together with an empty cart.
type Consumer struct {
	usersRepo    *users.Repository
	cartRepo     *carts.Repository
	tx           txRunner
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	metrics      *metrics.ConsumerMetrics
	logg         *logger.Logger
}

// ConsumerParams carries the dependencies for NewConsumer.
type ConsumerParams struct {
	UsersRepo    *users.Repository
	CartRepo     *carts.Repository
	Tx           txRunner
	Subscription *pubsub.Subscriber
	Idempotency  *idempotency.Manager
	Metrics      *metrics.ConsumerMetrics
	Logger       *logger.Logger
}

// NewConsumer builds the user projector.
func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.UsersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Subscription == nil {
		return nil, fmt.Errorf("user subscription required")
	}
	if params.Idempotency == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		usersRepo:    params.UsersRepo,
		cartRepo:     params.CartRepo,
		tx:           params.Tx,
		subscription: params.Subscription,
		idempotency:  params.Idempotency,
		metrics:      params.Metrics,
		logg:         params.Logger,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		started := time.Now()
		result := c.process(ctx, msg)
		c.metrics.ObserveDuration(consumerName, time.Since(started))
		if result.nack {
			c.metrics.IncFailed(consumerName)
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventUserCreated) {
		c.logg.Info(logCtx, "skipping non-user event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	if envelope.EventID == "" {
		c.logg.Error(logCtx, "missing event id", nil)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, consumerName, envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.metrics.IncDuplicate(consumerName)
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload payloads.UserCreatedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, consumerName, envelope.EventID)
		return processResult{nack: true}
	}
	if payload.UserID <= 0 {
		c.logg.Error(logCtx, "missing user id in payload", nil)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithUserID(logCtx, payload.UserID)

	if err := c.provision(ctx, payload); err != nil {
		c.logg.Error(logCtx, "user provisioning failed", err)
		_ = c.idempotency.Delete(ctx, consumerName, envelope.EventID)
		return processResult{nack: true}
	}

	c.metrics.IncProcessed(consumerName)
	c.logg.Info(logCtx, "user provisioned with empty cart")
	return processResult{ack: true}
}

// provision writes the user row and its cart in one transaction. Replays of
// an already-provisioned user are a no-op.
func (c *Consumer) provision(ctx context.Context, payload payloads.UserCreatedEvent) error {
	return c.tx.WithTx(ctx, func(tx *gorm.DB) error {
		usersRepo := c.usersRepo.WithTx(tx)
		cartRepo := c.cartRepo.WithTx(tx)

		exists, err := usersRepo.Exists(ctx, payload.UserID)
		if err != nil {
			return err
		}
		if !exists {
			user := &models.User{ID: payload.UserID}
			if payload.IdentityData != nil {
				user.Email = payload.IdentityData.Email
				user.FullName = payload.IdentityData.FullName
			}
			if err := usersRepo.Insert(ctx, user); err != nil && !dbpkg.IsUniqueViolation(err, "") {
				return err
			}
		}

		cart, err := cartRepo.GetByUserID(ctx, payload.UserID)
		if err != nil {
			return err
		}
		if cart != nil {
			return nil
		}

		newCart := &models.Cart{UserID: payload.UserID, TotalPrice: decimal.Zero}
		if err := cartRepo.Insert(ctx, newCart); err != nil && !dbpkg.IsUniqueViolation(err, "uq_carts_user_id") {
			return err
		}
		return nil
	})
}
