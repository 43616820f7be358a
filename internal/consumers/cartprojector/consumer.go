package cartprojector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/shopspring/decimal"

	"github.com/ninakhal/mealcart-backend/pkg/enums"
	pkgerrors "github.com/ninakhal/mealcart-backend/pkg/errors"
	"github.com/ninakhal/mealcart-backend/pkg/logger"
	"github.com/ninakhal/mealcart-backend/pkg/metrics"
	"github.com/ninakhal/mealcart-backend/pkg/outbox"
	"github.com/ninakhal/mealcart-backend/pkg/outbox/idempotency"
	"github.com/ninakhal/mealcart-backend/pkg/outbox/payloads"
)

const consumerName = "cart-projector"

type totalApplier interface {
	ApplyTotal(ctx context.Context, userID int64, total decimal.Decimal) error
}

// Consumer watches cart-total events and projects the absolute total onto
// the cart header. It is the only writer of carts.total_price.
type Consumer struct {
	carts        totalApplier
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	metrics      *metrics.ConsumerMetrics
	logg         *logger.Logger
}

// NewConsumer builds the cart total projector.
func NewConsumer(carts totalApplier, subscription *pubsub.Subscriber, manager *idempotency.Manager, m *metrics.ConsumerMetrics, logg *logger.Logger) (*Consumer, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("cart subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		carts:        carts,
		subscription: subscription,
		idempotency:  manager,
		metrics:      m,
		logg:         logg,
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

	if eventType != string(enums.EventCartTotalChanged) {
		c.logg.Info(logCtx, "skipping non-cart event")
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

	var payload payloads.CartTotalChangedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, consumerName, envelope.EventID)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithUserID(logCtx, payload.UserID)
	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"total_price": payload.CartData.TotalPrice.String(),
	})

	if err := c.carts.ApplyTotal(ctx, payload.UserID, payload.CartData.TotalPrice); err != nil {
		// Out-of-order delivery can beat the user projection; redelivery
		// resolves once the cart row exists.
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			c.logg.Warn(c.logg.WithField(logCtx, "error", err.Error()), "cart missing, retrying event")
		} else {
			c.logg.Error(logCtx, "cart total projection failed", err)
		}
		_ = c.idempotency.Delete(ctx, consumerName, envelope.EventID)
		return processResult{nack: true}
	}

	c.metrics.IncProcessed(consumerName)
	c.logg.Info(logCtx, "cart total projected")
	return processResult{ack: true}
}
