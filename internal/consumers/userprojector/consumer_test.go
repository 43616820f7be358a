package userprojector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ninakhal/mealcart-backend/internal/carts"
	"github.com/ninakhal/mealcart-backend/internal/users"
	"github.com/ninakhal/mealcart-backend/pkg/db/models"
	"github.com/ninakhal/mealcart-backend/pkg/enums"
	"github.com/ninakhal/mealcart-backend/pkg/logger"
	"github.com/ninakhal/mealcart-backend/pkg/metrics"
	"github.com/ninakhal/mealcart-backend/pkg/outbox"
	"github.com/ninakhal/mealcart-backend/pkg/outbox/idempotency"
	"github.com/ninakhal/mealcart-backend/pkg/outbox/payloads"
)

func setupUserProjectorTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	usersDDL := `
CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY,
  email TEXT,
  full_name TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartsDDL := `
CREATE TABLE IF NOT EXISTS carts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL UNIQUE,
  total_price TEXT NOT NULL DEFAULT '0',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(usersDDL).Error)
	require.NoError(t, db.Exec(cartsDDL).Error)
	return db
}

type memStore struct {
	keys map[string]string
}

func newMemStore() *memStore {
	return &memStore{keys: map[string]string{}}
}

func (m *memStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := m.keys[key]
	if !ok {
		return "", errors.New("key not found")
	}
	return value, nil
}

func (m *memStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("mc:idempotency:%s:%s", scope, id)
}

func (m *memStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.keys, key)
	}
	return nil
}

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

func newTestConsumer(t *testing.T, db *gorm.DB) *Consumer {
	t.Helper()
	manager, err := idempotency.NewManager(newMemStore(), time.Hour)
	require.NoError(t, err)
	return &Consumer{
		usersRepo:   users.NewRepository(db),
		cartRepo:    carts.NewRepository(db),
		tx:          gormTxRunner{db: db},
		idempotency: manager,
		metrics:     metrics.NewConsumerMetrics(nil),
		logg:        logger.New(logger.Options{ServiceName: "test"}),
	}
}

func userEventMessage(t *testing.T, eventID string, userID int64, email string) *pubsub.Message {
	t.Helper()
	payload, err := json.Marshal(payloads.UserCreatedEvent{
		UserID: userID,
		IdentityData: &payloads.IdentityData{
			Email: &email,
		},
	})
	require.NoError(t, err)
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	})
	require.NoError(t, err)
	return &pubsub.Message{
		ID:         "msg-" + eventID,
		Data:       envelope,
		Attributes: map[string]string{"event_type": string(enums.EventUserCreated)},
	}
}

func TestProcessProvisionsUserAndCart(t *testing.T) {
	db := setupUserProjectorTestDB(t)
	consumer := newTestConsumer(t, db)

	result := consumer.process(context.Background(), userEventMessage(t, "evt-1", 7, "nina@example.com"))
	assert.True(t, result.ack)

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", 7).Error)
	require.NotNil(t, user.Email)
	assert.Equal(t, "nina@example.com", *user.Email)

	var cart models.Cart
	require.NoError(t, db.First(&cart, "user_id = ?", 7).Error)
	assert.True(t, cart.TotalPrice.IsZero())
}

func TestProcessReplayIsNoOp(t *testing.T) {
	db := setupUserProjectorTestDB(t)
	consumer := newTestConsumer(t, db)

	first := consumer.process(context.Background(), userEventMessage(t, "evt-1", 7, "nina@example.com"))
	assert.True(t, first.ack)

	// a different event id for the same user must still be a no-op
	second := consumer.process(context.Background(), userEventMessage(t, "evt-2", 7, "nina@example.com"))
	assert.True(t, second.ack)

	var userCount, cartCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, db.Model(&models.Cart{}).Count(&cartCount).Error)
	assert.Equal(t, int64(1), userCount)
	assert.Equal(t, int64(1), cartCount)
}

func TestProcessSkipsForeignEventType(t *testing.T) {
	db := setupUserProjectorTestDB(t)
	consumer := newTestConsumer(t, db)

	msg := userEventMessage(t, "evt-1", 7, "nina@example.com")
	msg.Attributes["event_type"] = string(enums.EventCartTotalChanged)

	result := consumer.process(context.Background(), msg)
	assert.True(t, result.ack)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProcessMissingUserIDAcked(t *testing.T) {
	db := setupUserProjectorTestDB(t)
	consumer := newTestConsumer(t, db)

	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    "evt-1",
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{"user_id": 0}`),
	})
	require.NoError(t, err)
	msg := &pubsub.Message{
		ID:         "msg-1",
		Data:       envelope,
		Attributes: map[string]string{"event_type": string(enums.EventUserCreated)},
	}

	result := consumer.process(context.Background(), msg)
	assert.True(t, result.ack, "events without a user id cannot be retried into success")
}

func TestProcessCartExistsForUser(t *testing.T) {
	db := setupUserProjectorTestDB(t)
	require.NoError(t, db.Create(&models.Cart{UserID: 7}).Error)
	consumer := newTestConsumer(t, db)

	result := consumer.process(context.Background(), userEventMessage(t, "evt-1", 7, "nina@example.com"))
	assert.True(t, result.ack)

	var cartCount int64
	require.NoError(t, db.Model(&models.Cart{}).Count(&cartCount).Error)
	assert.Equal(t, int64(1), cartCount, "existing cart must be kept")
}
