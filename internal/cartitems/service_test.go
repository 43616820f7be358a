package cartitems

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ninakhal/mealcart-backend/internal/carts"
	"github.com/ninakhal/mealcart-backend/pkg/db/models"
	"github.com/ninakhal/mealcart-backend/pkg/enums"
	pkgerrors "github.com/ninakhal/mealcart-backend/pkg/errors"
	"github.com/ninakhal/mealcart-backend/pkg/logger"
	"github.com/ninakhal/mealcart-backend/pkg/outbox"
	"github.com/ninakhal/mealcart-backend/pkg/outbox/payloads"
)

func setupCartItemsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	cartsDDL := `
CREATE TABLE IF NOT EXISTS carts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL UNIQUE,
  total_price TEXT NOT NULL DEFAULT '0',
  created_at DATETIME,
  updated_at DATETIME
);`
	itemsDDL := `
CREATE TABLE IF NOT EXISTS cart_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  cart_id INTEGER NOT NULL,
  meal_id INTEGER NOT NULL,
  meal_name TEXT NOT NULL DEFAULT '',
  quantity INTEGER NOT NULL,
  price TEXT NOT NULL,
  total_price TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, meal_id)
);`
	require.NoError(t, db.Exec(cartsDDL).Error)
	require.NoError(t, db.Exec(itemsDDL).Error)
	return db
}

type stubMealLookup struct {
	meals map[int64]*models.Meal
}

func (s *stubMealLookup) GetMealByID(ctx context.Context, id int64) (*models.Meal, error) {
	return s.meals[id], nil
}

type recordingEmitter struct {
	events []outbox.DomainEvent
}

func (r *recordingEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEmitter) lastTotal(t *testing.T) decimal.Decimal {
	t.Helper()
	require.NotEmpty(t, r.events)
	event := r.events[len(r.events)-1]
	payload, ok := event.Data.(payloads.CartTotalChangedEvent)
	require.True(t, ok, "unexpected payload type %T", event.Data)
	return payload.CartData.TotalPrice
}

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

func newCartItemsTestService(t *testing.T, db *gorm.DB, meals *stubMealLookup, emitter *recordingEmitter) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(db),
		CartRepo: carts.NewRepository(db),
		Meals:    meals,
		Tx:       gormTxRunner{db: db},
		Events:   emitter,
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
	})
	require.NoError(t, err)
	return svc
}

func seedCart(t *testing.T, db *gorm.DB, userID int64) *models.Cart {
	t.Helper()
	cart := &models.Cart{UserID: userID}
	require.NoError(t, db.Create(cart).Error)
	return cart
}

func mealFixture(id int64, price string, available bool) *models.Meal {
	return &models.Meal{
		ID:          id,
		CategoryID:  1,
		Name:        fmt.Sprintf("meal-%d", id),
		Price:       decimal.RequireFromString(price),
		IsAvailable: available,
	}
}

func TestAddItemInsertsLineWithPriceSnapshot(t *testing.T) {
	db := setupCartItemsTestDB(t)
	seedCart(t, db, 7)
	lookup := &stubMealLookup{meals: map[int64]*models.Meal{1: mealFixture(1, "5.00", true)}}
	emitter := &recordingEmitter{}
	svc := newCartItemsTestService(t, db, lookup, emitter)

	item, err := svc.AddItem(context.Background(), 7, AddItemInput{MealID: 1, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, "meal-1", item.MealName)
	assert.True(t, item.Price.Equal(decimal.RequireFromString("5.00")), "price snapshot mismatch: %s", item.Price)
	assert.True(t, item.TotalPrice.Equal(decimal.RequireFromString("10.00")), "line total mismatch: %s", item.TotalPrice)

	require.Len(t, emitter.events, 1)
	assert.Equal(t, enums.EventCartTotalChanged, emitter.events[0].EventType)
	assert.Equal(t, enums.AggregateCart, emitter.events[0].AggregateType)
	assert.True(t, emitter.lastTotal(t).Equal(decimal.RequireFromString("10")), "emitted total mismatch")
}

func TestAddItemMergePreservesOriginalSnapshot(t *testing.T) {
	db := setupCartItemsTestDB(t)
	seedCart(t, db, 7)
	lookup := &stubMealLookup{meals: map[int64]*models.Meal{1: mealFixture(1, "5.00", true)}}
	emitter := &recordingEmitter{}
	svc := newCartItemsTestService(t, db, lookup, emitter)

	_, err := svc.AddItem(context.Background(), 7, AddItemInput{MealID: 1, Quantity: 2})
	require.NoError(t, err)

	// menu price changes between the two adds
	lookup.meals[1] = mealFixture(1, "9.99", true)

	merged, err := svc.AddItem(context.Background(), 7, AddItemInput{MealID: 1, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 5, merged.Quantity)
	assert.True(t, merged.Price.Equal(decimal.RequireFromString("5.00")), "snapshot must not re-price: %s", merged.Price)
	assert.True(t, merged.TotalPrice.Equal(decimal.RequireFromString("25.00")), "line total mismatch: %s", merged.TotalPrice)

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "merge must not create a second line")

	assert.True(t, emitter.lastTotal(t).Equal(decimal.RequireFromString("25")), "emitted total mismatch")
}

func TestAddItemMergeSkipsMealVerification(t *testing.T) {
	db := setupCartItemsTestDB(t)
	seedCart(t, db, 7)
	lookup := &stubMealLookup{meals: map[int64]*models.Meal{1: mealFixture(1, "5.00", true)}}
	emitter := &recordingEmitter{}
	svc := newCartItemsTestService(t, db, lookup, emitter)

	_, err := svc.AddItem(context.Background(), 7, AddItemInput{MealID: 1, Quantity: 2})
	require.NoError(t, err)

	// meal retired from the menu after the first add; the frozen snapshot
	// still merges
	lookup.meals = map[int64]*models.Meal{}

	merged, err := svc.AddItem(context.Background(), 7, AddItemInput{MealID: 1, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, merged.Quantity)
	assert.True(t, merged.Price.Equal(decimal.RequireFromString("5.00")), "snapshot price mismatch: %s", merged.Price)
	assert.True(t, emitter.lastTotal(t).Equal(decimal.RequireFromString("15")), "emitted total mismatch")
}

func TestAddItemUnknownMeal(t *testing.T) {
	db := setupCartItemsTestDB(t)
	seedCart(t, db, 7)
	svc := newCartItemsTestService(t, db, &stubMealLookup{meals: map[int64]*models.Meal{}}, &recordingEmitter{})

	_, err := svc.AddItem(context.Background(), 7, AddItemInput{MealID: 99, Quantity: 1})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound), "unexpected error: %v", err)
}

func TestAddItemUnavailableMeal(t *testing.T) {
	db := setupCartItemsTestDB(t)
	seedCart(t, db, 7)
	lookup := &stubMealLookup{meals: map[int64]*models.Meal{1: mealFixture(1, "5.00", false)}}
	svc := newCartItemsTestService(t, db, lookup, &recordingEmitter{})

	_, err := svc.AddItem(context.Background(), 7, AddItemInput{MealID: 1, Quantity: 1})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), "unexpected error: %v", err)
}

func TestUpdateItemEmptyPatchRejected(t *testing.T) {
	db := setupCartItemsTestDB(t)
	seedCart(t, db, 7)
	svc := newCartItemsTestService(t, db, &stubMealLookup{}, &recordingEmitter{})

	_, err := svc.UpdateItem(context.Background(), 7, 1, UpdateItemInput{})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "unexpected error: %v", err)
}

func TestUpdateItemZeroQuantityRemovesLine(t *testing.T) {
	db := setupCartItemsTestDB(t)
	seedCart(t, db, 7)
	lookup := &stubMealLookup{meals: map[int64]*models.Meal{
		1: mealFixture(1, "5.00", true),
		2: mealFixture(2, "3.00", true),
	}}
	emitter := &recordingEmitter{}
	svc := newCartItemsTestService(t, db, lookup, emitter)

	first, err := svc.AddItem(context.Background(), 7, AddItemInput{MealID: 1, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), 7, AddItemInput{MealID: 2, Quantity: 1})
	require.NoError(t, err)

	zero := 0
	item, err := svc.UpdateItem(context.Background(), 7, first.ID, UpdateItemInput{Quantity: &zero})
	require.NoError(t, err)
	assert.Nil(t, item, "zero quantity must remove the line")

	rows, err := svc.GetItems(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].MealID)

	assert.True(t, emitter.lastTotal(t).Equal(decimal.RequireFromString("3")), "emitted total mismatch")
}

func TestUpdateItemRepricesLineFromSnapshot(t *testing.T) {
	db := setupCartItemsTestDB(t)
	seedCart(t, db, 7)
	lookup := &stubMealLookup{meals: map[int64]*models.Meal{1: mealFixture(1, "4.50", true)}}
	emitter := &recordingEmitter{}
	svc := newCartItemsTestService(t, db, lookup, emitter)

	added, err := svc.AddItem(context.Background(), 7, AddItemInput{MealID: 1, Quantity: 1})
	require.NoError(t, err)

	qty := 4
	updated, err := svc.UpdateItem(context.Background(), 7, added.ID, UpdateItemInput{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)
	assert.True(t, updated.TotalPrice.Equal(decimal.RequireFromString("18.00")), "line total mismatch: %s", updated.TotalPrice)
	assert.True(t, emitter.lastTotal(t).Equal(decimal.RequireFromString("18")), "emitted total mismatch")
}

func TestUpdateItemMissingLine(t *testing.T) {
	db := setupCartItemsTestDB(t)
	seedCart(t, db, 7)
	svc := newCartItemsTestService(t, db, &stubMealLookup{}, &recordingEmitter{})

	qty := 2
	_, err := svc.UpdateItem(context.Background(), 7, 42, UpdateItemInput{Quantity: &qty})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound), "unexpected error: %v", err)
}

func TestRemoveItemMissingLine(t *testing.T) {
	db := setupCartItemsTestDB(t)
	seedCart(t, db, 7)
	svc := newCartItemsTestService(t, db, &stubMealLookup{}, &recordingEmitter{})

	err := svc.RemoveItem(context.Background(), 7, 42)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound), "unexpected error: %v", err)
}

func TestRemoveAllItemsEmptyCart(t *testing.T) {
	db := setupCartItemsTestDB(t)
	seedCart(t, db, 7)
	svc := newCartItemsTestService(t, db, &stubMealLookup{}, &recordingEmitter{})

	err := svc.RemoveAllItems(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound), "unexpected error: %v", err)
}

func TestRemoveAllItemsEmitsZeroTotal(t *testing.T) {
	db := setupCartItemsTestDB(t)
	seedCart(t, db, 7)
	lookup := &stubMealLookup{meals: map[int64]*models.Meal{1: mealFixture(1, "5.00", true)}}
	emitter := &recordingEmitter{}
	svc := newCartItemsTestService(t, db, lookup, emitter)

	_, err := svc.AddItem(context.Background(), 7, AddItemInput{MealID: 1, Quantity: 2})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveAllItems(context.Background(), 7))
	assert.True(t, emitter.lastTotal(t).IsZero(), "drained cart must emit zero total")

	rows, err := svc.GetItems(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCartMissing(t *testing.T) {
	db := setupCartItemsTestDB(t)
	svc := newCartItemsTestService(t, db, &stubMealLookup{meals: map[int64]*models.Meal{1: mealFixture(1, "5.00", true)}}, &recordingEmitter{})

	_, err := svc.AddItem(context.Background(), 404, AddItemInput{MealID: 1, Quantity: 1})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound), "unexpected error: %v", err)
}
