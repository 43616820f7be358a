package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ninakhal/mealcart-backend/internal/cartitems"
	"github.com/ninakhal/mealcart-backend/internal/meals"
	"github.com/ninakhal/mealcart-backend/internal/orders"
	"github.com/ninakhal/mealcart-backend/pkg/config"
	"github.com/ninakhal/mealcart-backend/pkg/db/models"
	"github.com/ninakhal/mealcart-backend/pkg/logger"
	"github.com/ninakhal/mealcart-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubMealsService struct{}

func (stubMealsService) GetMeal(ctx context.Context, id int64) (*models.Meal, error) {
	panic("unimplemented")
}

func (stubMealsService) ListMeals(ctx context.Context, categoryID *int64) ([]models.Meal, error) {
	return []models.Meal{{ID: 1, Name: "Margherita", Price: decimal.RequireFromString("9.50"), IsAvailable: true}}, nil
}

func (stubMealsService) ListCategories(ctx context.Context) ([]models.MealCategory, error) {
	return []models.MealCategory{}, nil
}

func (stubMealsService) CreateCategory(ctx context.Context, name string) (*models.MealCategory, error) {
	panic("unimplemented")
}

func (stubMealsService) CreateMeal(ctx context.Context, input meals.CreateMealInput) (*models.Meal, error) {
	panic("unimplemented")
}

type stubCartsService struct{}

func (stubCartsService) CreateCart(ctx context.Context, userID int64) (*models.Cart, error) {
	panic("unimplemented")
}

func (stubCartsService) GetCartByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	return &models.Cart{ID: 1, UserID: userID, TotalPrice: decimal.Zero}, nil
}

func (stubCartsService) ApplyTotal(ctx context.Context, userID int64, total decimal.Decimal) error {
	panic("unimplemented")
}

func (stubCartsService) DeleteCart(ctx context.Context, userID int64) error {
	panic("unimplemented")
}

type stubCartItemsService struct{}

func (stubCartItemsService) AddItem(ctx context.Context, userID int64, input cartitems.AddItemInput) (*models.CartItem, error) {
	panic("unimplemented")
}

func (stubCartItemsService) UpdateItem(ctx context.Context, userID, itemID int64, patch cartitems.UpdateItemInput) (*models.CartItem, error) {
	panic("unimplemented")
}

func (stubCartItemsService) GetItems(ctx context.Context, userID int64) ([]models.CartItem, error) {
	return []models.CartItem{}, nil
}

func (stubCartItemsService) GetItem(ctx context.Context, userID, itemID int64) (*models.CartItem, error) {
	panic("unimplemented")
}

func (stubCartItemsService) RemoveItem(ctx context.Context, userID, itemID int64) error {
	panic("unimplemented")
}

func (stubCartItemsService) RemoveAllItems(ctx context.Context, userID int64) error {
	panic("unimplemented")
}

type stubOrdersService struct{}

func (stubOrdersService) CreateOrder(ctx context.Context, userID int64, input orders.CreateOrderInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) GetOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return []models.Order{}, nil
}

func (stubOrdersService) GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) DeleteOrder(ctx context.Context, userID, orderID int64) error {
	panic("unimplemented")
}

func (stubOrdersService) DeleteOrders(ctx context.Context, userID int64) error {
	panic("unimplemented")
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubMealsService{},
		stubCartsService{},
		stubCartItemsService{},
		stubOrdersService{},
	)
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics got %d", resp.Code)
	}
}

func TestMealsListRoute(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/meals", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for meals list got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Margherita") {
		t.Fatalf("expected meal in payload, got %s", resp.Body.String())
	}
}

func TestCartRouteParsesUserID(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/7/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for cart detail got %d", resp.Code)
	}

	bad := httptest.NewRequest(http.MethodGet, "/api/v1/users/not-a-number/cart", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, bad)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed user id got %d", resp.Code)
	}
}

func TestOrderPlacementRequiresIdempotencyKey(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/7/orders", strings.NewReader(`{"payment_method":"cash"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Idempotency-Key") {
		t.Fatalf("expected idempotency error body, got %s", resp.Body.String())
	}
}

func TestCartClearRequiresIdempotencyKey(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/7/cart/items", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key got %d", resp.Code)
	}
}
