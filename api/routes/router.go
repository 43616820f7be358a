package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ninakhal/mealcart-backend/api/controllers"
	cartitemcontrollers "github.com/ninakhal/mealcart-backend/api/controllers/cartitems"
	ordercontrollers "github.com/ninakhal/mealcart-backend/api/controllers/orders"
	"github.com/ninakhal/mealcart-backend/api/middleware"
	"github.com/ninakhal/mealcart-backend/internal/cartitems"
	"github.com/ninakhal/mealcart-backend/internal/carts"
	"github.com/ninakhal/mealcart-backend/internal/meals"
	internalorders "github.com/ninakhal/mealcart-backend/internal/orders"
	"github.com/ninakhal/mealcart-backend/pkg/config"
	"github.com/ninakhal/mealcart-backend/pkg/db"
	"github.com/ninakhal/mealcart-backend/pkg/logger"
	"github.com/ninakhal/mealcart-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	mealsService meals.Service,
	cartsService carts.Service,
	cartItemsService cartitems.Service,
	ordersService internalorders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/meal-categories", func(r chi.Router) {
			r.Get("/", controllers.MealCategoriesList(mealsService, logg))
			r.Post("/", controllers.MealCategoryCreate(mealsService, logg))
		})
		r.Route("/meals", func(r chi.Router) {
			r.Get("/", controllers.MealsList(mealsService, logg))
			r.Post("/", controllers.MealCreate(mealsService, logg))
			r.Get("/{mealID}", controllers.MealDetail(mealsService, logg))
		})

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartDetail(cartsService, logg))
				r.Route("/items", func(r chi.Router) {
					r.Post("/", cartitemcontrollers.Add(cartItemsService, logg))
					r.Get("/", cartitemcontrollers.List(cartItemsService, logg))
					r.Delete("/", cartitemcontrollers.RemoveAll(cartItemsService, logg))
					r.Get("/{itemID}", cartitemcontrollers.Detail(cartItemsService, logg))
					r.Patch("/{itemID}", cartitemcontrollers.Update(cartItemsService, logg))
					r.Delete("/{itemID}", cartitemcontrollers.Remove(cartItemsService, logg))
				})
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", ordercontrollers.Create(ordersService, logg))
				r.Get("/", ordercontrollers.List(ordersService, logg))
				r.Delete("/", ordercontrollers.DeleteAll(ordersService, logg))
				r.Get("/{orderID}", ordercontrollers.Detail(ordersService, logg))
				r.Delete("/{orderID}", ordercontrollers.Delete(ordersService, logg))
			})
		})
	})

	return r
}
