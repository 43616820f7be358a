package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/ninakhal/mealcart-backend/api/routes"
	"github.com/ninakhal/mealcart-backend/internal/cartitems"
	"github.com/ninakhal/mealcart-backend/internal/carts"
	"github.com/ninakhal/mealcart-backend/internal/meals"
	internalorders "github.com/ninakhal/mealcart-backend/internal/orders"
	"github.com/ninakhal/mealcart-backend/pkg/config"
	"github.com/ninakhal/mealcart-backend/pkg/db"
	"github.com/ninakhal/mealcart-backend/pkg/logger"
	"github.com/ninakhal/mealcart-backend/pkg/migrate"
	"github.com/ninakhal/mealcart-backend/pkg/outbox"
	"github.com/ninakhal/mealcart-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	mealRepo := meals.NewRepository(dbClient.DB())
	mealsService, err := meals.NewService(mealRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create meal service", err)
		os.Exit(1)
	}

	cartRepo := carts.NewRepository(dbClient.DB())
	cartsService, err := carts.NewService(carts.ServiceParams{
		Repo:   cartRepo,
		Tx:     dbClient,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	itemRepo := cartitems.NewRepository(dbClient.DB())
	cartItemsService, err := cartitems.NewService(cartitems.ServiceParams{
		Repo:     itemRepo,
		CartRepo: cartRepo,
		Meals:    mealRepo,
		Tx:       dbClient,
		Events:   outboxService,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart item service", err)
		os.Exit(1)
	}

	ordersService, err := internalorders.NewService(internalorders.ServiceParams{
		Repo:      internalorders.NewRepository(dbClient.DB()),
		CartRepo:  cartRepo,
		ItemsRepo: itemRepo,
		Tx:        dbClient,
		Events:    outboxService,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	instance := os.Getenv("DYNO")
	if instance == "" {
		instance = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, mealsService, cartsService, cartItemsService, ordersService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
