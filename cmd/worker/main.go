package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ninakhal/mealcart-backend/internal/carts"
	"github.com/ninakhal/mealcart-backend/internal/consumers/cartprojector"
	"github.com/ninakhal/mealcart-backend/internal/consumers/userprojector"
	"github.com/ninakhal/mealcart-backend/internal/users"
	"github.com/ninakhal/mealcart-backend/pkg/config"
	"github.com/ninakhal/mealcart-backend/pkg/db"
	"github.com/ninakhal/mealcart-backend/pkg/logger"
	"github.com/ninakhal/mealcart-backend/pkg/metrics"
	"github.com/ninakhal/mealcart-backend/pkg/migrate"
	"github.com/ninakhal/mealcart-backend/pkg/outbox/idempotency"
	"github.com/ninakhal/mealcart-backend/pkg/pubsub"
	"github.com/ninakhal/mealcart-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	err = migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	idempotencyManager, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	consumerMetrics := metrics.NewConsumerMetrics(prometheus.DefaultRegisterer)

	cartRepo := carts.NewRepository(dbClient.DB())
	cartsService, err := carts.NewService(carts.ServiceParams{
		Repo:   cartRepo,
		Tx:     dbClient,
		Logger: logg,
	})
	requireResource(ctx, logg, "cart service", err)

	cartConsumer, err := cartprojector.NewConsumer(
		cartsService,
		pubsubClient.CartSubscription(),
		idempotencyManager,
		consumerMetrics,
		logg,
	)
	requireResource(ctx, logg, "cart projector", err)

	userConsumer, err := userprojector.NewConsumer(userprojector.ConsumerParams{
		UsersRepo:    users.NewRepository(dbClient.DB()),
		CartRepo:     cartRepo,
		Tx:           dbClient,
		Subscription: pubsubClient.UserSubscription(),
		Idempotency:  idempotencyManager,
		Metrics:      consumerMetrics,
		Logger:       logg,
	})
	requireResource(ctx, logg, "user projector", err)

	service, err := NewService(ServiceParams{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Redis:         redisClient,
		PubSub:        pubsubClient,
		CartProjector: cartConsumer,
		UserProjector: userConsumer,
	})
	requireResource(ctx, logg, "worker service", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"serviceKind": cfg.Service.Kind,
		"env":         cfg.App.Env,
	})
	logg.Info(runCtx, "worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
