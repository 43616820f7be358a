package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/ninakhal/mealcart-backend/internal/consumers/cartprojector"
	"github.com/ninakhal/mealcart-backend/internal/consumers/userprojector"
	"github.com/ninakhal/mealcart-backend/pkg/config"
	"github.com/ninakhal/mealcart-backend/pkg/db"
	"github.com/ninakhal/mealcart-backend/pkg/logger"
	"github.com/ninakhal/mealcart-backend/pkg/pubsub"
	"github.com/ninakhal/mealcart-backend/pkg/redis"
)

type ServiceParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            *db.Client
	Redis         *redis.Client
	PubSub        *pubsub.Client
	CartProjector *cartprojector.Consumer
	UserProjector *userprojector.Consumer
}

type Service struct {
	cfg           *config.Config
	logg          *logger.Logger
	db            *db.Client
	redis         *redis.Client
	pubsub        *pubsub.Client
	cartProjector *cartprojector.Consumer
	userProjector *userprojector.Consumer
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.CartProjector == nil {
		return nil, errors.New("cart projector is required")
	}
	if params.UserProjector == nil {
		return nil, errors.New("user projector is required")
	}

	return &Service{
		cfg:           params.Config,
		logg:          params.Logger,
		db:            params.DB,
		redis:         params.Redis,
		pubsub:        params.PubSub,
		cartProjector: params.CartProjector,
		userProjector: params.UserProjector,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "redis", s.redis.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "pubsub", s.pubsub.Ping); err != nil {
		return err
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- s.cartProjector.Run(ctx)
	}()
	go func() {
		errCh <- s.userProjector.Run(ctx)
	}()

	var runErr error
	received := 0
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "worker context canceled")
			// drain consumer exits so neither goroutine blocks on send
			for received < cap(errCh) {
				err := <-errCh
				received++
				if err != nil && !errors.Is(err, context.Canceled) {
					runErr = multierr.Append(runErr, err)
				}
			}
			if runErr != nil {
				return runErr
			}
			return ctx.Err()
		case err := <-errCh:
			received++
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logg.Error(ctx, "consumer stopped unexpectedly", err)
				return multierr.Append(runErr, err)
			}
			if received == cap(errCh) {
				return runErr
			}
		}
	}
}
