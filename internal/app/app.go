// Package app wires configuration, storage, messaging, and HTTP serving
// into a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/StoreRatingsGo/internal/auth"
	"github.com/utafrali/StoreRatingsGo/internal/config"
	"github.com/utafrali/StoreRatingsGo/internal/event"
	handler "github.com/utafrali/StoreRatingsGo/internal/handler/http"
	"github.com/utafrali/StoreRatingsGo/internal/repository/postgres"
	"github.com/utafrali/StoreRatingsGo/internal/service"
	"github.com/utafrali/StoreRatingsGo/internal/session"
	"github.com/utafrali/StoreRatingsGo/migrations"
	"github.com/utafrali/StoreRatingsGo/pkg/database"
	"github.com/utafrali/StoreRatingsGo/pkg/health"
	"github.com/utafrali/StoreRatingsGo/pkg/kafka"
	"github.com/utafrali/StoreRatingsGo/pkg/tracing"
)

const (
	serviceName    = "storeratings"
	serviceVersion = "1.0.0"

	initTimeout = 10 * time.Second
)

// App owns every long-lived resource of the service.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	pool           *pgxpool.Pool
	redisClient    *redis.Client
	producer       *kafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp initializes all dependencies and builds the HTTP server. On error,
// anything already opened is closed before returning.
func NewApp(ctx context.Context, cfg *config.Config, l *slog.Logger) (*App, error) {
	initCtx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()

	a := &App{cfg: cfg, logger: l}

	tracerShutdown, err := tracing.InitTracer(initCtx, cfg.Tracing, serviceName, serviceVersion)
	if err != nil {
		return nil, fmt.Errorf("initializing tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	pool, err := database.NewPostgresPool(initCtx, cfg.Postgres, l)
	if err != nil {
		a.closePartial(ctx)
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	a.pool = pool

	if err := database.RunMigrations(initCtx, pool, migrations.FS, migrations.Dir, l); err != nil {
		a.closePartial(ctx)
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	redisClient, err := database.NewRedisClient(initCtx, cfg.Redis, l)
	if err != nil {
		a.closePartial(ctx)
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	a.redisClient = redisClient

	a.producer = kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
	}, serviceName, l)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL)
	sessions := session.NewRedisStore(redisClient)
	producer := event.NewProducer(a.producer, l)

	accountRepo := postgres.NewAccountRepository(pool)
	storeRepo := postgres.NewStoreRepository(pool)
	ratingRepo := postgres.NewRatingRepository(pool)

	accountService := service.NewAccountService(accountRepo, jwtManager, sessions, producer, l)
	storeService := service.NewStoreService(storeRepo, ratingRepo, accountRepo, producer, l)
	ratingService := service.NewRatingService(ratingRepo, producer, l)
	statsService := service.NewStatsService(accountRepo, storeRepo, ratingRepo)

	healthHandler := health.New(5 * time.Second)
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", a.producer.Ping)

	router := handler.NewRouter(handler.RouterDeps{
		Accounts:      accountService,
		Stores:        storeService,
		Ratings:       ratingService,
		Stats:         statsService,
		HealthHandler: healthHandler,
		Logger:        l,
		CORS:          handler.CORSConfig{AllowedOrigins: cfg.CORSOrigins},
		Tracing:       cfg.Tracing.Enabled,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// Run serves HTTP until the context is canceled or the server fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server listening",
			slog.String("addr", a.httpServer.Addr),
			slog.String("environment", a.cfg.Environment),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

// Shutdown releases resources in reverse dependency order: drain HTTP first,
// then flush the tracer, close the producer, and finally close the stores.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error

	drainCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(drainCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutting down http server: %w", err))
	}

	if a.tracerShutdown != nil {
		flushCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := a.tracerShutdown(flushCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down tracer: %w", err))
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing kafka producer: %w", err))
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing redis client: %w", err))
		}
	}

	if a.pool != nil {
		a.pool.Close()
	}

	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}

// closePartial releases whatever NewApp opened before failing.
func (a *App) closePartial(ctx context.Context) {
	if a.redisClient != nil {
		_ = a.redisClient.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.tracerShutdown != nil {
		_ = a.tracerShutdown(ctx)
	}
}
