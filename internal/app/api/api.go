// Package api assembles the HTTP API service: storage, migrations, cache,
// broker connection, business services and the router.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/mkravtsov/subtrack/internal/cache"
	"github.com/mkravtsov/subtrack/internal/config"
	"github.com/mkravtsov/subtrack/internal/lib/jwt"
	"github.com/mkravtsov/subtrack/internal/lib/rabbitmq"
	"github.com/mkravtsov/subtrack/internal/migrations"
	authservice "github.com/mkravtsov/subtrack/internal/services/auth"
	subservice "github.com/mkravtsov/subtrack/internal/services/subscription"
	"github.com/mkravtsov/subtrack/internal/services/trigger"
	"github.com/mkravtsov/subtrack/internal/storage/repository"
)

// App is the assembled API service.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	amqp   *amqp.Connection
}

// New wires up the API service from config.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	amqpConn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(amqpConn, rabbitmq.GetReminderQueues())
	if err != nil {
		return nil, err
	}

	maker := jwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)
	triggerClient := trigger.New(ch, logger)
	subscriptionService := subservice.NewService(db, cacheRedis, triggerClient, logger)
	authService := authservice.NewService(db, maker, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, db, maker, authService, subscriptionService)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		amqp:   amqpConn,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.db.DB.Close()
		a.amqp.Close()
		return err
	}
}
