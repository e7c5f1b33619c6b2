package api

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/mkravtsov/subtrack/internal/http/handlers/auth/login"
	"github.com/mkravtsov/subtrack/internal/http/handlers/auth/register"
	"github.com/mkravtsov/subtrack/internal/http/handlers/health"
	"github.com/mkravtsov/subtrack/internal/http/handlers/subscription/cancel"
	"github.com/mkravtsov/subtrack/internal/http/handlers/subscription/create"
	"github.com/mkravtsov/subtrack/internal/http/handlers/subscription/list"
	"github.com/mkravtsov/subtrack/internal/http/handlers/subscription/read"
	"github.com/mkravtsov/subtrack/internal/http/handlers/subscription/remove"
	"github.com/mkravtsov/subtrack/internal/http/handlers/subscription/update"
	"github.com/mkravtsov/subtrack/internal/http/middlewarectx"
	"github.com/mkravtsov/subtrack/internal/lib/jwt"
	authservice "github.com/mkravtsov/subtrack/internal/services/auth"
	subservice "github.com/mkravtsov/subtrack/internal/services/subscription"
	"github.com/mkravtsov/subtrack/internal/storage/repository"
)

// RegisterRoutes registers all routes of the API service.
func RegisterRoutes(r chi.Router, logger *slog.Logger, db *repository.Storage,
	maker jwt.Maker, authService *authservice.Service, subscriptionService *subservice.Service) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", register.New(logger, authService).ServeHTTP)
		r.Post("/auth/login", login.New(logger, authService).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(maker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/subscriptions", create.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions", list.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/{id}", read.New(logger, subscriptionService).ServeHTTP)
			r.Put("/subscriptions/{id}", update.New(logger, subscriptionService).ServeHTTP)
			r.Delete("/subscriptions/{id}", remove.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions/{id}/cancel", cancel.New(logger, subscriptionService).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
