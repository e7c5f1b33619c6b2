// Package read implements the HTTP handler for fetching one subscription.
//
// Handler extracts the id from the URL, calls the business logic and
// returns the subscription data in JSON. A subscription owned by another
// user is reported as not found.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/mkravtsov/subtrack/internal/http/middlewarectx"
	"github.com/mkravtsov/subtrack/internal/http/response"
	"github.com/mkravtsov/subtrack/internal/lib/sl"
	"github.com/mkravtsov/subtrack/internal/models"
	"github.com/mkravtsov/subtrack/internal/services/subscription"
	"github.com/mkravtsov/subtrack/internal/storage/repository"
)

// Handler processes requests for a single subscription by id.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service describes the subscription read business logic.
type Service interface {
	Read(ctx context.Context, id, userUID string) (*models.Subscription, error)
}

// New creates a Handler with the given logger and service.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Get a subscription
// @Description Returns one subscription of the current user by id.
// @Tags Subscriptions
// @Produce  json
// @Param id path string true "Subscription id"
// @Success 200 {object} map[string]any "Subscription data"
// @Failure 400 {object} response.ErrorResponse "Invalid id"
// @Failure 401 {object} response.ErrorResponse "Not authenticated"
// @Failure 404 {object} response.ErrorResponse "Subscription not found"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Security BearerAuth
// @Router /subscriptions/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		log.Error("invalid subscription id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid subscription id"))
		return
	}

	userUID, ok := middlewarectx.UserUIDFromContext(r.Context())
	if !ok {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	res, err := h.service.Read(r.Context(), id, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) || errors.Is(err, subscription.ErrNotOwner) {
			log.Error("subscription not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("subscription not found"))
			return
		}
		log.Error("failed to read subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read subscription"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscription": res,
	}))
}
