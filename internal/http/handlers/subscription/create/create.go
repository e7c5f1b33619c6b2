// Package create implements the HTTP handler for creating subscriptions.
//
// Handler accepts a JSON request with subscription data, validates it,
// extracts the user uid from the context, calls the business logic and
// returns the stored id plus the reminder workflow run handle.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/mkravtsov/subtrack/internal/http/middlewarectx"
	"github.com/mkravtsov/subtrack/internal/http/response"
	"github.com/mkravtsov/subtrack/internal/lib/sl"
	"github.com/mkravtsov/subtrack/internal/models"
	"github.com/mkravtsov/subtrack/internal/services/subscription"
)

// Handler processes subscription creation requests.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service describes the subscription creation business logic.
type Service interface {
	Create(ctx context.Context, userUID string, req models.SubscriptionRequest) (*subscription.CreateResult, error)
}

// New creates a Handler with the given logger and service.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Create a subscription
// @Description Creates a subscription for the current user and schedules renewal reminders. The response carries a warning when reminder scheduling is temporarily unavailable.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param request body models.SubscriptionRequest true "Subscription data"
// @Success 200 {object} map[string]any "Created subscription"
// @Failure 400 {object} response.ErrorResponse "Malformed JSON or invalid dates"
// @Failure 401 {object} response.ErrorResponse "Not authenticated"
// @Failure 422 {object} response.ErrorResponse "Validation error"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Security BearerAuth
// @Router /subscriptions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Any("request", req))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID, ok := middlewarectx.UserUIDFromContext(r.Context())
	if !ok {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	result, err := h.service.Create(r.Context(), userUID, req)
	if err != nil {
		if errors.Is(err, subscription.ErrInvalidInput) {
			log.Error("invalid subscription data", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		log.Error("failed to create subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create subscription"))
		return
	}

	log.Info("created subscription", slog.String("id", result.ID))
	render.JSON(w, r, response.StatusOKWithData(result))
}
