// Package list implements the HTTP handler for listing the current user's
// subscriptions with limit/offset pagination.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/mkravtsov/subtrack/internal/http/middlewarectx"
	"github.com/mkravtsov/subtrack/internal/http/response"
	"github.com/mkravtsov/subtrack/internal/lib/sl"
	"github.com/mkravtsov/subtrack/internal/models"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Handler processes subscription list requests.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service describes the subscription listing business logic.
type Service interface {
	List(ctx context.Context, userUID string, limit, offset int) ([]*models.Subscription, error)
}

// New creates a Handler with the given logger and service.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary List subscriptions
// @Description Returns the current user's subscriptions ordered by renewal date.
// @Tags Subscriptions
// @Produce  json
// @Param limit query int false "Page size, max 100" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} map[string]any "Subscriptions"
// @Failure 401 {object} response.ErrorResponse "Not authenticated"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Security BearerAuth
// @Router /subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := middlewarectx.UserUIDFromContext(r.Context())
	if !ok {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	limit := queryInt(r, "limit", defaultLimit)
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	subs, err := h.service.List(r.Context(), userUID, limit, offset)
	if err != nil {
		log.Error("failed to list subscriptions", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list subscriptions"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscriptions": subs,
		"count":         len(subs),
	}))
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return val
}
