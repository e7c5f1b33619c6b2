// Package cancel implements the HTTP handler that marks a subscription
// cancelled. Cancellation is terminal: the reminder workflow observes the
// status on its next resume and stops without sending further emails.
package cancel

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/mkravtsov/subtrack/internal/http/middlewarectx"
	"github.com/mkravtsov/subtrack/internal/http/response"
	"github.com/mkravtsov/subtrack/internal/lib/sl"
)

// Handler processes subscription cancellation requests.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service describes the subscription cancellation business logic.
type Service interface {
	Cancel(ctx context.Context, id, userUID string) (int, error)
}

// New creates a Handler with the given logger and service.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Cancel a subscription
// @Description Marks a subscription cancelled. Pending renewal reminders are abandoned.
// @Tags Subscriptions
// @Produce  json
// @Param id path string true "Subscription id"
// @Success 200 {object} map[string]any "Cancelled rows"
// @Failure 400 {object} response.ErrorResponse "Invalid id"
// @Failure 401 {object} response.ErrorResponse "Not authenticated"
// @Failure 404 {object} response.ErrorResponse "Subscription not found"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Security BearerAuth
// @Router /subscriptions/{id}/cancel [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.cancel"
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

	count, err := h.service.Cancel(r.Context(), id, userUID)
	if err != nil {
		log.Error("failed to cancel subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not cancel subscription"))
		return
	}
	if count == 0 {
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("subscription not found"))
		return
	}

	log.Info("cancelled subscription", slog.String("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"cancelled": count,
	}))
}
