// Package health implements the liveness/readiness endpoint.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/mkravtsov/subtrack/internal/http/response"
	"github.com/mkravtsov/subtrack/internal/lib/sl"
)

// Pinger reports whether the storage is reachable.
type Pinger interface {
	CheckDatabaseReady(ctx context.Context) error
}

// Handler processes health check requests.
type Handler struct {
	log    *slog.Logger
	pinger Pinger
}

// New creates a Handler with the given logger and storage pinger.
func New(log *slog.Logger, pinger Pinger) *Handler {
	return &Handler{log: log, pinger: pinger}
}

// ServeHTTP godoc
// @Summary Health check
// @Description Reports readiness, including storage connectivity.
// @Tags System
// @Produce  json
// @Success 200 {object} map[string]any "Service is healthy"
// @Failure 503 {object} response.ErrorResponse "Storage unreachable"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"
	if err := h.pinger.CheckDatabaseReady(r.Context()); err != nil {
		h.log.Error("storage unreachable", slog.String("op", op), sl.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("storage unreachable"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status": "ok",
	}))
}
