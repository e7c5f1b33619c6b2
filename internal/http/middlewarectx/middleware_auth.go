// Package middlewarectx contains the HTTP middleware for JWT verification
// and rate limiting.
//
// JWTMiddleware checks the Authorization header for a valid bearer token
// and, on success, puts the user uid and email into the request context for
// downstream handlers. On failure it responds with 401 Unauthorized.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/mkravtsov/subtrack/internal/http/response"
	"github.com/mkravtsov/subtrack/internal/lib/jwt"
	"github.com/mkravtsov/subtrack/internal/lib/sl"
)

// Key is the type for request context keys set by this package.
type Key string

const (
	// UserUID is the context key holding the authenticated user's uid.
	UserUID Key = "user_uid"
	// Email is the context key holding the authenticated user's email.
	Email Key = "email"
)

// JWTMiddleware returns an HTTP middleware that verifies the bearer token
// in the Authorization header using the given token maker.
func JWTMiddleware(maker jwt.Maker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := maker.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			ctx := context.WithValue(r.Context(), UserUID, claims.UserUID)
			ctx = context.WithValue(ctx, Email, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserUIDFromContext extracts the authenticated user's uid set by
// JWTMiddleware. The bool is false when the request was not authenticated.
func UserUIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(UserUID).(string)
	return uid, ok && uid != ""
}
